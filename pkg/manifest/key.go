package manifest

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidKey is returned when the encoded key is not a valid AES key.
var ErrInvalidKey = errors.New("invalid manifest key")

// Key is the server key used to encrypt server island props.
type Key []byte

// KeyDecoder turns the encoded key string from the manifest into a Key.
type KeyDecoder func(encoded string) (Key, error)

// DecodeKey decodes a standard base64 AES-128, AES-192 or AES-256 key.
func DecodeKey(encoded string) (Key, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	switch len(raw) {
	case 16, 24, 32:
		return Key(raw), nil
	default:
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(raw))
	}
}

// AEAD returns an AES-GCM cipher for the key.
func (k Key) AEAD() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Encode returns the key in the form stored in the manifest.
func (k Key) Encode() string {
	return base64.StdEncoding.EncodeToString(k)
}
