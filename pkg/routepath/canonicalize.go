// Package routepath normalizes request paths before they are matched against
// manifest routes.
package routepath

import (
	"errors"
	"net/url"
	"strings"

	"github.com/cooptacular/gravity/pkg/routing"
)

// Result contains the result of path canonicalization.
type Result struct {
	// Path is the canonicalized path (without query string).
	Path string

	// Query is the query string (without leading "?").
	Query string

	// Changed indicates if the path was modified during canonicalization.
	Changed bool
}

// Path canonicalization errors.
var (
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes a request path and applies a trailing-slash policy.
//
// The following transformations are applied:
//   - Collapse multiple slashes (/blog//post → /blog/post)
//   - Remove "." segments (/blog/./post → /blog/post)
//   - Resolve ".." segments (/blog/../other → /other)
//   - Trailing slash: added for "always", removed for "never", kept as given for "ignore"
//
// Paths whose last segment carries a file extension (/favicon.svg, /rss.xml)
// keep their trailing slash as given under every policy.
//
// The following inputs are rejected with an error:
//   - Paths containing backslash (\)
//   - Paths containing NUL byte (%00)
//   - Invalid percent-escapes (e.g., %GG, %2)
//   - ".." that would escape root (e.g., /../secret)
//
// The input may include a query string, which is preserved but not canonicalized.
func Canonicalize(input string, policy routing.TrailingSlash) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	path, query := SplitPathAndQuery(input)

	if strings.Contains(path, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Result{}, err
		}
	}

	original := path
	trailing := strings.HasSuffix(path, "/")

	var result []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}

	if len(result) == 0 {
		return Result{Path: "/", Query: query, Changed: original != "/"}, nil
	}

	path = "/" + strings.Join(result, "/")
	if hasFileExtension(result[len(result)-1]) {
		policy = routing.TrailingSlashIgnore
	}
	switch policy {
	case routing.TrailingSlashAlways:
		path += "/"
	case routing.TrailingSlashNever:
	default:
		if trailing {
			path += "/"
		}
	}

	return Result{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// hasFileExtension reports whether seg ends in ".ext". Dotfiles such as
// ".well-known" do not count.
func hasFileExtension(seg string) bool {
	i := strings.LastIndexByte(seg, '.')
	return i > 0 && i < len(seg)-1
}

// validatePercentEscapes checks that all percent-escapes are valid.
// Valid escapes are %XX where X is a hex digit (0-9, a-f, A-F).
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Decode percent-decodes a canonical path for matching against route
// patterns, which are written in terms of decoded characters.
func Decode(path string) (string, error) {
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.Contains(decoded, "\x00") {
		return "", ErrNullByteInPath
	}
	return decoded, nil
}

// SplitPathAndQuery splits a path into path and query components.
// The query is returned without the leading "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}
