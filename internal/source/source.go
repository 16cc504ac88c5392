// Package source reads serialized manifests from disk or S3.
package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Scheme is the URI scheme for manifests stored in S3.
const S3Scheme = "s3"

var (
	// ErrNotFound is returned when the file or object does not exist.
	ErrNotFound = stderrors.New("manifest source not found")

	// ErrInvalidURI is returned for malformed s3:// URIs.
	ErrInvalidURI = stderrors.New("invalid s3 uri")
)

// ObjectGetter is the subset of the S3 client used to fetch manifests.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Location is a parsed s3://bucket/key URI.
type S3Location struct {
	Bucket string
	Key    string
}

// String returns the location as an s3:// URI.
func (l S3Location) String() string {
	return S3Scheme + "://" + l.Bucket + "/" + l.Key
}

// ParseS3URI parses s3://bucket/key. ok is false when uri is not an S3 URI.
func ParseS3URI(uri string) (loc S3Location, ok bool, err error) {
	if !strings.HasPrefix(uri, S3Scheme+"://") {
		return S3Location{}, false, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return S3Location{}, true, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return S3Location{}, true, fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidURI, uri)
	}
	return S3Location{Bucket: u.Host, Key: key}, true, nil
}

type options struct {
	client   ObjectGetter
	region   string
	profile  string
	endpoint string
}

// Option configures Open.
type Option func(*options)

// WithS3Client uses a pre-built client instead of the default AWS chain.
func WithS3Client(c ObjectGetter) Option {
	return func(o *options) { o.client = c }
}

// WithRegion overrides the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithProfile selects a shared config profile.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithEndpoint points the client at an S3-compatible endpoint. Path-style
// addressing is enabled for it.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// Open returns the manifest bytes at uri: an s3://bucket/key URI or a local
// path.
func Open(ctx context.Context, uri string, opts ...Option) ([]byte, error) {
	loc, isS3, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if !isS3 {
		return readFile(uri)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	client := o.client
	if client == nil {
		client, err = newClient(ctx, o)
		if err != nil {
			return nil, err
		}
	}
	return getObject(ctx, client, loc)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	return data, nil
}

func newClient(ctx context.Context, o options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(o.region))
	}
	if o.profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(o.profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.endpoint != "" {
			so.BaseEndpoint = aws.String(o.endpoint)
			so.UsePathStyle = true
		}
	}), nil
}

func getObject(ctx context.Context, client ObjectGetter, loc S3Location) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if stderrors.As(err, &noKey) || stderrors.As(err, &noBucket) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, loc)
		}
		return nil, fmt.Errorf("get %s: %w", loc, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return data, nil
}
