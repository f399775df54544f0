package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Scheme prefixes image locations that live in an S3 bucket
const S3Scheme = "s3://"

// S3Options configures the S3 client. Empty fields fall back to the
// default AWS config chain (env, shared config, instance role).
type S3Options struct {
	Region          string
	Endpoint        string // S3-compatible endpoint, e.g. MinIO
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3Source reads the image from one S3 object
type S3Source struct {
	client *s3.Client
	bucket string
	key    string
}

// IsS3URL reports whether location is an s3:// URL
func IsS3URL(location string) bool {
	return strings.HasPrefix(location, S3Scheme)
}

// ParseS3URL splits s3://bucket/key into bucket and key
func ParseS3URL(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme != "s3" {
		return "", "", fmt.Errorf("invalid s3 url: %q", location)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 url needs bucket and key: %q", location)
	}
	return u.Host, key, nil
}

// NewS3Source creates a source for the object at location (s3://bucket/key)
func NewS3Source(ctx context.Context, location string, opts S3Options) (*S3Source, error) {
	bucket, key, err := ParseS3URL(location)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	return &S3Source{client: client, bucket: bucket, key: key}, nil
}

// Open streams the object body
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("object %s not found", s.Location())
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.Location(), err)
	}
	return out.Body, nil
}

// Location returns the s3:// URL of the object
func (s *S3Source) Location() string {
	return S3Scheme + s.bucket + "/" + s.key
}
