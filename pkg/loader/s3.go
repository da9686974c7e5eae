package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/lazydefine/pkg/customelements"
)

// S3API is the subset of the S3 client the loader uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 loads element descriptors from S3.
//
// Example usage:
//
//	client := s3.New(s3.Options{Region: "us-east-1"})
//	l := loader.NewS3(client, "elements", "v1/")
//
// The URL s3://bucket/path/x-card.yaml reads key "v1/path/x-card.yaml" from
// bucket; a URL without a host reads from the default bucket.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// NewS3 creates an S3 loader.
//
// Parameters:
//   - client: S3 client from aws-sdk-go-v2 (or a fake)
//   - bucket: default bucket for URLs without a host
//   - prefix: key prefix prepended to every object key
func NewS3(client S3API, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

// Load reads and decodes the object named by u.
func (s *S3) Load(ctx context.Context, u *url.URL) (customelements.Implementation, error) {
	bucket := u.Host
	if bucket == "" {
		bucket = s.bucket
	}
	if bucket == "" {
		return nil, fmt.Errorf("loader: no bucket for %s", u)
	}
	key := s.prefix + strings.TrimPrefix(u.Path, "/")

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, u)
		}
		return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxDescriptorSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxDescriptorSize {
		return nil, fmt.Errorf("loader: descriptor at %s exceeds %d bytes", u, maxDescriptorSize)
	}
	return Decode(body, DetectFormat(aws.ToString(out.ContentType), key))
}
