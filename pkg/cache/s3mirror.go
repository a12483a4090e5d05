package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
)

// S3API is the subset of the S3 client S3Mirror depends on, so tests can
// substitute a fake backend without a network round trip.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror is an optional remote mirror for cache entries, letting multiple
// machines share one reference-pool cache instead of each re-parsing every
// PDF on its first run. It speaks the same on-disk wire format as Persister.
type S3Mirror struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Mirror creates a mirror against bucket, storing objects under prefix.
func NewS3Mirror(client S3API, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

func (m *S3Mirror) objectKey(key string) string {
	if m.prefix == "" {
		return key + ".dat"
	}

	return m.prefix + "/" + key + ".dat"
}

// Fetch downloads a cache entry from the mirror and decodes it. It returns
// (nil, nil) if the object does not exist.
func (m *S3Mirror) Fetch(ctx context.Context, key string) (*pdfmodel.NormalizedDocument, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch cache entry from mirror: %w", err)
	}
	defer out.Body.Close()

	doc, err := decode(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mirrored cache entry: %w", err)
	}

	return doc, nil
}

// Publish uploads the local encoding of doc to the mirror under key.
func (m *S3Mirror) Publish(ctx context.Context, key string, doc *pdfmodel.NormalizedDocument) error {
	var buf bytes.Buffer

	if err := encode(&buf, doc); err != nil {
		return fmt.Errorf("failed to encode cache entry for mirror: %w", err)
	}

	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.objectKey(key)),
		Body:   bytes.NewReader(buf.Bytes()),
	})
	if err != nil {
		return fmt.Errorf("failed to publish cache entry to mirror: %w", err)
	}

	return nil
}
