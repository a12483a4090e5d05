package cmd

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/TillBeemelmanns/PDFCompare/pkg/cache"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pipeline"
)

// newPersister creates the on-disk cache rooted at the configured directory.
func newPersister(cfg *appConfig) (*cache.Persister, error) {
	p, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return p, nil
}

// newMirror creates the optional S3 cache mirror. It returns (nil, nil)
// when no bucket is configured, so callers can pass the result straight to
// pipeline.New without a type assertion dance.
func newMirror(cfg *appConfig) (pipeline.Mirror, error) {
	if cfg.S3.Bucket == "" {
		return nil, nil //nolint:nilnil // absent mirror is not an error condition
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config for cache mirror: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)

	return cache.NewS3Mirror(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
}
