package cmd

import (
	"context"
	"fmt"

	"github.com/TillBeemelmanns/PDFCompare/pkg/api"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfword"
	"github.com/TillBeemelmanns/PDFCompare/pkg/pipeline"
)

// RunCommand initializes the logger, loads configuration, creates the
// pipeline and API services, and starts the API service. It returns an
// error if any step fails.
func RunCommand(ctx context.Context, flags *cmdFlags) error {
	if err := initLogger(flags); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	apiSvc, err := api.New(cfg.API, p)
	if err != nil {
		return fmt.Errorf("failed to create API service: %w", err)
	}

	if err := apiSvc.Run(ctx); err != nil {
		return fmt.Errorf("failed to run API service: %w", err)
	}

	return nil
}

// newPipeline assembles a pipeline.Pipeline from configuration: a real
// PDF extractor, an on-disk cache, and an optional S3 mirror.
func newPipeline(cfg *appConfig) (*pipeline.Pipeline, error) {
	persister, err := newPersister(cfg)
	if err != nil {
		return nil, err
	}

	m, err := newMirror(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pdfword.NewUniPDFExtractor(), persister, m), nil
}
