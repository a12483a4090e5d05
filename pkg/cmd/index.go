package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
	"github.com/TillBeemelmanns/PDFCompare/pkg/refpool"
)

type indexFlags struct {
	refs     []string
	seedSize int
}

// newIndexCmd builds the reference-pool index standalone and reports the
// document count once done, persisting every parsed document via the cache
// (and optional S3 mirror) so a later `compare` run skips re-parsing.
func newIndexCmd(appFlags *cmdFlags) *cobra.Command {
	flags := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the reference-pool index",
		Long:  "Extract, normalise, and cache every PDF matching --refs, populating the on-disk (and optional S3) cache ahead of a compare run.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd, appFlags, flags)
		},
	}

	cmd.Flags().StringArrayVar(&flags.refs, "refs", nil, "glob pattern for reference PDFs, may be repeated")
	cmd.Flags().IntVar(&flags.seedSize, "seed-size", pdfmodel.DefaultParams().SeedSize, "n-gram size used to seed the index")

	return cmd
}

func runIndex(cmd *cobra.Command, appFlags *cmdFlags, flags *indexFlags) error {
	if err := initLogger(appFlags); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	cfg, err := loadConfig(appFlags)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	refPaths, err := refpool.Expand(flags.refs)
	if err != nil {
		return fmt.Errorf("failed to expand reference patterns: %w", err)
	}

	if len(refPaths) == 0 {
		return pdfmodel.NewFatal(pdfmodel.FatalEmptyPool, "no files matched --refs")
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	params := pdfmodel.DefaultParams()
	params.SeedSize = flags.seedSize

	idx, err := p.BuildIndex(cmd.Context(), refPaths, params, progressPrinter(cmd))
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d reference documents\n", idx.DocCount()) //nolint:forbidigo // CLI output is intentional

	return nil
}

// progressPrinter returns a ProgressFunc that writes one line per event to
// the command's output stream, for interactive use.
func progressPrinter(cmd *cobra.Command) pdfmodel.ProgressFunc {
	return func(ev pdfmodel.ProgressEvent) {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (%d/%d)\n", ev.Phase, ev.Message, ev.Current, ev.Total)
	}
}
