package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TillBeemelmanns/PDFCompare/pkg/pdfmodel"
	"github.com/TillBeemelmanns/PDFCompare/pkg/refpool"
)

type compareFlags struct {
	refs   []string
	fuzzy  bool
	noSW   bool
	asJSON bool
}

// newCompareCmd runs the full pipeline end-to-end against a target PDF and
// prints the resulting match records.
func newCompareCmd(appFlags *cmdFlags) *cobra.Command {
	flags := &compareFlags{}

	cmd := &cobra.Command{
		Use:   "compare <target.pdf>",
		Short: "Compare a target PDF against the reference pool",
		Long:  "Build the reference-pool index and report which passages of the target PDF overlap with it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, appFlags, flags, args[0])
		},
	}

	cmd.Flags().StringArrayVar(&flags.refs, "refs", nil, "glob pattern for reference PDFs, may be repeated")
	cmd.Flags().BoolVar(&flags.fuzzy, "fuzzy", false, "tolerate single-character token rewrites when seeding")
	cmd.Flags().BoolVar(&flags.noSW, "no-sw", false, "skip Smith-Waterman refinement, reporting raw candidate blocks")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print match records as JSON instead of a table")

	return cmd
}

func runCompare(cmd *cobra.Command, appFlags *cmdFlags, flags *compareFlags, targetPath string) error {
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
	params.SmithWaterman = !flags.noSW

	if flags.fuzzy {
		params.Mode = pdfmodel.ModeFuzzy
	}

	idx, err := p.BuildIndex(cmd.Context(), refPaths, params, progressPrinter(cmd))
	if err != nil {
		return fmt.Errorf("failed to build index: %w", err)
	}

	result, err := p.Compare(cmd.Context(), targetPath, idx, params, progressPrinter(cmd))
	if err != nil {
		return fmt.Errorf("failed to compare target document: %w", err)
	}

	if flags.asJSON {
		return printJSON(cmd, result)
	}

	printTable(cmd, result)

	return nil
}

func printJSON(cmd *cobra.Command, result *pdfmodel.CompareResult) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	return nil
}

func printTable(cmd *cobra.Command, result *pdfmodel.CompareResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%-12s %-36s %8s %8s %10s\n", "REF DOC", "MATCH ID", "T_START", "T_END", "CONFIDENCE") //nolint:forbidigo // CLI output

	for _, m := range result.Matches {
		fmt.Fprintf(out, "%-12s %-36s %8d %8d %10.2f\n", m.RefDoc, m.MatchID, m.TStart, m.TEnd, m.Confidence) //nolint:forbidigo // CLI output
	}

	fmt.Fprintf(out, "\n%d matches across %d reference documents, %d target words\n", //nolint:forbidigo // CLI output
		len(result.Matches), len(result.PerRefScore), result.TargetWordCount)
}
