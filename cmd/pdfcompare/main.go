// Command pdfcompare is the CLI entrypoint: it wires cmd.InitCommand and
// executes it, propagating signal-driven cancellation to the root context.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TillBeemelmanns/PDFCompare/pkg/cmd"
)

// version and appName are injected at build time via -ldflags.
var (
	version = "dev"
	appName = "pdfcompare"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cmd.InitCommand(cmd.BuildInfo{Version: version, AppName: appName})

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err) //nolint:forbidigo // CLI error output

		os.Exit(1)
	}
}
