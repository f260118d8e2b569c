package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "crawler",
	Short:        "Ingests merchant catalogs as outfit posts.",
	Long:         "Without a subcommand crawler behaves like `crawler run`.",
	SilenceUsage: true,
	RunE:         runIngestion,
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the current run; the exit
// status is non-zero when the run could not start or was interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		stop()
		os.Exit(1)
	}
}
