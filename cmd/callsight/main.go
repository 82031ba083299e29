// Command callsight processes call-center transcripts into tabular records.
//
// The run subcommand reads a workbook of transcripts, runs the extraction
// pipeline, and writes the CSV report. The serve subcommand exposes the run
// database over a small HTTP API for dashboards.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "callsight",
		Short:         "Extract structured records from call-center transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (YAML or JSON)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
