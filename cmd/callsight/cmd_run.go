package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/callsight"
	"github.com/brunobiangulo/callsight/extractor"
	"github.com/brunobiangulo/callsight/ingest"
	"github.com/brunobiangulo/callsight/report"
)

func newRunCmd() *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a workbook of transcripts and write the CSV report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			inputs, err := ingest.ReadWorkbook(input)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no transcript rows in %s", input)
			}
			slog.Info("loaded transcripts", "path", input, "calls", len(inputs))

			pipeline, err := callsight.New(cfg)
			if err != nil {
				return err
			}
			defer pipeline.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			records, runErr := pipeline.Run(ctx, inputs)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}

			// Write whatever completed, even on interrupt.
			if len(records) > 0 {
				if err := report.WriteFile(output, records); err != nil {
					return err
				}
			}

			var succeeded, llmFailed, failed int
			for _, r := range records {
				switch r.Result.ExtractionStatus {
				case extractor.StatusSuccess:
					succeeded++
				case extractor.StatusLLMFailed:
					llmFailed++
				default:
					failed++
				}
			}
			slog.Info("run complete",
				"output", output,
				"total", len(records),
				"succeeded", succeeded,
				"llm_failed", llmFailed,
				"failed", failed,
			)

			return runErr
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "transcripts.xlsx", "input workbook path")
	cmd.Flags().StringVarP(&output, "output", "o", "outputs/extracted_calls.csv", "output CSV path")
	return cmd
}
