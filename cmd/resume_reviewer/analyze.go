package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/ingestion"
	"github.com/jonathan/resume-reviewer/internal/observability"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
	"github.com/jonathan/resume-reviewer/internal/types"
)

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var (
		threadID string
		asJSON   bool
		outDir   string
	)

	cmd := &cobra.Command{
		Use:   "analyze <resume-file>",
		Short: "Run the six-stage analysis on a resume file",
		Long: `Extracts the text of a PDF, DOCX, PPTX or plain-text resume and runs the
analysis: profile extraction, candidate critic and fan, resume-writing critic
and fan, and the neutral judge. Progress is printed per stage and the scored
report at the end.

Interrupting the command stops the run after the stage in flight.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runAnalyze(ctx, cmd, opts, args[0], threadID, asJSON, outDir)
		},
	}

	cmd.Flags().StringVar(&threadID, "thread-id", "", "Thread id to store the run under (default: new UUID)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON instead of the report")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write run.json to")
	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, opts *globalOptions, path, threadID string, asJSON bool, outDir string) error {
	doc, err := ingestion.IngestFromFile(path)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	printer := observability.NewPrinter(out)
	if !asJSON {
		fmt.Fprintf(out, "Analyzing %s (%d characters)\n", doc.Metadata.Source, doc.Metadata.Chars) //nolint:errcheck
	}

	run, runErr := rt.orchestrator.Run(ctx, pipeline.RunOptions{
		ThreadID:   threadID,
		Resume:     doc.Text,
		SourceName: doc.Metadata.Source,
		OnProgress: func(event types.ProgressEvent) {
			if asJSON {
				return
			}
			printer.PrintProgress(event)
			if rt.cfg.Verbose && event.Status == types.StepStatusCompleted && event.Step != "" {
				rt.logger.Debug("stage response", zap.String("step", event.Step), zap.Any("content", event.Content))
			}
		},
	})
	if run == nil {
		return runErr
	}

	if outDir != "" {
		if err := writeRun(outDir, run); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("failed to encode run: %w", err)
		}
	} else {
		fmt.Fprintln(out) //nolint:errcheck
		printer.PrintRun(run)
	}
	return runErr
}

// writeRun writes the run record to outDir/run.json
func writeRun(outDir string, run *types.Run) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	path := filepath.Join(outDir, "run.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
