package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-reviewer/internal/checkpoint"
	"github.com/jonathan/resume-reviewer/internal/observability"
)

func newShowCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Print a stored analysis without re-running it",
		Long:  `Fetches a checkpointed run from a durable --store (bolt or postgres) and prints its report.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := openStore(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("thread %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}
			observability.NewPrinter(out).PrintRun(run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run as JSON")
	return cmd
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var filter checkpoint.Filter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, store, err := openStore(cmd.Context(), cmd, opts)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "THREAD\tSTATUS\tSOURCE\tMATCH\tCREATED") //nolint:errcheck
			for _, run := range runs {
				match := "-"
				if run.Summary != nil {
					match = fmt.Sprintf("%.2f", run.Summary.OverallMatch)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck
					run.ThreadID, run.Status, run.SourceName, match, run.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&filter.Status, "status", "", "Only list runs with this status")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "Maximum runs to list")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "Runs to skip")
	return cmd
}
