package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-reviewer/internal/ingestion"
)

func newExtractCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "extract <resume-file>",
		Short: "Extract and clean the text of a resume without analyzing it",
		Long: `Extracts the text of a PDF, DOCX, PPTX or plain-text resume and normalizes it.
With --out, writes resume.cleaned.txt and resume.meta.json to the directory;
otherwise prints the cleaned text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ingestion.IngestFromFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outDir == "" {
				_, err := fmt.Fprintln(out, doc.Text)
				return err
			}
			if err := ingestion.WriteOutput(outDir, doc); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Extracted %d words, %d characters from %s (%s)\n", doc.Metadata.Words, doc.Metadata.Chars, doc.Metadata.Source, doc.Metadata.Format)
			_, _ = fmt.Fprintf(out, "Wrote resume.cleaned.txt and resume.meta.json to %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
	return cmd
}
