// Package main provides the resume_reviewer CLI: local analyses, the HTTP
// API server and the RabbitMQ worker.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath  string
	apiKey      string
	provider    string
	model       string
	temperature float32
	store       string
	logLevel    string
	logFormat   string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "resume_reviewer",
		Short: "LLM resume analysis",
		Long: `Resume Reviewer extracts a candidate profile from a resume, has critic and fan
reviewers argue the candidate's and the resume's weak and strong points, and
asks a neutral judge to score every point.

Configuration is read from --config (JSON or YAML), then the environment, then flags.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a JSON or YAML config file")
	flags.StringVar(&opts.apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	flags.StringVar(&opts.provider, "provider", "", "LLM provider: gemini or genai")
	flags.StringVar(&opts.model, "model", "", "Model name")
	flags.Float32Var(&opts.temperature, "temperature", 0, "Sampling temperature (0-2)")
	flags.StringVar(&opts.store, "store", "", "Checkpoint store URL: memory://, bolt:///path/runs.db or postgres://...")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Print every stage response")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newExtractCmd(),
		newShowCmd(opts),
		newListCmd(opts),
		newServeCmd(opts),
		newWorkerCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
