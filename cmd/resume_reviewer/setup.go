package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/checkpoint"
	"github.com/jonathan/resume-reviewer/internal/config"
	"github.com/jonathan/resume-reviewer/internal/llm"
	"github.com/jonathan/resume-reviewer/internal/logging"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
)

// newLLMClient is replaced in tests
var newLLMClient = llm.NewClient

// getenv is replaced in tests
var getenv = os.Getenv

// loadConfig merges the config file, the environment and explicitly set
// flags, fills defaults and validates the result.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	var cfg config.Config
	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("api-key", &cfg.APIKey, opts.apiKey)
	override("provider", &cfg.Provider, opts.provider)
	override("model", &cfg.Model, opts.model)
	override("store", &cfg.Store, opts.store)
	override("log-level", &cfg.LogLevel, opts.logLevel)
	override("log-format", &cfg.LogFormat, opts.logFormat)
	if flags.Changed("temperature") {
		t := opts.temperature
		cfg.Temperature = &t
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// newLogger builds the logger for cfg; verbose output lowers the level to debug
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if cfg.Verbose {
		level = "debug"
	}
	return logging.New(level, cfg.LogFormat)
}

// runtime bundles what the analysis commands share
type runtime struct {
	cfg          *config.Config
	logger       *zap.Logger
	store        checkpoint.Store
	orchestrator *pipeline.Orchestrator
	client       llm.Client
}

func (r *runtime) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
	_ = r.logger.Sync()
}

// openStore opens the checkpoint store alone, for commands that never call the model
func openStore(ctx context.Context, cmd *cobra.Command, opts *globalOptions) (*config.Config, checkpoint.Store, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, err
	}
	store, err := checkpoint.Open(ctx, cfg.Store)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return cfg, store, nil
}

// newRuntime loads config and wires the model client, store and orchestrator.
func newRuntime(ctx context.Context, cmd *cobra.Command, opts *globalOptions) (*runtime, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger}

	if cfg.APIKey == "" && !(cfg.Provider == string(llm.ProviderGenAI) && cfg.Project != "") {
		rt.Close()
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}
	rt.client, err = newLLMClient(ctx, cfg.LLMConfig(), cfg.APIKey)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	rt.store, err = checkpoint.Open(ctx, cfg.Store)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	rt.orchestrator, err = pipeline.NewOrchestrator(pipeline.Dependencies{
		Client:       rt.client,
		Store:        rt.store,
		Logger:       logger,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff(),
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	logger.Debug("runtime ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", rt.client.Model()),
		zap.String("store", storeScheme(cfg.Store)))
	return rt, nil
}

// storeScheme hides credentials in store URLs for logs
func storeScheme(url string) string {
	if i := strings.Index(url, "://"); i >= 0 {
		return url[:i]
	}
	return url
}
