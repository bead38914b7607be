package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/server"
	"github.com/jonathan/resume-reviewer/internal/server/ratelimit"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves the analysis API. Runs are checkpointed to --store, so use a bolt or
postgres store for results that survive a restart.

Authentication is enabled when JWT_SECRET or api_key_hashes is configured.
Rate limits are read from the RATE_LIMIT_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()
			if cmd.Flags().Changed("addr") {
				rt.cfg.Addr = addr
			}

			srv, err := newServer(rt)
			if err != nil {
				return err
			}
			rt.logger.Info("starting server", zap.String("addr", rt.cfg.Addr), zap.String("model", rt.client.Model()))
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default :8080)")
	return cmd
}

func newServer(rt *runtime) (*server.Server, error) {
	cfg := server.Config{
		Addr:      rt.cfg.Addr,
		Analyzer:  rt.orchestrator,
		Logger:    rt.logger,
		RateLimit: ratelimit.LoadConfig(getenv),
	}

	jwtCfg, err := rt.cfg.JWT()
	if err != nil {
		return nil, err
	}
	if jwtCfg != nil {
		cfg.JWT = server.NewJWTService(jwtCfg)
	}
	if len(rt.cfg.APIKeyHashes) > 0 {
		cfg.MatchAPIKey = rt.cfg.MatchAPIKey
	}
	return server.New(cfg)
}

