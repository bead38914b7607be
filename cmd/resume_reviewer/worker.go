package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/notify"
	"github.com/jonathan/resume-reviewer/internal/objectstore"
	"github.com/jonathan/resume-reviewer/internal/worker"
)

func newWorkerCmd(opts *globalOptions) *cobra.Command {
	var (
		workers int
		queue   string
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume analysis jobs from RabbitMQ",
		Long: `Consumes {"thread_id", "object_key", "filename"} jobs from the queue, downloads
each resume from R2, analyzes it and publishes progress to the session_updates
exchange under session.<thread_id>.

Requires AMQP_URL and the R2_* settings.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := newRuntime(ctx, cmd, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg := rt.cfg
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("queue") {
				cfg.Queue = queue
			}
			if cfg.AMQPURL == "" {
				return errors.New("AMQP_URL is required for the worker")
			}
			if !cfg.R2.Enabled() {
				return errors.New("R2_BUCKET and R2 credentials are required for the worker")
			}

			objects, err := objectstore.New(ctx, cfg.R2)
			if err != nil {
				return err
			}
			pub, err := notify.Dial(cfg.AMQPURL, notify.DefaultExchange)
			if err != nil {
				return err
			}
			defer pub.Close()

			rt.logger.Info("starting worker",
				zap.String("queue", cfg.Queue),
				zap.Int("workers", cfg.Workers),
				zap.String("bucket", objects.Bucket()))
			w := worker.New(objects, rt.orchestrator, pub, rt.logger, cfg.Workers)
			return w.Listen(ctx, cfg.AMQPURL, cfg.Queue)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent jobs (default 3)")
	cmd.Flags().StringVar(&queue, "queue", "", "Queue to consume (default sessions)")
	return cmd
}
