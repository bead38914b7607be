// Package worker consumes analysis jobs from RabbitMQ. Each job names a
// resume object in R2; the worker downloads it, runs the pipeline and
// publishes progress updates for the job's thread.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-reviewer/internal/ingestion"
	"github.com/jonathan/resume-reviewer/internal/notify"
	"github.com/jonathan/resume-reviewer/internal/objectstore"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
	"github.com/jonathan/resume-reviewer/internal/scoring"
	"github.com/jonathan/resume-reviewer/internal/types"
)

// DefaultQueue is the durable queue jobs are read from
const DefaultQueue = "sessions"

const downloadAttempts = 3

// Job is the body of a queued message
type Job struct {
	ThreadID  string `json:"thread_id"`
	ObjectKey string `json:"object_key"`
	// Filename selects the extractor; the object key's base name is used when empty
	Filename string `json:"filename,omitempty"`
}

// Downloader fetches resume objects
type Downloader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Runner executes one analysis
type Runner interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (*types.Run, error)
}

// Worker processes jobs with a fixed number of goroutines.
type Worker struct {
	downloader Downloader
	runner     Runner
	publisher  notify.Publisher
	logger     *zap.Logger
	workers    int
	backoff    time.Duration
}

// New creates a worker pool of n goroutines
func New(downloader Downloader, runner Runner, publisher notify.Publisher, logger *zap.Logger, n int) *Worker {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if n <= 0 {
		n = 1
	}
	return &Worker{
		downloader: downloader,
		runner:     runner,
		publisher:  publisher,
		logger:     logger,
		workers:    n,
		backoff:    500 * time.Millisecond,
	}
}

// Listen dials the broker, declares the durable queue and consumes it until
// ctx is cancelled or the broker closes the delivery channel.
func (w *Worker) Listen(ctx context.Context, url, queue string) error {
	if queue == "" {
		queue = DefaultQueue
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("error dialling rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("error connecting to rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("error consuming queue %s: %w", queue, err)
	}

	w.logger.Info("worker listening", zap.String("queue", queue), zap.Int("workers", w.workers))
	return w.Consume(ctx, msgs)
}

// Consume fans deliveries out to the pool and blocks until ctx is done or
// msgs is closed. A failed job never stops the pool.
func (w *Worker) Consume(ctx context.Context, msgs <-chan amqp.Delivery) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range w.workers {
		id := i + 1
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-msgs:
					if !ok {
						return nil
					}
					if err := w.Process(ctx, msg.Body); err != nil {
						w.logger.Error("job failed", zap.Int("worker", id), zap.Error(err))
					}
				}
			}
		})
	}
	return g.Wait()
}

// Process handles one message body and publishes its lifecycle updates.
func (w *Worker) Process(ctx context.Context, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("error unmarshalling message body: %w", err)
	}
	if job.ObjectKey == "" {
		w.publish(job.ThreadID, notify.StatusFailed, "analysis failed: object key is required", nil)
		return errors.New("job has no object key")
	}
	if job.ThreadID == "" {
		job.ThreadID = uuid.NewString()
	}
	if job.Filename == "" {
		job.Filename = path.Base(job.ObjectKey)
	}

	logger := w.logger.With(zap.String("thread_id", job.ThreadID), zap.String("object_key", job.ObjectKey))
	logger.Info("processing job")
	w.publish(job.ThreadID, notify.StatusProcessing, "analysis started", nil)

	run, err := w.analyze(ctx, logger, job)
	var empty *scoring.EmptyScoreSetError
	switch {
	case err == nil:
	case errors.As(err, &empty) && run.Complete():
		// every stage succeeded; only the average is undefined
		w.send(notify.Update{
			ThreadID: job.ThreadID,
			Status:   notify.StatusCompleted,
			Message:  fmt.Sprintf("analysis completed without a score summary: %v", err),
			Error:    run.Error,
		})
		logger.Warn("job completed without a score summary", zap.Error(err))
		return nil
	default:
		w.publish(job.ThreadID, notify.StatusFailed, fmt.Sprintf("analysis failed: %v", err), nil)
		return fmt.Errorf("thread %s: %w", job.ThreadID, err)
	}

	w.publish(job.ThreadID, notify.StatusCompleted, "analysis completed", run.Summary)
	logger.Info("job completed")
	return nil
}

func (w *Worker) analyze(ctx context.Context, logger *zap.Logger, job Job) (*types.Run, error) {
	data, err := w.download(ctx, job.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("file download error: %w", err)
	}

	doc, err := ingestion.IngestBytes(job.Filename, data)
	if err != nil {
		return nil, fmt.Errorf("text extraction error: %w", err)
	}

	return w.runner.Run(ctx, pipeline.RunOptions{
		ThreadID:   job.ThreadID,
		Resume:     doc.Text,
		SourceName: doc.Metadata.Source,
		OnProgress: notify.ProgressFunc(w.publisher, logger),
	})
}

// download retries transient failures with a linear backoff; a missing
// object fails at once
func (w *Worker) download(ctx context.Context, key string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= downloadAttempts; attempt++ {
		data, err := w.downloader.Get(ctx, key)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if errors.Is(err, objectstore.ErrObjectNotFound) || attempt == downloadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.backoff * time.Duration(attempt)):
		}
	}
	return nil, lastErr
}

func (w *Worker) publish(threadID, status, message string, content any) {
	w.send(notify.Update{
		ThreadID: threadID,
		Status:   status,
		Message:  message,
		Content:  content,
	})
}

func (w *Worker) send(u notify.Update) {
	if u.ThreadID == "" {
		return
	}
	if err := w.publisher.Publish(u); err != nil {
		w.logger.Warn("failed to publish update", zap.String("thread_id", u.ThreadID), zap.Error(err))
	}
}
