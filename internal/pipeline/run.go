// Package pipeline orchestrates the six-stage resume analysis: profile
// extraction, candidate critique and praise, resume-writing critique and
// praise, and neutral scoring.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-reviewer/internal/checkpoint"
	"github.com/jonathan/resume-reviewer/internal/llm"
	"github.com/jonathan/resume-reviewer/internal/pipeline/steps"
	"github.com/jonathan/resume-reviewer/internal/scoring"
	"github.com/jonathan/resume-reviewer/internal/types"
)

var (
	// ErrEmptyResume is returned when the resume text is blank.
	ErrEmptyResume = errors.New("resume text is empty")
	// ErrThreadNotFound is returned for unknown thread ids.
	ErrThreadNotFound = checkpoint.ErrNotFound
	// ErrThreadBusy is returned when a thread already has a run pending or
	// in progress.
	ErrThreadBusy = errors.New("thread already has an analysis in progress")
)

// StageError reports the stage that stopped a run and its last raw response.
type StageError struct {
	Step     string
	Raw      string
	Attempts int
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempt(s): %v", e.Step, e.Attempts, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ProgressCallback is called at every stage boundary
type ProgressCallback func(event types.ProgressEvent)

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Client llm.Client
	// Store defaults to an in-memory store
	Store  checkpoint.Store
	Logger *zap.Logger
	// MaxRetries is the number of extra attempts per stage; 0 keeps the
	// default and a negative value disables retries
	MaxRetries   int
	RetryBackoff time.Duration
}

// RunOptions holds the inputs of a single analysis
type RunOptions struct {
	// ThreadID identifies the run; a new UUID is used when empty
	ThreadID   string
	Resume     string
	SourceName string
	OnProgress ProgressCallback
}

// judgeContent is the progress payload of the scoring stage
type judgeContent struct {
	Scores     *types.JudgeScores         `json:"scores"`
	Violations []types.AlignmentViolation `json:"violations,omitempty"`
}

// Orchestrator runs the stages strictly in order and checkpoints after each.
type Orchestrator struct {
	caller *llm.Caller
	store  checkpoint.Store
	logger *zap.Logger
	stages []Stage
	now    func() time.Time

	mu sync.Mutex
	// active holds the thread ids this process is running; true marks a
	// thread reserved by Prepare that Run has not picked up yet
	active map[string]bool
}

// NewOrchestrator validates deps and loads the stage prompts.
func NewOrchestrator(deps Dependencies) (*Orchestrator, error) {
	if deps.Client == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := deps.Store
	if store == nil {
		store = checkpoint.NewMemoryStore()
	}

	stages, err := LoadStages()
	if err != nil {
		return nil, err
	}

	caller := llm.NewCaller(deps.Client, logger)
	switch {
	case deps.MaxRetries < 0:
		caller.MaxRetries = 0
	case deps.MaxRetries > 0:
		caller.MaxRetries = deps.MaxRetries
	}
	if deps.RetryBackoff != 0 {
		caller.Backoff = max(deps.RetryBackoff, 0)
	}

	return &Orchestrator{
		caller: caller,
		store:  store,
		logger: logger,
		stages: stages,
		now:    func() time.Time { return time.Now().UTC() },
		active: make(map[string]bool),
	}, nil
}

// Prepare reserves a thread for a later Run and persists it as pending, so
// the thread can be fetched before its first stage starts. The returned
// options carry the assigned thread id and must be passed to Run.
func (o *Orchestrator) Prepare(ctx context.Context, opts RunOptions) (RunOptions, error) {
	if strings.TrimSpace(opts.Resume) == "" {
		return opts, ErrEmptyResume
	}
	if opts.ThreadID == "" {
		opts.ThreadID = uuid.NewString()
	}
	if err := o.claim(ctx, opts.ThreadID, true); err != nil {
		return opts, err
	}
	run := o.newRun(opts, types.RunStatusPending)
	if err := o.store.Put(context.WithoutCancel(ctx), run); err != nil {
		o.release(opts.ThreadID)
		return opts, fmt.Errorf("failed to create thread %s: %w", opts.ThreadID, err)
	}
	return opts, nil
}

// Run executes every stage over a fresh state. The returned run reflects the
// final persisted record, including on failure or cancellation. Cancellation
// is observed between stages only; a stage call in flight is finished.
//
// A run whose stages all succeed but whose score set is empty is still
// completed: it is returned together with a *scoring.EmptyScoreSetError and
// carries no summary.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*types.Run, error) {
	if strings.TrimSpace(opts.Resume) == "" {
		return nil, ErrEmptyResume
	}

	threadID := opts.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
		opts.ThreadID = threadID
	}
	if err := o.claim(ctx, threadID, false); err != nil {
		return nil, err
	}
	defer o.release(threadID)
	logger := o.logger.With(zap.String("thread_id", threadID))

	run := o.newRun(opts, types.RunStatusRunning)
	if err := o.store.Put(context.WithoutCancel(ctx), run); err != nil {
		return nil, fmt.Errorf("failed to create thread %s: %w", threadID, err)
	}
	logger.Info("analysis started", zap.Int("resume_chars", len(opts.Resume)))

	total := len(o.stages)
	for i, stage := range o.stages {
		name := stage.Def.Name
		event := types.ProgressEvent{
			ThreadID: threadID,
			Step:     name,
			Category: stage.Def.Category,
			Index:    i + 1,
			Total:    total,
		}

		if err := ctx.Err(); err != nil {
			run.Status = types.RunStatusCancelled
			run.Error = err.Error()
			o.save(ctx, logger, run)
			logger.Info("analysis cancelled", zap.String("next_step", name))
			event.Status = types.RunStatusCancelled
			event.Message = fmt.Sprintf("Cancelled before %s", name)
			emit(opts.OnProgress, event)
			return run, err
		}

		if err := steps.ValidateDependencies(run.CompletedSteps(), name); err != nil {
			return o.fail(ctx, logger, run, i, opts.OnProgress, event, &StageError{Step: name, Err: err})
		}

		rec := &run.Steps[i]
		started := o.now()
		rec.Status = types.StepStatusInProgress
		rec.StartedAt = &started
		run.CurrentStep = name
		o.save(ctx, logger, run)

		event.Status = types.StepStatusInProgress
		event.Message = stage.Def.Title
		emit(opts.OnProgress, event)

		partial, result, err := stage.Execute(context.WithoutCancel(ctx), o.caller, &run.State)
		completed := o.now()
		rec.CompletedAt = &completed
		rec.DurationMs = completed.Sub(started).Milliseconds()
		if err != nil {
			return o.fail(ctx, logger, run, i, opts.OnProgress, event, stageError(name, err))
		}

		rec.Status = types.StepStatusCompleted
		rec.Attempts = result.Attempts
		payload := partial.Payload()
		if data, err := json.Marshal(payload); err == nil {
			rec.Response = data
		}

		event.Status = types.StepStatusCompleted
		event.Message = fmt.Sprintf("Completed %s", name)
		event.Content = payload

		if partial.Kind == types.KindJudgeScores {
			run.Violations = run.State.CheckAlignment()
			for _, v := range run.Violations {
				logger.Warn("score list misaligned with its points",
					zap.String("points", v.Points),
					zap.Int("point_count", v.PointCount),
					zap.Int("score_count", v.ScoreCount))
			}
			if len(run.Violations) > 0 {
				event.Message = fmt.Sprintf("Completed %s with %d alignment violation(s)", name, len(run.Violations))
			}
			event.Content = judgeContent{Scores: partial.JudgeScores, Violations: run.Violations}
		}

		o.save(ctx, logger, run)
		logger.Info("stage completed",
			zap.String("step", name),
			zap.Int("attempts", result.Attempts),
			zap.Int64("duration_ms", rec.DurationMs))
		emit(opts.OnProgress, event)
	}

	summary, scoreErr := scoring.Summarize(&run.State)
	if scoreErr != nil {
		// An empty set has no defined average; report it instead of a zero
		run.Error = scoreErr.Error()
		logger.Warn("score summary unavailable", zap.Error(scoreErr))
	} else {
		run.Summary = summary
	}

	run.Status = types.RunStatusCompleted
	run.CurrentStep = ""
	o.save(ctx, logger, run)
	logger.Info("analysis completed", zap.Int("violations", len(run.Violations)))

	final := types.ProgressEvent{
		ThreadID: threadID,
		Index:    total,
		Total:    total,
		Status:   types.RunStatusCompleted,
		Message:  "Analysis complete",
	}
	if run.Summary != nil {
		final.Content = run.Summary
	} else {
		final.Message = fmt.Sprintf("Analysis complete: %s", run.Error)
	}
	emit(opts.OnProgress, final)
	return run, scoreErr
}

// newRun builds the initial record of a thread with every step pending.
func (o *Orchestrator) newRun(opts RunOptions, status string) *types.Run {
	now := o.now()
	run := &types.Run{
		ThreadID:   opts.ThreadID,
		SourceName: opts.SourceName,
		Status:     status,
		State:      *types.NewAnalysisState(opts.Resume),
		Steps:      make([]types.StepRecord, len(o.stages)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i, stage := range o.stages {
		run.Steps[i] = types.StepRecord{
			Name:     stage.Def.Name,
			Category: stage.Def.Category,
			Status:   types.StepStatusPending,
		}
	}
	return run
}

// claim marks threadID active in this process. A thread reserved by Prepare
// is handed over to Run; any other active thread, or one persisted by
// another process as pending or running, is busy.
func (o *Orchestrator) claim(ctx context.Context, threadID string, reserve bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	reserved, ok := o.active[threadID]
	if ok {
		if reserved && !reserve {
			o.active[threadID] = false
			return nil
		}
		return fmt.Errorf("%w: %s", ErrThreadBusy, threadID)
	}
	existing, err := o.store.Get(context.WithoutCancel(ctx), threadID)
	if err != nil {
		return err
	}
	if existing != nil && !existing.Terminal() {
		return fmt.Errorf("%w: %s", ErrThreadBusy, threadID)
	}
	o.active[threadID] = reserve
	return nil
}

func (o *Orchestrator) release(threadID string) {
	o.mu.Lock()
	delete(o.active, threadID)
	o.mu.Unlock()
}

// fail marks step i and the run failed and persists the record.
func (o *Orchestrator) fail(ctx context.Context, logger *zap.Logger, run *types.Run, i int, cb ProgressCallback, event types.ProgressEvent, stageErr *StageError) (*types.Run, error) {
	rec := &run.Steps[i]
	rec.Status = types.StepStatusFailed
	rec.Attempts = stageErr.Attempts
	rec.RawResponse = stageErr.Raw
	rec.Error = stageErr.Err.Error()

	run.Status = types.RunStatusFailed
	run.Error = stageErr.Error()
	o.save(ctx, logger, run)

	logger.Error("stage failed",
		zap.String("step", stageErr.Step),
		zap.Int("attempts", stageErr.Attempts),
		zap.Error(stageErr.Err))

	event.Status = types.StepStatusFailed
	event.Message = stageErr.Error()
	emit(cb, event)
	return run, stageErr
}

// stageError extracts the attempt count and raw response from a call error.
func stageError(step string, err error) *StageError {
	se := &StageError{Step: step, Err: err}
	var schemaErr *llm.SchemaValidationError
	var apiErr *llm.APICallError
	switch {
	case errors.As(err, &schemaErr):
		se.Raw = schemaErr.Raw
		se.Attempts = schemaErr.Attempts
	case errors.As(err, &apiErr):
		se.Attempts = apiErr.Attempts
	}
	return se
}

// save checkpoints the run; failures are logged and the run continues.
func (o *Orchestrator) save(ctx context.Context, logger *zap.Logger, run *types.Run) {
	run.UpdatedAt = o.now()
	if err := o.store.Put(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("failed to checkpoint run", zap.Error(err))
	}
}

func emit(cb ProgressCallback, event types.ProgressEvent) {
	if cb != nil {
		cb(event)
	}
}

// Get re-fetches a persisted run without re-running any stage.
func (o *Orchestrator) Get(ctx context.Context, threadID string) (*types.Run, error) {
	run, err := o.store.Get(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	return run, nil
}

// List returns persisted runs newest first.
func (o *Orchestrator) List(ctx context.Context, filter checkpoint.Filter) ([]*types.Run, error) {
	return o.store.List(ctx, filter)
}

// Delete removes a persisted run.
func (o *Orchestrator) Delete(ctx context.Context, threadID string) error {
	if err := o.store.Delete(ctx, threadID); err != nil {
		if errors.Is(err, checkpoint.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
		}
		return err
	}
	return nil
}

// Stages returns the loaded stages in execution order.
func (o *Orchestrator) Stages() []Stage {
	return append([]Stage(nil), o.stages...)
}
