package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/resume-reviewer/internal/schemas"
	"go.uber.org/zap"
)

// CallRequest describes one structured stage call.
type CallRequest struct {
	Template Template
	// Schema names the embedded JSON Schema the response must satisfy
	Schema string
	Vars   map[string]string
}

// CallResult reports how a successful call went.
type CallResult struct {
	// Raw is the cleaned JSON document the model returned
	Raw      string
	Attempts int
}

// Caller renders prompts, invokes the model and enforces the response schema.
type Caller struct {
	Client Client
	// MaxRetries is the number of extra attempts after the first failure
	MaxRetries int
	// Backoff is multiplied by the attempt number before each retry
	Backoff time.Duration
	Logger  *zap.Logger
}

// NewCaller returns a Caller with the default retry bound and backoff.
func NewCaller(client Client, logger *zap.Logger) *Caller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Caller{
		Client:     client,
		MaxRetries: DefaultMaxRetries,
		Backoff:    DefaultRetryBackoff,
		Logger:     logger,
	}
}

// Call runs the request and decodes the validated response into out. out
// must be a pointer pre-populated with the schema defaults; fields absent
// from the response keep those defaults. Schema failures and transport
// failures are retried up to MaxRetries times with the same inputs.
func (c *Caller) Call(ctx context.Context, req CallRequest, out any) (*CallResult, error) {
	instructions, err := schemas.FormatInstructions(req.Schema)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]string, len(req.Vars)+1)
	for k, v := range req.Vars {
		vars[k] = v
	}
	vars[FormatInstructionsVar] = instructions

	system, user, err := req.Template.Render(vars)
	if err != nil {
		return nil, err
	}

	logger := c.logger().With(zap.String("stage", req.Template.Name), zap.String("model", c.Client.Model()))
	maxAttempts := c.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	var lastRaw string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.wait(ctx, attempt-1); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		text, err := c.Client.GenerateJSON(ctx, system, user)
		if err != nil {
			lastErr = err
			logger.Warn("LLM call failed",
				zap.Int("attempt", attempt),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			continue
		}

		raw := CleanJSONBlock(text)
		lastRaw = raw
		if err := schemas.Validate(req.Schema, raw); err != nil {
			lastErr = err
			logger.Warn("LLM response rejected by schema",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		if err := json.Unmarshal([]byte(raw), out); err != nil {
			lastErr = err
			logger.Warn("LLM response could not be decoded",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		logger.Debug("LLM call succeeded",
			zap.Int("attempt", attempt),
			zap.Duration("elapsed", time.Since(start)))
		return &CallResult{Raw: raw, Attempts: attempt}, nil
	}

	return nil, c.failure(req.Template.Name, maxAttempts, lastRaw, lastErr)
}

func (c *Caller) failure(stage string, attempts int, raw string, err error) error {
	var validationErr *schemas.ValidationError
	var loadErr *schemas.SchemaLoadError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &validationErr):
		return &SchemaValidationError{Stage: stage, Attempts: attempts, Raw: raw, Fields: validationErr.Errors, Cause: err}
	case errors.As(err, &loadErr):
		return fmt.Errorf("stage %s: %w", stage, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &SchemaValidationError{Stage: stage, Attempts: attempts, Raw: raw, Cause: err}
	default:
		return &APICallError{Stage: stage, Attempts: attempts, Cause: err}
	}
}

// wait sleeps before retry n, returning early if ctx ends.
func (c *Caller) wait(ctx context.Context, n int) error {
	if c.Backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.Backoff * time.Duration(n))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Caller) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
