package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/resume-reviewer/internal/types"
)

// runRow is the column image of an analysis_runs row. JSONB columns are
// carried as raw bytes.
type runRow struct {
	ThreadID    string
	SourceName  string
	Status      string
	CurrentStep string
	State       []byte
	Summary     []byte
	Violations  []byte
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r *runRow) scanTargets() []any {
	return []any{
		&r.ThreadID, &r.SourceName, &r.Status, &r.CurrentStep, &r.State,
		&r.Summary, &r.Violations, &r.Error, &r.CreatedAt, &r.UpdatedAt,
	}
}

func toRunRow(run *types.Run) (*runRow, error) {
	if run == nil || run.ThreadID == "" {
		return nil, fmt.Errorf("run with thread id is required")
	}

	state, err := json.Marshal(run.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	row := &runRow{
		ThreadID:    run.ThreadID,
		SourceName:  run.SourceName,
		Status:      run.Status,
		CurrentStep: run.CurrentStep,
		State:       state,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
		UpdatedAt:   run.UpdatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}

	if run.Summary != nil {
		if row.Summary, err = json.Marshal(run.Summary); err != nil {
			return nil, fmt.Errorf("failed to marshal summary: %w", err)
		}
	}
	if len(run.Violations) > 0 {
		if row.Violations, err = json.Marshal(run.Violations); err != nil {
			return nil, fmt.Errorf("failed to marshal violations: %w", err)
		}
	}
	return row, nil
}

func (r *runRow) toRun() (*types.Run, error) {
	run := &types.Run{
		ThreadID:    r.ThreadID,
		SourceName:  r.SourceName,
		Status:      r.Status,
		CurrentStep: r.CurrentStep,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	state := types.NewAnalysisState("")
	if err := json.Unmarshal(r.State, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state of %s: %w", r.ThreadID, err)
	}
	run.State = *state

	if len(r.Summary) > 0 {
		run.Summary = &types.ScoreSummary{}
		if err := json.Unmarshal(r.Summary, run.Summary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal summary of %s: %w", r.ThreadID, err)
		}
	}
	if len(r.Violations) > 0 {
		if err := json.Unmarshal(r.Violations, &run.Violations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal violations of %s: %w", r.ThreadID, err)
		}
	}
	return run, nil
}
