package types

import (
	"encoding/json"
	"time"
)

// Run status constants
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// Step status constants
const (
	StepStatusPending    = "pending"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
	StepStatusFailed     = "failed"
)

// Step category constants
const (
	StepCategoryProfile   = "profile"
	StepCategoryCandidate = "candidate"
	StepCategoryResume    = "resume"
	StepCategoryScoring   = "scoring"
)

// ScoreSummary holds the display-scaled aggregates of the judge's scores.
type ScoreSummary struct {
	CandidateNegative int     `json:"candidate_negative"`
	CandidatePositive int     `json:"candidate_positive"`
	ResumeNegative    int     `json:"resume_negative"`
	ResumePositive    int     `json:"resume_positive"`
	OverallMatch      float64 `json:"overall_match"`
}

// StepRecord captures one stage execution within a run.
type StepRecord struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts,omitempty"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	DurationMs  int64           `json:"duration_ms,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	// RawResponse keeps the last model output of a failed step, which may not be JSON
	RawResponse string          `json:"raw_response,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Run is the persisted record of one analysis, keyed by ThreadID.
type Run struct {
	ThreadID    string               `json:"thread_id"`
	SourceName  string               `json:"source_name,omitempty"`
	Status      string               `json:"status"`
	CurrentStep string               `json:"current_step,omitempty"`
	Steps       []StepRecord         `json:"steps"`
	State       AnalysisState        `json:"state"`
	Summary     *ScoreSummary        `json:"summary,omitempty"`
	Violations  []AlignmentViolation `json:"violations,omitempty"`
	Error       string               `json:"error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// Complete reports whether every stage finished and the state is final.
func (r *Run) Complete() bool {
	return r != nil && r.Status == RunStatusCompleted
}

// Terminal reports whether the run has stopped for good: completed, failed
// or cancelled. Only a re-run under the same thread id changes it again.
func (r *Run) Terminal() bool {
	if r == nil {
		return false
	}
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// Step returns the record for the named step, or nil.
func (r *Run) Step(name string) *StepRecord {
	for i := range r.Steps {
		if r.Steps[i].Name == name {
			return &r.Steps[i]
		}
	}
	return nil
}

// CompletedSteps returns the names of completed steps in execution order.
func (r *Run) CompletedSteps() []string {
	var names []string
	for _, s := range r.Steps {
		if s.Status == StepStatusCompleted {
			names = append(names, s.Name)
		}
	}
	return names
}

// Clone returns a deep copy so stores never alias caller state.
func (r *Run) Clone() *Run {
	if r == nil {
		return nil
	}
	out := *r
	out.State = *r.State.Clone()
	out.Steps = make([]StepRecord, len(r.Steps))
	for i, s := range r.Steps {
		if s.Response != nil {
			s.Response = append(json.RawMessage(nil), s.Response...)
		}
		out.Steps[i] = s
	}
	if r.Summary != nil {
		summary := *r.Summary
		out.Summary = &summary
	}
	if r.Violations != nil {
		out.Violations = append([]AlignmentViolation(nil), r.Violations...)
	}
	return &out
}

// ProgressEvent is emitted at every stage boundary of a run.
type ProgressEvent struct {
	ThreadID string `json:"thread_id"`
	Step     string `json:"step"`
	Category string `json:"category,omitempty"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Status   string `json:"status"`
	Message  string `json:"message"`
	Content  any    `json:"content,omitempty"`
}
