package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-reviewer/internal/ingestion"
	"github.com/jonathan/resume-reviewer/internal/llm"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "file", Message: "is required"}
	assert.Equal(t, "validation error: file - is required", err.Error())
}

func TestErrScoresUnavailable(t *testing.T) {
	assert.Equal(t, "scores unavailable for t (running)",
		(&ErrScoresUnavailable{ThreadID: "t", Status: "running"}).Error())
	assert.Equal(t, "scores unavailable for t (completed): empty score set",
		(&ErrScoresUnavailable{ThreadID: "t", Status: "completed", Reason: "empty score set"}).Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", &ErrValidation{Field: "file"}, http.StatusBadRequest},
		{"empty resume", pipeline.ErrEmptyResume, http.StatusBadRequest},
		{"extraction", &ingestion.ExtractionError{Path: "a.pdf", Cause: ingestion.ErrEmptyText}, http.StatusUnprocessableEntity},
		{"unknown thread", fmt.Errorf("%w: abc", pipeline.ErrThreadNotFound), http.StatusNotFound},
		{"no scores", &ErrScoresUnavailable{ThreadID: "t"}, http.StatusConflict},
		{"thread busy", fmt.Errorf("%w: t", pipeline.ErrThreadBusy), http.StatusConflict},
		{"stage schema failure", &pipeline.StageError{Step: "neutral_judge",
			Err: &llm.SchemaValidationError{Attempts: 3}}, http.StatusBadGateway},
		{"stage api failure", &pipeline.StageError{Step: "candidate_fan",
			Err: &llm.APICallError{Attempts: 3, Cause: errors.New("503")}}, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
