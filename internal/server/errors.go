// Package server provides the HTTP API for running and inspecting resume analyses.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-reviewer/internal/ingestion"
	"github.com/jonathan/resume-reviewer/internal/llm"
	"github.com/jonathan/resume-reviewer/internal/pipeline"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrScoresUnavailable is returned for runs that have no score summary yet
type ErrScoresUnavailable struct {
	ThreadID string
	Status   string
	Reason   string
}

func (e *ErrScoresUnavailable) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("scores unavailable for %s (%s): %s", e.ThreadID, e.Status, e.Reason)
	}
	return fmt.Sprintf("scores unavailable for %s (%s)", e.ThreadID, e.Status)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var extraction *ingestion.ExtractionError
	var unavailable *ErrScoresUnavailable
	var schemaErr *llm.SchemaValidationError
	var apiErr *llm.APICallError

	switch {
	case errors.As(err, &validation), errors.Is(err, pipeline.ErrEmptyResume):
		return http.StatusBadRequest
	case errors.As(err, &extraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrThreadNotFound):
		return http.StatusNotFound
	case errors.As(err, &unavailable), errors.Is(err, pipeline.ErrThreadBusy):
		return http.StatusConflict
	case errors.As(err, &schemaErr), errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
