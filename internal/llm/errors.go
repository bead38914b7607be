package llm

import (
	"fmt"

	"github.com/jonathan/resume-reviewer/internal/schemas"
)

// SchemaValidationError is returned when the model output is not valid JSON
// or does not conform to the stage schema after every allowed attempt.
type SchemaValidationError struct {
	Stage    string
	Attempts int
	Raw      string
	Fields   []schemas.FieldError
	Cause    error
}

func (e *SchemaValidationError) Error() string {
	msg := fmt.Sprintf("stage %s: response failed schema validation after %d attempt(s)", e.Stage, e.Attempts)
	if len(e.Fields) > 0 {
		f := e.Fields[0]
		msg += fmt.Sprintf(": %s: %s", f.Field, f.Message)
		if len(e.Fields) > 1 {
			msg += fmt.Sprintf(" (and %d more)", len(e.Fields)-1)
		}
	} else if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Cause
}

// APICallError wraps a transport or provider failure of the model call.
type APICallError struct {
	Stage    string
	Attempts int
	Cause    error
}

func (e *APICallError) Error() string {
	return fmt.Sprintf("stage %s: LLM call failed after %d attempt(s): %v", e.Stage, e.Attempts, e.Cause)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}
