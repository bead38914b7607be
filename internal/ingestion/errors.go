package ingestion

import "fmt"

// ExtractionError is returned when a resume file cannot be turned into text.
type ExtractionError struct {
	Path   string
	Format string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("failed to extract text from %s: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("failed to extract %s text from %s: %v", e.Format, e.Path, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
