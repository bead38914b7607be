package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// DefaultKeepAlive is how often an idle event stream gets a comment line.
// A single stage can take longer than proxy idle timeouts.
const DefaultKeepAlive = 15 * time.Second

// SSEWriter writes Server-Sent Events. It is safe for concurrent use.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter commits the event-stream headers and a 200 status on w
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends one named event with a JSON payload
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	return s.write("event: %s\ndata: %s\n\n", event, payload)
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(threadID string, status int, message string) {
	s.WriteEvent("error", map[string]any{ //nolint:errcheck
		"thread_id": threadID,
		"status":    status,
		"error":     message,
	})
}

// WriteComplete sends the final event of a stream
func (s *SSEWriter) WriteComplete(data any) {
	s.WriteEvent("complete", data) //nolint:errcheck
}

// KeepAlive writes a comment line every interval until the returned func is
// called. The func blocks until the ticker goroutine has exited.
func (s *SSEWriter) KeepAlive(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := s.write(": keepalive\n\n"); err != nil {
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}

func (s *SSEWriter) write(format string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
