package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// plainWriter hides the recorder's Flush method
type plainWriter struct{ http.ResponseWriter }

func TestNewSSEWriter_RequiresFlusher(t *testing.T) {
	_, err := NewSSEWriter(plainWriter{httptest.NewRecorder()})
	assert.Error(t, err)
}

func TestSSEWriter_Events(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sse.WriteEvent("progress", map[string]int{"index": 1}))
	sse.WriteError("t1", http.StatusBadGateway, "model down")
	sse.WriteComplete(map[string]string{"status": "completed"})

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: progress\ndata: {\"index\":1}\n\n"+
		"event: error\ndata: {\"error\":\"model down\",\"status\":502,\"thread_id\":\"t1\"}\n\n"+
		"event: complete\ndata: {\"status\":\"completed\"}\n\n", rec.Body.String())
}

func TestSSEWriter_KeepAlive(t *testing.T) {
	rec := httptest.NewRecorder()
	sse, err := NewSSEWriter(rec)
	require.NoError(t, err)

	stop := sse.KeepAlive(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	stop()
	stop()

	body := rec.Body.String()
	assert.Contains(t, body, ": keepalive\n\n")
	n := strings.Count(body, ": keepalive")

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, n, strings.Count(rec.Body.String(), ": keepalive"), "no writes after stop")
}
