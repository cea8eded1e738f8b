package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/jonathan/resume-parser/internal/pipeline"
)

// SSE event names
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// ProgressPayload is the data of a progress event
type ProgressPayload struct {
	Stage     string `json:"stage"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer and sends the stream headers
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteProgress sends a stage transition
func (s *SSEWriter) WriteProgress(e pipeline.ProgressEvent) {
	s.WriteEvent(EventProgress, ProgressPayload{ //nolint:errcheck
		Stage:     e.Stage.String(),
		ElapsedMS: e.Elapsed.Milliseconds(),
	})
}

// WriteResult sends the final parse result
func (s *SSEWriter) WriteResult(resp ParseResponse) {
	s.WriteEvent(EventResult, resp) //nolint:errcheck
}

// WriteError sends a terminal error event
func (s *SSEWriter) WriteError(resp ErrorResponse) {
	s.WriteEvent(EventError, resp) //nolint:errcheck
}
