// Package sink adapts HTTP connections to stream.Sink.
package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/stream"
)

// ErrStreamingUnsupported is returned when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// SSE writes `data: <json>\n\n` frames to an event-stream response.
type SSE struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	gone    <-chan struct{}
	closed  bool
}

// Ensure SSE implements stream.Sink.
var _ stream.Sink = (*SSE)(nil)

// NewSSE writes the event-stream headers and returns a sink for the response.
func NewSSE(c echo.Context) (*SSE, error) {
	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	h := c.Response().Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSE{
		w:       c.Response().Writer,
		flusher: flusher,
		gone:    c.Request().Context().Done(),
	}, nil
}

// WriteFrame encodes v and flushes it as one event.
func (s *SSE) WriteFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.write(data)
}

// WriteDone writes the [DONE] sentinel.
func (s *SSE) WriteDone() error {
	return s.write([]byte(domain.DoneSentinel))
}

func (s *SSE) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return stream.ErrSinkClosed
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close stops further writes. The connection itself ends when the handler returns.
func (s *SSE) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Gone is closed when the request context ends.
func (s *SSE) Gone() <-chan struct{} {
	return s.gone
}
