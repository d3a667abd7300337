// Package stream relays LLM fragments to a client connection.
package stream

import "errors"

var (
	// ErrClientGone is returned when the client disconnected before the stream ended.
	ErrClientGone = errors.New("client disconnected")
	// ErrMaxDuration is returned when the stream outlived Options.MaxDuration.
	ErrMaxDuration = errors.New("stream exceeded maximum duration")
	// ErrSinkClosed is returned by a Sink written after Close.
	ErrSinkClosed = errors.New("sink closed")
)

// Sink is an outbound client connection that carries framed JSON.
// Implementations must make Close idempotent and fail writes after Close.
type Sink interface {
	// WriteFrame encodes v as one frame and flushes it.
	WriteFrame(v any) error
	// WriteDone writes the terminal [DONE] frame.
	WriteDone() error
	// Close releases the connection.
	Close() error
	// Gone is closed when the client went away.
	Gone() <-chan struct{}
}
