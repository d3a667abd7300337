package stream

import (
	"context"
	"strings"
	"time"

	"github.com/tourify/guide-api/internal/adapter/llm"
	"github.com/tourify/guide-api/internal/domain"
)

// Options tune a relay.
type Options struct {
	// MaxDuration aborts the upstream stream with an error frame; zero disables it.
	MaxDuration time.Duration
	// ErrorMessage renders an upstream failure for the client. Defaults to err.Error().
	ErrorMessage func(error) string
	// MaxFrames stops a line relay after this many forwarded frames; zero means unbounded.
	MaxFrames int
}

func (o Options) errorMessage(err error) string {
	if o.ErrorMessage != nil {
		return o.ErrorMessage(err)
	}
	return err.Error()
}

// Result describes what a relay consumed and delivered.
type Result struct {
	// Buffer is the concatenation of every fragment received, in order.
	Buffer string
	// Fragments is the number of fragments received.
	Fragments int
	// Frames is the number of data frames written to the sink.
	Frames int
	// Disconnected is set when the client went away before the end.
	Disconnected bool
}

// LineFunc turns one complete line into a frame. ok=false skips the line.
type LineFunc func(ctx context.Context, line string) (frame any, ok bool)

// Relay forwards every fragment as a {"content"} frame, immediately and in
// order. The stream ends with [DONE] on success or one {"error"} frame on
// failure. The sink is closed exactly once and the upstream is always released.
func Relay(ctx context.Context, src *llm.Stream, sink Sink, opts Options) (Result, error) {
	return relay(ctx, src, sink, opts, contentFramer{})
}

// RelayLines forwards one frame per complete line of output, as produced by fn.
func RelayLines(ctx context.Context, src *llm.Stream, sink Sink, opts Options, fn LineFunc) (Result, error) {
	return relay(ctx, src, sink, opts, &lineFramer{fn: fn})
}

type framer interface {
	frames(ctx context.Context, fragment string) []any
	flush(ctx context.Context) []any
}

type contentFramer struct{}

func (contentFramer) frames(_ context.Context, fragment string) []any {
	return []any{domain.ContentEnvelope{Content: fragment}}
}

func (contentFramer) flush(context.Context) []any { return nil }

type lineFramer struct {
	fn    LineFunc
	lines LineSplitter
}

func (f *lineFramer) frames(ctx context.Context, fragment string) []any {
	var out []any
	for _, line := range f.lines.Push(fragment) {
		if frame, ok := f.fn(ctx, line); ok {
			out = append(out, frame)
		}
	}
	return out
}

func (f *lineFramer) flush(ctx context.Context) []any {
	line, ok := f.lines.Flush()
	if !ok {
		return nil
	}
	if frame, ok := f.fn(ctx, line); ok {
		return []any{frame}
	}
	return nil
}

func relay(ctx context.Context, src *llm.Stream, sink Sink, opts Options, fr framer) (res Result, err error) {
	defer src.Close()
	defer sink.Close()

	var deadline <-chan time.Time
	if opts.MaxDuration > 0 {
		timer := time.NewTimer(opts.MaxDuration)
		defer timer.Stop()
		deadline = timer.C
	}

	var buf strings.Builder
	defer func() { res.Buffer = buf.String() }()

	// write forwards frames until the frame cap; reports false when the relay must stop.
	write := func(frames []any) (bool, error) {
		for _, f := range frames {
			if err := sink.WriteFrame(f); err != nil {
				res.Disconnected = true
				return false, ErrClientGone
			}
			res.Frames++
			if opts.MaxFrames > 0 && res.Frames >= opts.MaxFrames {
				return false, nil
			}
		}
		return true, nil
	}

	fragments := src.Fragments()
loop:
	for {
		select {
		case fragment, ok := <-fragments:
			if !ok {
				break loop
			}
			buf.WriteString(fragment)
			res.Fragments++
			more, err := write(fr.frames(ctx, fragment))
			if err != nil {
				return res, err
			}
			if !more {
				return res, finish(sink, &res)
			}
		case <-sink.Gone():
			res.Disconnected = true
			return res, ErrClientGone
		case <-ctx.Done():
			res.Disconnected = true
			return res, ErrClientGone
		case <-deadline:
			src.Close()
			if werr := sink.WriteFrame(domain.ErrorEnvelope{Error: opts.errorMessage(ErrMaxDuration)}); werr != nil {
				res.Disconnected = true
			}
			return res, ErrMaxDuration
		}
	}

	if ctx.Err() != nil {
		res.Disconnected = true
		return res, ErrClientGone
	}
	if upstreamErr := src.Err(); upstreamErr != nil {
		upstreamErr = domain.NewUpstreamError("llm", upstreamErr)
		if werr := sink.WriteFrame(domain.ErrorEnvelope{Error: opts.errorMessage(upstreamErr)}); werr != nil {
			res.Disconnected = true
		}
		return res, upstreamErr
	}

	if _, err := write(fr.flush(ctx)); err != nil {
		return res, err
	}
	return res, finish(sink, &res)
}

func finish(sink Sink, res *Result) error {
	if err := sink.WriteDone(); err != nil {
		res.Disconnected = true
		return ErrClientGone
	}
	return nil
}
