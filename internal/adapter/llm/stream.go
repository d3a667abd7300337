package llm

import (
	"context"
	"sync"
)

// Stream is a pull-based view of a streaming completion. Fragments arrive on
// a channel in provider order; the channel closes when the provider finishes,
// fails, or the stream is closed.
type Stream struct {
	fragments chan string
	done      chan struct{}
	cancel    context.CancelFunc
	closeOnce sync.Once

	// written by the producer goroutine before done is closed
	err   error
	usage *Usage
	model string
}

// OpenStream starts a streaming completion and returns immediately.
func OpenStream(ctx context.Context, client LLMClient, req *ChatCompletionRequest) *Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		fragments: make(chan string),
		done:      make(chan struct{}),
		cancel:    cancel,
	}

	go func() {
		defer close(s.done)
		defer close(s.fragments)

		usage, err := client.CreateChatCompletionStream(ctx, req, func(chunk *StreamChunk) error {
			if s.model == "" && chunk.Model != "" {
				s.model = chunk.Model
			}
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta == nil {
				return nil
			}
			content := chunk.Choices[0].Delta.Content
			if content == "" {
				return nil
			}
			select {
			case s.fragments <- content:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		s.usage = usage
		s.err = err
	}()

	return s
}

// Fragments returns the channel of text fragments.
func (s *Stream) Fragments() <-chan string {
	return s.fragments
}

// Err blocks until the provider call returned and reports its error.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// Usage blocks until the provider call returned and reports token usage, if any.
func (s *Stream) Usage() *Usage {
	<-s.done
	return s.usage
}

// Model blocks until the provider call returned and reports the responding model.
func (s *Stream) Model() string {
	<-s.done
	return s.model
}

// Close cancels the upstream subscription and waits for it to be released.
// It is safe to call more than once.
func (s *Stream) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		for range s.fragments {
		}
		<-s.done
	})
}
