package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(s *Stream) string {
	var b strings.Builder
	for f := range s.Fragments() {
		b.WriteString(f)
	}
	return b.String()
}

func TestStreamDeliversFragmentsInOrder(t *testing.T) {
	mock := &MockClient{Fragments: []string{"a", "", "b", "c"}}
	s := OpenStream(context.Background(), mock, &ChatCompletionRequest{Model: "m"})
	defer s.Close()

	assert.Equal(t, "abc", collect(s))
	require.NoError(t, s.Err())
	assert.Equal(t, "m", s.Model())
	assert.NotNil(t, s.Usage())
}

func TestStreamSurfacesProviderError(t *testing.T) {
	boom := errors.New("boom")
	mock := &MockClient{Fragments: []string{"a", "b"}, StreamErr: boom, StreamErrAfter: 1}
	s := OpenStream(context.Background(), mock, &ChatCompletionRequest{})
	defer s.Close()

	assert.Equal(t, "a", collect(s))
	assert.ErrorIs(t, s.Err(), boom)
}

func TestStreamCloseReleasesProducer(t *testing.T) {
	mock := &MockClient{Fragments: []string{"a", "b", "c", "d"}}
	s := OpenStream(context.Background(), mock, &ChatCompletionRequest{})

	first := <-s.Fragments()
	assert.Equal(t, "a", first)

	s.Close()
	s.Close()
	assert.ErrorIs(t, s.Err(), context.Canceled)
}
