package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourify/guide-api/internal/domain"
)

func TestUnsplashSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "Lisbon city", r.URL.Query().Get("query"))
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		assert.Equal(t, "Client-ID key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"results":[{"urls":{"regular":"https://images.example/lisbon.jpg"}}]}`)
	}))
	defer server.Close()

	url, err := NewUnsplash(server.URL, "key").Search(context.Background(), "Lisbon city")
	require.NoError(t, err)
	assert.Equal(t, "https://images.example/lisbon.jpg", url)
}

func TestUnsplashNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer server.Close()

	_, err := NewUnsplash(server.URL, "key").Search(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNoImage)
}

func TestUnsplashHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":["OAuth error"]}`)
	}))
	defer server.Close()

	_, err := NewUnsplash(server.URL, "bad").Search(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoImage)
}

func TestTavilySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tv", r.Header.Get("Authorization"))
		var body tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.IncludeImages)
		assert.Contains(t, body.Query, "Museo Sevilla")
		fmt.Fprint(w, `{"images":[{"url":"https://img.example/1.jpg","description":"x"}]}`)
	}))
	defer server.Close()

	url, err := NewTavily(server.URL, "tv").Search(context.Background(), "Museo Sevilla")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/1.jpg", url)
}

func TestTavilyPlainImagesAndEmpty(t *testing.T) {
	var empty atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if empty.Load() {
			fmt.Fprint(w, `{"images":[]}`)
			return
		}
		fmt.Fprint(w, `{"images":["https://img.example/2.jpg"]}`)
	}))
	defer server.Close()

	tv := NewTavily(server.URL, "tv")
	url, err := tv.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/2.jpg", url)

	empty.Store(true)
	_, err = tv.Search(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrNoImage)
}

type countingSearcher struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (c *countingSearcher) Search(_ context.Context, query string) (string, error) {
	c.calls.Add(1)
	time.Sleep(c.delay)
	if c.err != nil {
		return "", c.err
	}
	return "https://img.example/" + query, nil
}

func TestCachedSearcherCachesHits(t *testing.T) {
	next := &countingSearcher{}
	s := NewCachedSearcher(next, NewLocalCache(time.Minute))

	for i := 0; i < 3; i++ {
		url, err := s.Search(context.Background(), "Porto")
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/Porto", url)
	}
	_, err := s.Search(context.Background(), "  porto ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), next.calls.Load())
}

func TestCachedSearcherDoesNotCacheMisses(t *testing.T) {
	next := &countingSearcher{err: domain.ErrNoImage}
	s := NewCachedSearcher(next, NewLocalCache(time.Minute))

	_, err := s.Search(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNoImage)
	_, err = s.Search(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrNoImage)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestCachedSearcherCollapsesConcurrentLookups(t *testing.T) {
	next := &countingSearcher{delay: 50 * time.Millisecond}
	s := NewCachedSearcher(next, NewLocalCache(time.Minute))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Search(context.Background(), "Faro")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, next.calls.Load(), int32(2))
}
