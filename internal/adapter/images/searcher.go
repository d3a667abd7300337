// Package images finds photos for cities and activities.
package images

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Searcher returns one image URL for a query, or domain.ErrNoImage.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

const defaultTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func statusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s API error [%d]: %s", provider, resp.StatusCode, string(body))
}
