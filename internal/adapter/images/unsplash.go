package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tourify/guide-api/internal/domain"
)

// DefaultUnsplashURL is the public Unsplash API.
const DefaultUnsplashURL = "https://api.unsplash.com"

// Unsplash searches landscape photos on Unsplash.
type Unsplash struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

// NewUnsplash creates an Unsplash searcher.
func NewUnsplash(baseURL, accessKey string) *Unsplash {
	if baseURL == "" {
		baseURL = DefaultUnsplashURL
	}
	return &Unsplash{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		accessKey:  accessKey,
		httpClient: newHTTPClient(),
	}
}

type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns the regular-size URL of the first landscape result.
func (u *Unsplash) Search(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("page", "1")
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("unsplash", resp)
	}

	var result unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Results) == 0 || result.Results[0].URLs.Regular == "" {
		return "", domain.ErrNoImage
	}
	return result.Results[0].URLs.Regular, nil
}
