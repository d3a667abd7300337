package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tourify/guide-api/internal/domain"
)

// DefaultTavilyURL is the public Tavily API.
const DefaultTavilyURL = "https://api.tavily.com"

// Tavily searches web images through the Tavily search API.
type Tavily struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewTavily creates a Tavily searcher.
func NewTavily(baseURL, apiKey string) *Tavily {
	if baseURL == "" {
		baseURL = DefaultTavilyURL
	}
	return &Tavily{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: newHTTPClient(),
	}
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeImages bool   `json:"include_images"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResponse struct {
	Images []json.RawMessage `json:"images"`
}

// Search returns the first image for a landmark-style photo query.
func (t *Tavily) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:         query + " tourism landmark photo rectangular horizontal",
		SearchDepth:   "basic",
		IncludeImages: true,
		MaxResults:    1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("tavily", resp)
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	for _, raw := range result.Images {
		if u := imageURL(raw); u != "" {
			return u, nil
		}
	}
	return "", domain.ErrNoImage
}

// imageURL accepts both the plain string and the {"url": ...} image shapes.
func imageURL(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.URL
	}
	return ""
}
