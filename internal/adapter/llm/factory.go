package llm

import "time"

// ModeMock selects the scripted client that needs no provider.
const ModeMock = "MOCK"

// Settings selects and configures the chat completion provider.
type Settings struct {
	Mode    string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewLLMClient returns a MockClient in mock mode and an HTTP client otherwise.
func NewLLMClient(s Settings) LLMClient {
	if s.Mode == ModeMock {
		return NewMockClient()
	}
	return NewClient(s.BaseURL, s.APIKey, s.Timeout)
}
