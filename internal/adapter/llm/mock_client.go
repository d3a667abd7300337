package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tourify/guide-api/internal/domain"
)

// MockClient is a mock implementation of LLMClient used in GUIDE_MODE=MOCK and
// in tests. Scripted fields override the canned responses.
type MockClient struct {
	// Responses are returned by CreateChatCompletion in order; the last one repeats.
	Responses []string
	// Fragments are delivered by CreateChatCompletionStream, one chunk each.
	Fragments []string
	// CompleteErr and StreamErr make the respective call fail.
	CompleteErr error
	StreamErr   error
	// StreamErrAfter delivers this many fragments before failing with StreamErr.
	StreamErrAfter int

	mu          sync.Mutex
	requests    []ChatCompletionRequest
	completions int
	streams     int
}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	n := m.completions
	m.completions++
	m.mu.Unlock()

	if m.CompleteErr != nil {
		return nil, m.CompleteErr
	}

	responseContent := m.generateMockResponse(req)
	if len(m.Responses) > 0 {
		responseContent = m.Responses[min(n, len(m.Responses)-1)]
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: &ChatMessage{
					Role:    "assistant",
					Content: responseContent,
				},
				FinishReason: "stop",
			},
		},
		Usage: m.usage(req, responseContent),
	}, nil
}

// CreateChatCompletionStream simulates a streaming response.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) (*Usage, error) {
	m.mu.Lock()
	m.requests = append(m.requests, *req)
	m.streams++
	m.mu.Unlock()

	chunks := m.Fragments
	if chunks == nil {
		chunks = m.splitIntoChunks(m.generateMockResponse(req), 10)
	}
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	var content string
	for i, chunk := range chunks {
		if m.StreamErr != nil && i >= m.StreamErrAfter {
			return nil, m.StreamErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		finishReason := ""
		if i == len(chunks)-1 {
			finishReason = "stop"
		}

		streamChunk := &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{
				{
					Index: 0,
					Delta: &ChatMessage{
						Role:    "assistant",
						Content: chunk,
					},
					FinishReason: finishReason,
				},
			},
		}

		if err := callback(streamChunk); err != nil {
			return nil, err
		}
		content += chunk
	}
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}

	return m.usage(req, content), nil
}

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatCompletionRequest(nil), m.requests...)
}

// CompletionCalls returns the number of non-streaming calls.
func (m *MockClient) CompletionCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completions
}

// StreamCalls returns the number of streaming calls.
func (m *MockClient) StreamCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streams
}

// generateMockResponse returns canned content shaped for the request purpose.
func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	switch domain.LLMPurpose(req.Purpose) {
	case domain.LLMPurposeActivityVerify:
		return "true"
	case domain.LLMPurposeActivity:
		return `{"name":"Mock Walking Tour","start_time":"10:00","end_time":"12:00","price":0,"location":"Old Town","category":"cultural","description":"A relaxed walk through the historic centre."}`
	case domain.LLMPurposeDiscover:
		return "{\"title\":\"Mock Museum\",\"description\":\"A small museum with local history.\"}\n" +
			"{\"title\":\"Mock Market\",\"description\":\"Street food and crafts every weekend.\"}\n"
	case domain.LLMPurposeGuide:
		date := time.Now().Format(domain.DateLayout)
		return `{"itinerary":[{"date":"` + date + `","activities":[` +
			`{"name":"Mock Breakfast","start_time":"09:00","duration":"1 hora","price":"10 EUR","location":"Cafe Central","category":"restaurant","description":"Coffee and pastries."},` +
			`{"name":"Mock Museum","start_time":"10:30","duration":"2 horas","price":"15 EUR","location":"City Museum","category":"cultural","description":"Permanent collection."}]}]}`
	}

	// Get the last user message
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	if lastUserMessage == "" {
		return "[MOCK] This is a mock response from the LLM client."
	}

	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
}

func (m *MockClient) usage(req *ChatCompletionRequest, content string) *Usage {
	prompt := m.estimateTokens(req)
	return &Usage{
		PromptTokens:     prompt,
		CompletionTokens: len(content) / 4,
		TotalTokens:      prompt + len(content)/4,
	}
}

// estimateTokens provides a rough token count estimate.
func (m *MockClient) estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

// splitIntoChunks splits a string into chunks of approximately the given size.
func (m *MockClient) splitIntoChunks(s string, chunkSize int) []string {
	if len(s) == 0 {
		return []string{""}
	}

	var chunks []string
	for i := 0; i < len(s); i += chunkSize {
		end := i + chunkSize
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
