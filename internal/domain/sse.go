package domain

// DoneSentinel terminates every stream.
const DoneSentinel = "[DONE]"

// ContentEnvelope carries one fragment of LLM output to the client.
type ContentEnvelope struct {
	Content string `json:"content"`
}

// ErrorEnvelope terminates a stream with an error.
type ErrorEnvelope struct {
	Error string `json:"error"`
}

// Suggestion is one discovery item forwarded to the client.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image,omitempty"`
}
