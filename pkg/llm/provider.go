package llm

import "context"

// Provider defines the interface for streaming LLM backends.
// Implementations handle protocol-specific details such as request
// formatting, authentication, and delta decoding.
type Provider interface {
	// Stream opens a streamed completion request and returns a channel of
	// increments. The channel is closed when the stream is exhausted or
	// the context is cancelled; a terminal failure arrives as a final
	// increment with Err set. Cancelling ctx aborts the request.
	Stream(ctx context.Context, messages []Message, tools []Tool) (<-chan Increment, error)
}

// Config holds common configuration for LLM providers.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}
