package llm

import "context"

// Provider defines the interface for generative text providers. The playlist
// analyzer treats the response as opaque text; any structure inside it is the
// caller's problem to parse.
type Provider interface {
	// Complete sends a one-shot prompt and returns the raw text output
	Complete(ctx context.Context, request *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// CompletionRequest contains all parameters needed for one completion
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
}

// CompletionResponse contains the result from the provider
type CompletionResponse struct {
	Text         string `json:"text"`
	TotalTokens  int    `json:"total_tokens"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}
