package driven

import (
	"context"

	"github.com/legalese-app/legalese-core/internal/core/domain"
)

// LLMService provides chat-completion capabilities for analysis and chat
type LLMService interface {
	// Complete sends the conversation and returns the full response.
	// With req.JSON set the model is asked for a single JSON object.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)

	// Stream sends the conversation and calls onDelta for each content
	// fragment as it arrives. An error from onDelta aborts the stream.
	// The returned Completion holds the concatenated content.
	Stream(ctx context.Context, req CompletionRequest, onDelta func(delta string) error) (*Completion, error)

	// Model returns the default model name
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the LLM service
	Close() error
}

// CompletionRequest describes one chat-completion call
type CompletionRequest struct {
	// Model overrides the service default when set
	Model       string
	Messages    []domain.ChatMessage
	Temperature float64
	MaxTokens   int
	JSON        bool
}

// Completion is the model's answer
type Completion struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	FinishReason     string
}

// TotalTokens returns prompt plus completion tokens
func (c *Completion) TotalTokens() int {
	return c.PromptTokens + c.CompletionTokens
}
