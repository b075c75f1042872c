package llm

import (
	"context"
	"time"

	"github.com/oratio-labs/oratio-svc/types"
)

// ChatRequest is a single chat-completion invocation. Messages are sent
// in order; the last message is expected to be the current user turn.
type ChatRequest struct {
	Model       string          `json:"model,omitempty"`
	Messages    []types.Message `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float32         `json:"temperature,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

// ChatUsage reports token consumption for one completion.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse is the full completion returned by blocking generation.
type ChatResponse struct {
	ID           string    `json:"id,omitempty"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model"`
	Content      string    `json:"content"`
	FinishReason string    `json:"finish_reason,omitempty"`
	Usage        ChatUsage `json:"usage,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// StreamChunk is one incremental fragment of a streaming completion.
// Providers must not emit chunks with empty Content unless they carry a
// finish reason or an error.
type StreamChunk struct {
	Content      string       `json:"content,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
	Err          *types.Error `json:"error,omitempty"`
}

// Provider is the unified chat model client.
//
// Stream returns a forward-only channel of incremental fragments; the
// channel is closed when generation ends. Callers may stop consuming at
// any point, in which case the provider goroutine drains on context
// cancellation or transport close.
type Provider interface {
	// Completion issues a blocking chat request and returns the full response.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream issues a streaming chat request and returns an incremental
	// fragment channel.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// Name returns the provider's unique identifier.
	Name() string
}
