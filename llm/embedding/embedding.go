// Package embedding provides the embedding provider abstraction used by
// the vector search layer.
package embedding

import "context"

// Provider maps text to a fixed-dimension numeric vector. Implementations
// talk to remote services and may fail or time out; callers own retries.
type Provider interface {
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float64, error)

	// Name returns the provider name.
	Name() string

	// Dimensions returns the embedding vector length.
	Dimensions() int
}
