// Package embedder provides text embedding for indexing and query-time retrieval.
package embedder

import (
	"context"
)

// Embedder defines the interface for embedding clients.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension produced by this embedder.
	Dimension() int
}
