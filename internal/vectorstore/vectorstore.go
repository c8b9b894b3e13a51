// Package vectorstore provides vector similarity search over the legal corpus.
package vectorstore

import (
	"context"
)

// Chunk represents one indexed passage with its embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Vector     []float32
	Metadata   map[string]string
}

// SearchResult represents a search hit. Score is cosine similarity in [0,1].
type SearchResult struct {
	ID         string
	DocumentID string
	Content    string
	Score      float32
	Metadata   map[string]string
}

// VectorStore defines the interface for vector storage over a single corpus
// collection.
type VectorStore interface {
	// EnsureCollection creates the corpus collection if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert inserts or updates passages in the corpus.
	Upsert(ctx context.Context, chunks []Chunk) error

	// Search performs similarity search against the corpus.
	Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]SearchResult, error)

	// DeleteByDocument removes all passages belonging to a document.
	DeleteByDocument(ctx context.Context, documentID string) error
}
