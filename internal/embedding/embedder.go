// Package embedding turns insight text into fixed-length vectors for the
// store's HNSW index.
package embedding

import (
	"context"
	"fmt"
)

// Embedder produces embedding vectors, deterministic for identical text.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one request.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model being used.
	Model() string

	// Dimension returns the embedding vector width. Must match the HNSW
	// index dimension in the store schema.
	Dimension() int
}

// checkDimension validates a returned vector against the expected width.
// A mismatch would silently corrupt the HNSW index, so it is an error here.
func checkDimension(vec []float32, want int) error {
	if want > 0 && len(vec) != want {
		return fmt.Errorf("embedding dimension %d, expected %d", len(vec), want)
	}
	return nil
}
