// Package embeddings
package embeddings

import "context"

// Embedder provides text embedding capabilities. Implementations return
// unit-normalized vectors so inner product and cosine similarity coincide
// downstream.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
