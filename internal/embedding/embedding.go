// Package embedding provides vector embedding generation for text.
// The matching core compares preprint and candidate abstracts in
// embedding space, so the provider's model choice drives match quality;
// a biomedical sentence model is recommended.
package embedding

import "context"

// Embedding represents a vector embedding of text.
type Embedding struct {
	Vector []float32
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
