// Package embedding generates vector embeddings for entry content. The
// provider is an optional collaborator: when absent or failing, entries are
// stored without embeddings and nothing upstream fails.
package embedding

import "context"

// Provider generates embeddings from text.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}
