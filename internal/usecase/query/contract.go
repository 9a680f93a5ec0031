// Package query prepares the user query for retrieval: expansion and embedding.
package query

import (
	"context"

	"github.com/eecar/partsearch/internal/domain"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
