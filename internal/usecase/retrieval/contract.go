// Package retrieval implements the candidate retrieval backends.
package retrieval

import (
	"context"

	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/backend"
	"github.com/eecar/partsearch/internal/domain/search/filter"
	"github.com/eecar/partsearch/internal/repository/knowledgebase"
	"github.com/eecar/partsearch/internal/repository/vectorindex"
)

// Query is one retrieval request. Vector is nil for text-in backends.
type Query struct {
	Text   string
	Vector []float32
	TopK   int
	Filter filter.Equality
}

// Backend returns candidates with a higher-is-better score.
type Backend interface {
	Kind() backend.Kind
	Search(ctx context.Context, q Query) ([]ranking.Candidate, error)
}

// VectorStore lists and loads stored part vectors for the brute-force scan.
type VectorStore interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	// GetVector returns nil, nil when the vector does not exist.
	GetVector(ctx context.Context, key string) ([]float32, error)
}

// Index is a server-side nearest-neighbour index.
type Index interface {
	Search(ctx context.Context, vector []float32, k int, eq filter.Equality) ([]vectorindex.Neighbor, error)
}

// KnowledgeBase is a text-in retrieval store.
type KnowledgeBase interface {
	Query(ctx context.Context, text string, k int, eq filter.Equality) ([]knowledgebase.Passage, error)
}
