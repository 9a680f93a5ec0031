package retrieval

import (
	"context"
	"fmt"

	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/backend"
)

// VectorIndex queries a server-side index and converts distance to similarity.
type VectorIndex struct {
	index Index
}

// NewVectorIndex creates the index-backed backend.
func NewVectorIndex(idx Index) *VectorIndex {
	return &VectorIndex{index: idx}
}

// Kind implements Backend.
func (v *VectorIndex) Kind() backend.Kind { return backend.VectorIndex }

// Search implements Backend. Score = 1 - distance.
func (v *VectorIndex) Search(ctx context.Context, q Query) ([]ranking.Candidate, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector index search: query vector is required")
	}
	k := q.TopK
	if k <= 0 {
		k = ranking.DefaultTopK
	}

	neighbors, err := v.index.Search(ctx, q.Vector, k, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}

	out := make([]ranking.Candidate, len(neighbors))
	for i, n := range neighbors {
		out[i] = ranking.Candidate{ID: n.ID, Score: 1 - n.Distance}
	}
	return out, nil
}
