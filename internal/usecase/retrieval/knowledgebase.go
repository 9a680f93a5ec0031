package retrieval

import (
	"context"
	"fmt"

	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/backend"
)

// KnowledgeBaseBackend sends raw query text to the knowledge base.
type KnowledgeBaseBackend struct {
	kb KnowledgeBase
}

// NewKnowledgeBase creates the text-in backend.
func NewKnowledgeBase(kb KnowledgeBase) *KnowledgeBaseBackend {
	return &KnowledgeBaseBackend{kb: kb}
}

// Kind implements Backend.
func (b *KnowledgeBaseBackend) Kind() backend.Kind { return backend.KnowledgeBase }

// Search implements Backend. The vector in q is ignored.
func (b *KnowledgeBaseBackend) Search(ctx context.Context, q Query) ([]ranking.Candidate, error) {
	k := q.TopK
	if k <= 0 {
		k = ranking.DefaultTopK
	}

	passages, err := b.kb.Query(ctx, q.Text, k, q.Filter)
	if err != nil {
		return nil, fmt.Errorf("query knowledge base: %w", err)
	}

	out := make([]ranking.Candidate, len(passages))
	for i, p := range passages {
		out[i] = ranking.Candidate{ID: p.ID, Score: p.Similarity}
	}
	return out, nil
}
