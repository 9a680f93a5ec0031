package vectorindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/eecar/partsearch/internal/db"
	"github.com/eecar/partsearch/internal/domain/search/filter"
)

// searcher is the consumer interface for KNN over an FT index (ISP).
type searcher interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Redis runs KNN against a RediSearch / valkey-search index.
type Redis struct {
	store     searcher
	indexName string
	docPrefix string
}

// NewRedis creates a Redis index client. docPrefix is stripped from hit keys
// when the hash carries no partId field.
func NewRedis(s searcher, indexName, docPrefix string) *Redis {
	return &Redis{store: s, indexName: indexName, docPrefix: docPrefix}
}

// Search returns up to k neighbours of vector, closest first.
func (r *Redis) Search(ctx context.Context, vector []float32, k int, eq filter.Equality) ([]Neighbor, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{IDField},
	}
	if hasFilter(eq) {
		q.Filter = &db.TagFilter{Field: eq.Field, Value: eq.Value}
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("vector index %s: %w", r.indexName, err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}

	out := make([]Neighbor, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := e.Fields[IDField]
		if id == "" {
			id = strings.TrimPrefix(e.Key, r.docPrefix)
		}
		out = append(out, Neighbor{ID: id, Distance: e.Score})
	}
	// FT.SEARCH without SORTBY does not promise distance order.
	sortByDistance(out)
	return out, nil
}
