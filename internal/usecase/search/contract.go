package search

import (
	"context"

	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/search/backend"
	"github.com/eecar/partsearch/internal/domain/search/result"
	"github.com/eecar/partsearch/internal/repository/querycache"
	"github.com/eecar/partsearch/internal/usecase/retrieval"
)

// Cache stores whole result snapshots by query text.
type Cache interface {
	Lookup(ctx context.Context, query string) (querycache.Entry, bool)
	Store(ctx context.Context, query string, results []result.Result, expanded []string) error
	IncrementHit(ctx context.Context, query string) (int, error)
}

// Expander produces query variants, original first. It never fails.
type Expander interface {
	Expand(ctx context.Context, query string) []string
}

// QueryEmbedder merges query variants into one vector.
type QueryEmbedder interface {
	Embed(ctx context.Context, queries []string) ([]float32, error)
}

// Backends resolves a backend kind to an implementation.
type Backends interface {
	Backend(k backend.Kind) retrieval.Backend
	Configured(k backend.Kind) bool
}

// Catalog loads part records by id. Missing ids are absent from the map.
type Catalog interface {
	BatchGet(ctx context.Context, ids []string) (map[string]part.Part, error)
}

// Explainer returns one reason per part. It never fails.
type Explainer interface {
	Explain(ctx context.Context, query string, parts []part.Projection) []string
}
