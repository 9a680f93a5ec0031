package retrieval

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/backend"
	"github.com/eecar/partsearch/internal/repository/vectorstore"
)

// Legacy defaults.
const (
	DefaultLegacyConcurrency   = 16
	DefaultLegacyMaxCandidates = 10000
)

// LegacyOptions tune the brute-force scan.
type LegacyOptions struct {
	Concurrency   int
	MaxCandidates int
}

// Legacy loads every stored vector and ranks them client-side by cosine similarity.
// Filters are ignored.
type Legacy struct {
	store     VectorStore
	opts      LegacyOptions
	truncated prometheus.Counter
	logger    *zap.Logger
}

// NewLegacy creates the brute-force backend. truncated may be nil.
func NewLegacy(s VectorStore, opts LegacyOptions, truncated prometheus.Counter, logger *zap.Logger) *Legacy {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultLegacyConcurrency
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultLegacyMaxCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Legacy{store: s, opts: opts, truncated: truncated, logger: logger}
}

// Kind implements Backend.
func (l *Legacy) Kind() backend.Kind { return backend.Legacy }

// Search implements Backend.
func (l *Legacy) Search(ctx context.Context, q Query) ([]ranking.Candidate, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("legacy search: query vector is required")
	}

	keys, err := l.store.ListKeys(ctx, vectorstore.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list vector keys: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	if len(keys) > l.opts.MaxCandidates {
		l.logger.Warn("Vector manifest exceeds scan limit, truncating",
			zap.Int("keys", len(keys)),
			zap.Int("max_candidates", l.opts.MaxCandidates),
		)
		if l.truncated != nil {
			l.truncated.Inc()
		}
		keys = keys[:l.opts.MaxCandidates]
	}

	vectors := make([][]float32, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Concurrency)
	for i, key := range keys {
		g.Go(func() error {
			v, err := l.store.GetVector(gctx, key)
			if err != nil {
				return fmt.Errorf("load vector %s: %w", key, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err //nolint:wrapcheck // already wrapped inside the group
	}

	candidates := make([]ranking.VectorCandidate, 0, len(keys))
	for i, v := range vectors {
		if v == nil {
			continue
		}
		candidates = append(candidates, ranking.VectorCandidate{ID: vectorstore.PartID(keys[i]), Vector: v})
	}

	top, err := ranking.FindTopKSimilar(q.Vector, candidates, q.TopK)
	if err != nil {
		return nil, fmt.Errorf("rank vectors: %w", err)
	}
	return top, nil
}
