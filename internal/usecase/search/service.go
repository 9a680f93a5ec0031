// Package search orchestrates the hybrid part search pipeline.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/backend"
	"github.com/eecar/partsearch/internal/domain/search/filter"
	"github.com/eecar/partsearch/internal/domain/search/request"
	"github.com/eecar/partsearch/internal/domain/search/result"
	"github.com/eecar/partsearch/internal/logger"
	"github.com/eecar/partsearch/internal/usecase/retrieval"
)

// DefaultOverfetch multiplies topK when asking a backend for candidates.
const DefaultOverfetch = 2

// DefaultRetrievalTimeout bounds a single backend call.
const DefaultRetrievalTimeout = 10 * time.Second

// Options tune ranking and backend choice.
// Alpha is used as given: 1 ranks by vector score only, 0 by BM25 only.
type Options struct {
	Alpha            float64
	BM25             ranking.BM25
	Overfetch        int
	RetrievalTimeout time.Duration
	UseKnowledgeBase bool
	UseVectorIndex   bool
}

// Metrics are optional collectors; nil fields are skipped.
type Metrics struct {
	Selections *prometheus.CounterVec   // label: backend
	Retrieval  *prometheus.HistogramVec // labels: backend, status
}

// Deps groups the pipeline collaborators. Cache may be nil to disable caching.
type Deps struct {
	Cache     Cache
	Expander  Expander
	Embedder  QueryEmbedder
	Backends  Backends
	Catalog   Catalog
	Explainer Explainer
}

// Service runs the search pipeline.
type Service struct {
	deps    Deps
	opts    Options
	metrics Metrics
	logger  *zap.Logger
}

// New creates a search service.
func New(deps Deps, opts Options, m Metrics, logger *zap.Logger) *Service {
	if opts.BM25.K1 <= 0 {
		opts.BM25 = ranking.DefaultBM25()
	}
	if opts.Overfetch <= 0 {
		opts.Overfetch = DefaultOverfetch
	}
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = DefaultRetrievalTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{deps: deps, opts: opts, metrics: m, logger: logger}
}

// Search returns ranked, explained parts for req.
//
// With the cache enabled the pipeline ranks without filters and caches that
// snapshot; filters are applied on the way out, both on hits and misses.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Response, error) {
	q := req.Query()
	log := logger.FromContextOr(ctx, s.logger)

	if s.deps.Cache != nil {
		if entry, ok := s.deps.Cache.Lookup(ctx, q); ok {
			if _, err := s.deps.Cache.IncrementHit(ctx, q); err != nil {
				log.Warn("Failed to bump cache hit counter", zap.Error(err))
			}
			view := result.View(entry.Results, req.Filters(), req.TopK())
			return result.NewResponse(view, entry.ExpandedQueries, true), nil
		}
	}

	kind := backend.Select(backend.Flags{
		UseKnowledgeBase:        s.opts.UseKnowledgeBase,
		KnowledgeBaseConfigured: s.deps.Backends.Configured(backend.KnowledgeBase),
		UseVectorIndex:          s.opts.UseVectorIndex,
		VectorIndexConfigured:   s.deps.Backends.Configured(backend.VectorIndex),
	})
	if s.metrics.Selections != nil {
		s.metrics.Selections.WithLabelValues(string(kind)).Inc()
	}

	expanded := s.deps.Expander.Expand(ctx, q)

	var vector []float32
	if kind.NeedsVector() {
		v, err := s.deps.Embedder.Embed(ctx, expanded)
		if err != nil {
			return result.Response{}, fmt.Errorf("embed query: %w", err)
		}
		vector = v
	}

	// A cached snapshot must not depend on filters.
	var pushdown filter.Equality
	if s.deps.Cache == nil {
		pushdown = req.Filters().Pushdown()
	}

	candidates, err := s.retrieve(ctx, kind, retrieval.Query{
		Text:   q,
		Vector: vector,
		TopK:   s.opts.Overfetch * req.TopK(),
		Filter: pushdown,
	})
	if err != nil {
		return result.Response{}, err
	}

	results, err := s.rank(ctx, q, candidates, req.TopK())
	if err != nil {
		return result.Response{}, err
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Store(ctx, q, results, expanded); err != nil {
			return result.Response{}, fmt.Errorf("cache results: %w", err)
		}
	}

	view := result.View(results, req.Filters(), req.TopK())
	log.Debug("Search completed",
		zap.String("backend", string(kind)),
		zap.Int("expanded_queries", len(expanded)),
		zap.Int("candidates", len(candidates)),
		zap.Int("ranked", len(results)),
		zap.Int("returned", len(view)),
	)
	return result.NewResponse(view, expanded, false), nil
}

func (s *Service) retrieve(ctx context.Context, kind backend.Kind, q retrieval.Query) ([]ranking.Candidate, error) {
	b := s.deps.Backends.Backend(kind)

	ctx, cancel := context.WithTimeout(ctx, s.opts.RetrievalTimeout)
	defer cancel()

	start := time.Now()
	candidates, err := b.Search(ctx, q)

	if s.metrics.Retrieval != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.Retrieval.WithLabelValues(string(b.Kind()), status).Observe(time.Since(start).Seconds())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s: timed out after %s: %w", domain.ErrRetrievalFailed, b.Kind(), s.opts.RetrievalTimeout, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrRetrievalFailed, b.Kind(), err)
	}
	return candidates, nil
}

// rank hydrates candidates, fuses vector and BM25 scores, keeps topK and explains them.
func (s *Service) rank(ctx context.Context, q string, candidates []ranking.Candidate, topK int) ([]result.Result, error) {
	if len(candidates) == 0 {
		return []result.Result{}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	parts, err := s.deps.Catalog.BatchGet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch parts: %w", err)
	}

	hydrated := make([]ranking.Candidate, 0, len(candidates))
	docs := make([]ranking.Document, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		p, ok := parts[c.ID]
		if !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		hydrated = append(hydrated, c)
		docs = append(docs, ranking.Document{ID: c.ID, Text: p.BM25Text()})
	}

	matches := s.opts.BM25.HybridSearch(hydrated, docs, q, s.opts.Alpha)
	if len(matches) > topK {
		matches = matches[:topK]
	}

	results := make([]result.Result, len(matches))
	for i, m := range matches {
		p := parts[m.ID]
		results[i] = result.Result{
			PartID: m.ID,
			Score:  m.Score,
			Scores: result.Scores{Hybrid: m.Score, Vector: m.VectorScore, BM25: m.BM25Score},
			Part:   p.Project(),
		}
	}

	projections := make([]part.Projection, len(results))
	for i := range results {
		projections[i] = results[i].Part
	}
	reasons := s.deps.Explainer.Explain(ctx, q, projections)
	for i := range results {
		results[i].Reason = result.FallbackReason
		if i < len(reasons) && reasons[i] != "" {
			results[i].Reason = reasons[i]
		}
	}
	return results, nil
}
