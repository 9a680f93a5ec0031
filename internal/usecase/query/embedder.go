package query

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/logger"
)

// DefaultConcurrency caps parallel embedding calls per request.
const DefaultConcurrency = 4

// MultiEmbedder turns a set of query variants into one query vector.
type MultiEmbedder struct {
	embed       Embedder
	concurrency int
	logger      *zap.Logger
}

// NewMultiEmbedder creates a MultiEmbedder.
func NewMultiEmbedder(e Embedder, concurrency int, logger *zap.Logger) *MultiEmbedder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MultiEmbedder{embed: e, concurrency: concurrency, logger: logger}
}

// Embed embeds every query concurrently and merges the vectors.
// queries[0] is the original query and must embed successfully; failed
// variants after it are dropped. One surviving vector is returned as is,
// several are averaged and L2-normalized.
func (m *MultiEmbedder) Embed(ctx context.Context, queries []string) ([]float32, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("embed queries: %w", domain.ErrInvalidQuery)
	}

	vectors := make([][]float32, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			res, err := m.embed.Embed(gctx, q)
			if err != nil {
				errs[i] = err
				// only the original query is fatal
				if i == 0 {
					return err
				}
				return nil
			}
			vectors[i] = res.Embedding
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("embed query: %w: %w", domain.ErrEmbeddingProviderError, err)
	}

	log := logger.FromContextOr(ctx, m.logger)
	usable := make([][]float32, 0, len(vectors))
	for i, v := range vectors {
		if errs[i] != nil || len(v) == 0 {
			if i > 0 {
				log.Warn("Dropping expanded query from embedding", zap.Int("index", i), zap.Error(errs[i]))
			}
			continue
		}
		usable = append(usable, v)
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("embed query: no usable vector: %w", domain.ErrEmbeddingProviderError)
	}
	if len(usable) == 1 {
		return usable[0], nil
	}
	return averageNormalized(usable)
}

func averageNormalized(vectors [][]float32) ([]float32, error) {
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("merge query vectors: %d vs %d: %w", len(v), dim, domain.ErrVectorDimMismatch)
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	n := float64(len(vectors))
	var norm float64
	for i := range sum {
		sum[i] /= n
		norm += sum[i] * sum[i]
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dim)
	for i, x := range sum {
		if norm > 0 {
			x /= norm
		}
		out[i] = float32(x)
	}
	return out, nil
}
