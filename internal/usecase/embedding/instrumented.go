// Package embedding decorates the embedding provider with request-scoped bookkeeping.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain"
)

// Options configure the decorator.
type Options struct {
	Provider string
	Model    string
	// Dimensions, when set, rejects vectors of any other length.
	Dimensions int
	// Timeout bounds a single provider call. Zero means no extra deadline.
	Timeout time.Duration
}

// InstrumentedEmbedder wraps Embedder with a per-call timeout, dimension
// validation, usage accounting and logging.
// Transport metrics (requests, duration, tokens) are recorded in transport/openai.
type InstrumentedEmbedder struct {
	inner  domain.Embedder
	opts   Options
	logger *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder with observability.
func NewInstrumentedEmbedder(inner domain.Embedder, opts Options, logger *zap.Logger) *InstrumentedEmbedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedEmbedder{inner: inner, opts: opts, logger: logger}
}

// Embed delegates to the inner embedder and records usage on the request context.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.opts.Provider),
			zap.String("model", p.opts.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if p.opts.Dimensions > 0 && len(result.Embedding) != p.opts.Dimensions {
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embed: got %d dims, want %d: %w", len(result.Embedding), p.opts.Dimensions, domain.ErrVectorDimMismatch)
	}

	domain.UsageFromContext(ctx).AddEmbeddingTokens(result.TotalTokens)

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.opts.Provider),
		zap.String("model", p.opts.Model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}
