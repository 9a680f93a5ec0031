package domain

import (
	"context"
	"sync/atomic"
)

type usageKey struct{}

// Usage collects model token usage for a single HTTP request.
// The handler puts a pointer into the context before calling the service;
// embedders and generators add to it, possibly from several goroutines;
// the handler reads it for response headers and the request log line.
type Usage struct {
	embeddingTokens  atomic.Int64
	generationTokens atomic.Int64
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records consumed embedding tokens. Safe on a nil receiver.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.embeddingTokens.Add(int64(n))
	}
}

// AddGenerationTokens records consumed prompt+completion tokens. Safe on a nil receiver.
func (u *Usage) AddGenerationTokens(n int) {
	if u != nil {
		u.generationTokens.Add(int64(n))
	}
}

// EmbeddingTokens returns the embedding tokens recorded so far.
func (u *Usage) EmbeddingTokens() int64 {
	if u == nil {
		return 0
	}
	return u.embeddingTokens.Load()
}

// GenerationTokens returns the generation tokens recorded so far.
func (u *Usage) GenerationTokens() int64 {
	if u == nil {
		return 0
	}
	return u.generationTokens.Load()
}
