package query

import (
	"context"
	"errors"
	"sync"

	"github.com/eecar/partsearch/internal/domain"
)

type mockGenerator struct {
	text    string
	err     error
	lastReq domain.GenerationRequest
	calls   int
	// block waits for ctx cancellation.
	block bool
}

func (m *mockGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	m.calls++
	m.lastReq = req
	if m.block {
		<-ctx.Done()
		return domain.GenerationResult{}, ctx.Err()
	}
	if m.err != nil {
		return domain.GenerationResult{}, m.err
	}
	return domain.GenerationResult{Text: m.text}, nil
}

// mapEmbedder returns a fixed vector per text; texts listed in fail return an error.
type mapEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	fail    map[string]bool
	calls   []string
}

func (m *mapEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()
	if m.fail[text] {
		return domain.EmbeddingResult{}, errors.New("provider unavailable")
	}
	v, ok := m.vectors[text]
	if !ok {
		return domain.EmbeddingResult{}, errors.New("unknown text")
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}
