package retrieval

import (
	"context"
	"sync"

	"github.com/eecar/partsearch/internal/domain/search/filter"
	"github.com/eecar/partsearch/internal/repository/knowledgebase"
	"github.com/eecar/partsearch/internal/repository/vectorindex"
)

type mockVectorStore struct {
	mu      sync.Mutex
	keys    []string
	vectors map[string][]float32
	listErr error
	getErr  error
	loaded  []string
}

func (m *mockVectorStore) ListKeys(_ context.Context, _ string) ([]string, error) {
	return m.keys, m.listErr
}

func (m *mockVectorStore) GetVector(_ context.Context, key string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, key)
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.vectors[key], nil
}

type mockIndex struct {
	neighbors []vectorindex.Neighbor
	err       error
	lastK     int
	lastEq    filter.Equality
}

func (m *mockIndex) Search(_ context.Context, _ []float32, k int, eq filter.Equality) ([]vectorindex.Neighbor, error) {
	m.lastK = k
	m.lastEq = eq
	return m.neighbors, m.err
}

type mockKB struct {
	passages []knowledgebase.Passage
	err      error
	lastText string
	lastK    int
	lastEq   filter.Equality
}

func (m *mockKB) Query(_ context.Context, text string, k int, eq filter.Equality) ([]knowledgebase.Passage, error) {
	m.lastText = text
	m.lastK = k
	m.lastEq = eq
	return m.passages, m.err
}
