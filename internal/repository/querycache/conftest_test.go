package querycache

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/db"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/search/result"
)

// memStore is an in-memory store that records TTLs but never expires keys,
// so lazy expiry in Cache is what gets exercised.
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) SetKeepTTL(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func newTestCache(t *testing.T, s *memStore, now time.Time) *Cache {
	t.Helper()
	c := New(s, Options{KeyPrefix: "eecar:", ModelUsed: "claude-3-haiku"}, nil, zap.NewNop())
	c.now = func() time.Time { return now }
	return c
}

func sampleResults() []result.Result {
	return []result.Result{
		{
			PartID: "p1",
			Score:  0.91,
			Scores: result.Scores{Hybrid: 0.91, Vector: 0.87, BM25: 1},
			Part:   part.Projection{Name: "아이오닉5 배터리 팩", Category: part.CategoryBattery, Images: []string{}},
			Reason: "요청하신 배터리 팩과 일치합니다",
		},
		{
			PartID: "p2",
			Score:  0.52,
			Scores: result.Scores{Hybrid: 0.52, Vector: 0.74, BM25: 0},
			Part:   part.Projection{Name: "구동 모터", Category: part.CategoryMotor, Images: []string{}},
			Reason: result.FallbackReason,
		},
	}
}
