package catalog

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/eecar/partsearch/internal/domain/part"
)

type memStore struct {
	data    map[string][]byte
	mgetErr error
	scanErr error
	mgets   int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) MGet(_ context.Context, keys []string) ([][]byte, error) {
	m.mgets++
	if m.mgetErr != nil {
		return nil, m.mgetErr
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memStore) putPart(t *testing.T, p part.Part) {
	t.Helper()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal part: %v", err)
	}
	m.data["eecar:part:"+p.ID] = data
}
