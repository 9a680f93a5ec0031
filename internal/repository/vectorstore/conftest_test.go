package vectorstore

import (
	"context"

	"github.com/eecar/partsearch/internal/db"
)

type memStore struct {
	data   map[string][]byte
	getErr error
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func seededStore() *memStore {
	return &memStore{data: map[string][]byte{
		"eecar:vectors:" + ManifestKey: []byte(`["parts/p1.json","parts/p2.json","drafts/p3.json"]`),
		"eecar:vectors:parts/p1.json":  []byte(`[0.1,0.2,0.3]`),
		"eecar:vectors:parts/p2.json":  []byte(`[1,0,0]`),
		"eecar:vectors:parts/bad.json": []byte(`"nope"`),
	}}
}
