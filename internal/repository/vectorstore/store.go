// Package vectorstore reads per-part embedding vectors and the manifest that lists them.
package vectorstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eecar/partsearch/internal/db"
)

// ManifestKey names the JSON array of vector keys, relative to the store prefix.
const ManifestKey = "vectors-manifest.json"

// KeyPrefix is the common prefix of part vector keys: parts/<id>.json.
const KeyPrefix = "parts/"

const keySuffix = ".json"

// store is the consumer interface for vector blobs (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Repo implements usecase/retrieval.VectorStore.
type Repo struct {
	store  store
	prefix string
}

// New creates a vector store. Objects live at <keyPrefix>vectors:<key>.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix + "vectors:"}
}

// ListKeys returns the manifest keys starting with prefix (all keys if empty).
// A missing manifest is an empty catalog.
func (r *Repo) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	data, err := r.store.Get(ctx, r.prefix+ManifestKey)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vector manifest: %w", err)
	}

	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decode vector manifest: %w", err)
	}
	if prefix == "" {
		return keys, nil
	}

	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// GetVector loads one vector. A missing object returns (nil, nil).
func (r *Repo) GetVector(ctx context.Context, key string) ([]float32, error) {
	data, err := r.store.Get(ctx, r.prefix+key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get vector %s: %w", key, err)
	}

	var v []float32
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode vector %s: %w", key, err)
	}
	return v, nil
}

// PartID derives the part id from a vector key: parts/<id>.json -> <id>.
func PartID(key string) string {
	return strings.TrimSuffix(strings.TrimPrefix(key, KeyPrefix), keySuffix)
}

// Key builds the vector key for a part id.
func Key(partID string) string {
	return KeyPrefix + partID + keySuffix
}
