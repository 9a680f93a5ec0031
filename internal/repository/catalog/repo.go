// Package catalog reads part records from the key-value store.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain/part"
)

// listBatch bounds the number of keys per pipelined MGet during List.
const listBatch = 500

// store is the consumer interface for the catalog (ISP).
type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/search.Catalog.
type Repo struct {
	store  store
	prefix string
	logger *zap.Logger
}

// New creates a catalog repository. Records live at <keyPrefix>part:<id>.
func New(s store, keyPrefix string, logger *zap.Logger) *Repo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repo{store: s, prefix: keyPrefix + "part:", logger: logger}
}

// BatchGet loads the given parts in one round trip.
// Missing and undecodable records are left out of the map.
func (r *Repo) BatchGet(ctx context.Context, ids []string) (map[string]part.Part, error) {
	if len(ids) == 0 {
		return map[string]part.Part{}, nil
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	keys := make([]string, len(unique))
	for i, id := range unique {
		keys[i] = r.prefix + id
	}

	raw, err := r.store.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("batch get parts: %w", err)
	}

	out := make(map[string]part.Part, len(unique))
	for i, data := range raw {
		if data == nil {
			continue
		}
		p, ok := r.decode(unique[i], data)
		if !ok {
			continue
		}
		out[unique[i]] = p
	}
	return out, nil
}

// List returns every part in the catalog. Used to build the knowledge base at startup.
func (r *Repo) List(ctx context.Context) ([]part.Part, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan parts: %w", err)
	}

	parts := make([]part.Part, 0, len(keys))
	for start := 0; start < len(keys); start += listBatch {
		end := min(start+listBatch, len(keys))
		raw, err := r.store.MGet(ctx, keys[start:end])
		if err != nil {
			return nil, fmt.Errorf("list parts: %w", err)
		}
		for i, data := range raw {
			if data == nil {
				continue
			}
			if p, ok := r.decode(strings.TrimPrefix(keys[start+i], r.prefix), data); ok {
				parts = append(parts, p)
			}
		}
	}
	return parts, nil
}

func (r *Repo) decode(id string, data []byte) (part.Part, bool) {
	var p part.Part
	if err := json.Unmarshal(data, &p); err != nil {
		r.logger.Warn("Skipping undecodable part record", zap.String("part_id", id), zap.Error(err))
		return part.Part{}, false
	}
	if p.ID == "" {
		p.ID = id
	}
	return p, true
}
