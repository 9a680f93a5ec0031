package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces only.
type Store interface {
	Pinger
	KVStore
	Scanner
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns values in key order; a missing key yields a nil entry.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetKeepTTL overwrites a value without touching its expiry.
	SetKeepTTL(ctx context.Context, key string, value []byte) error
}

// Scanner iterates keys by pattern.
type Scanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Searcher runs vector queries over an existing FT index.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}
