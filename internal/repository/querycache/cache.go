// Package querycache stores whole ranked result lists per query text.
package querycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/db"
	"github.com/eecar/partsearch/internal/domain/search/result"
)

// DefaultTTL bounds how long model-written explanations may lag the catalog.
const DefaultTTL = 7 * 24 * time.Hour

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetKeepTTL(ctx context.Context, key string, value []byte) error
}

// Entry is a point-in-time snapshot of one pipeline run.
type Entry struct {
	Query           string          `json:"query"`
	ExpandedQueries []string        `json:"expandedQueries"`
	Results         []result.Result `json:"results"`
	CreatedAt       time.Time       `json:"createdAt"`
	TTL             int64           `json:"ttl"` // epoch seconds
	HitCount        int             `json:"hitCount"`
	ModelUsed       string          `json:"modelUsed,omitempty"`
}

// Expired reports whether the entry is past its TTL at now.
func (e *Entry) Expired(now time.Time) bool {
	return now.Unix() >= e.TTL
}

// Options configure the cache.
type Options struct {
	KeyPrefix string
	TTL       time.Duration
	ModelUsed string
}

// Cache is the result cache. Read failures degrade to a miss.
type Cache struct {
	store  store
	opts   Options
	total  *prometheus.CounterVec
	logger *zap.Logger
	now    func() time.Time
}

// New creates a Cache. total is a counter vec with label "result", passed explicitly (may be nil).
func New(s store, opts Options, total *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{store: s, opts: opts, total: total, logger: logger, now: time.Now}
}

// Lookup returns a live entry for query. Missing, expired, unreadable and
// corrupt entries are all reported as a miss.
func (c *Cache) Lookup(ctx context.Context, query string) (Entry, bool) {
	entry, err := c.load(ctx, c.key(query))
	switch {
	case errors.Is(err, errExpired):
		c.inc("expired")
		return Entry{}, false
	case errors.Is(err, db.ErrKeyNotFound):
		c.inc("miss")
		return Entry{}, false
	case err != nil:
		c.inc("error")
		c.logger.Warn("Query cache read failed, treating as miss", zap.Error(err))
		return Entry{}, false
	}

	c.inc("hit")
	return entry, true
}

// Store writes a fresh entry with hitCount=1 and ttl=now+TTL.
func (c *Cache) Store(ctx context.Context, query string, results []result.Result, expanded []string) error {
	now := c.now()
	entry := Entry{
		Query:           query,
		ExpandedQueries: expanded,
		Results:         results,
		CreatedAt:       now.UTC(),
		TTL:             now.Add(c.opts.TTL).Unix(),
		HitCount:        1,
		ModelUsed:       c.opts.ModelUsed,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.store.SetWithTTL(ctx, c.key(query), data, c.opts.TTL); err != nil {
		return fmt.Errorf("store cache entry: %w", err)
	}
	return nil
}

// IncrementHit bumps the stored hit counter and returns the new value.
// Read-modify-write without CAS: concurrent hits may lose an increment.
func (c *Cache) IncrementHit(ctx context.Context, query string) (int, error) {
	key := c.key(query)
	entry, err := c.load(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("increment hit: %w", err)
	}

	entry.HitCount++
	data, err := json.Marshal(entry)
	if err != nil {
		return 0, fmt.Errorf("marshal cache entry: %w", err)
	}
	if err := c.store.SetKeepTTL(ctx, key, data); err != nil {
		return 0, fmt.Errorf("increment hit: %w", err)
	}
	return entry.HitCount, nil
}

var errExpired = fmt.Errorf("cache entry expired: %w", db.ErrKeyNotFound)

func (c *Cache) load(ctx context.Context, key string) (Entry, error) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return Entry{}, err //nolint:wrapcheck // sentinel checked by callers
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if entry.Expired(c.now()) {
		return Entry{}, errExpired
	}
	return entry, nil
}

func (c *Cache) key(query string) string {
	h := sha256.Sum256([]byte(query))
	return c.opts.KeyPrefix + "querycache:" + hex.EncodeToString(h[:])
}

func (c *Cache) inc(label string) {
	if c.total != nil {
		c.total.WithLabelValues(label).Inc()
	}
}
