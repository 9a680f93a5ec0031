// Package knowledgebase is a text-in retrieval store over part descriptions.
// It embeds documents and queries itself, so callers never handle vectors.
package knowledgebase

import (
	"context"
	"fmt"
	"os"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/search/filter"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "parts"

// Metadata keys stored with every document and usable in equality filters.
const (
	MetaCategory     = "category"
	MetaManufacturer = "manufacturer"
)

// Options configure the knowledge base.
type Options struct {
	// Path of the persistent DB directory. Empty keeps everything in memory.
	Path        string
	Compress    bool
	Collection  string
	Concurrency int
}

// Passage is one retrieved document.
type Passage struct {
	ID         string
	Similarity float64
	Content    string
}

// KnowledgeBase wraps a chromem-go collection.
type KnowledgeBase struct {
	coll   *chromem.Collection
	opts   Options
	logger *zap.Logger
}

// EmbeddingFunc adapts a domain embedder to chromem.
func EmbeddingFunc(e domain.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by chromem
		}
		return res.Embedding, nil
	}
}

// New opens (or creates) the collection.
func New(opts Options, embed chromem.EmbeddingFunc, logger *zap.Logger) (*KnowledgeBase, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}

	var db *chromem.DB
	if opts.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create knowledge base dir %s: %w", opts.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(opts.Path, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("open knowledge base %s: %w", opts.Path, err)
		}
	}

	coll, err := db.GetOrCreateCollection(opts.Collection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("get or create collection %s: %w", opts.Collection, err)
	}

	logger.Info("Knowledge base opened",
		zap.String("collection", opts.Collection),
		zap.Bool("persistent", opts.Path != ""),
		zap.Int("documents", coll.Count()),
	)
	return &KnowledgeBase{coll: coll, opts: opts, logger: logger}, nil
}

// Count returns the number of indexed documents.
func (kb *KnowledgeBase) Count() int {
	return kb.coll.Count()
}

// Index embeds and stores parts. Existing ids are overwritten.
func (kb *KnowledgeBase) Index(ctx context.Context, parts []part.Part) error {
	if len(parts) == 0 {
		return nil
	}

	docs := make([]chromem.Document, 0, len(parts))
	for i := range parts {
		p := &parts[i]
		if p.ID == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      p.ID,
			Content: p.EmbeddingText(),
			Metadata: map[string]string{
				MetaCategory:     string(p.Category),
				MetaManufacturer: p.Manufacturer,
			},
		})
	}

	if err := kb.coll.AddDocuments(ctx, docs, kb.opts.Concurrency); err != nil {
		return fmt.Errorf("index %d parts: %w", len(docs), err)
	}
	kb.logger.Info("Knowledge base indexed", zap.Int("documents", len(docs)))
	return nil
}

// Query returns up to k passages most similar to text.
// k is capped at the collection size; an empty collection yields nothing.
func (kb *KnowledgeBase) Query(ctx context.Context, text string, k int, eq filter.Equality) ([]Passage, error) {
	count := kb.coll.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	k = min(k, count)

	var where map[string]string
	if !eq.IsZero() && eq.Value != "" {
		where = map[string]string{eq.Field: eq.Value}
	}

	res, err := kb.coll.Query(ctx, text, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query knowledge base: %w", err)
	}

	out := make([]Passage, len(res))
	for i, r := range res {
		out[i] = Passage{ID: r.ID, Similarity: float64(r.Similarity), Content: r.Content}
	}
	return out, nil
}
