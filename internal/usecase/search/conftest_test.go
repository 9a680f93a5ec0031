package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/backend"
	"github.com/eecar/partsearch/internal/domain/search/filter"
	"github.com/eecar/partsearch/internal/domain/search/request"
	"github.com/eecar/partsearch/internal/domain/search/result"
	"github.com/eecar/partsearch/internal/repository/querycache"
	"github.com/eecar/partsearch/internal/usecase/retrieval"
)

// --- Cache ---

type fakeCache struct {
	mu       sync.Mutex
	entries  map[string]querycache.Entry
	stores   int
	hits     int
	storeErr error
	incErr   error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]querycache.Entry{}}
}

func (c *fakeCache) Lookup(_ context.Context, q string) (querycache.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[q]
	return e, ok
}

func (c *fakeCache) Store(_ context.Context, q string, results []result.Result, expanded []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores++
	if c.storeErr != nil {
		return c.storeErr
	}
	c.entries[q] = querycache.Entry{Query: q, Results: results, ExpandedQueries: expanded, HitCount: 1}
	return nil
}

func (c *fakeCache) IncrementHit(_ context.Context, q string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits++
	if c.incErr != nil {
		return 0, c.incErr
	}
	e := c.entries[q]
	e.HitCount++
	c.entries[q] = e
	return e.HitCount, nil
}

// --- Query preparation ---

type fakeExpander struct{ extra []string }

func (e fakeExpander) Expand(_ context.Context, q string) []string {
	return append([]string{q}, e.extra...)
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
	last  []string
}

func (e *fakeEmbedder) Embed(_ context.Context, queries []string) ([]float32, error) {
	e.calls++
	e.last = queries
	return e.vec, e.err
}

// --- Retrieval ---

type fakeBackend struct {
	kind       backend.Kind
	candidates []ranking.Candidate
	err        error
	calls      int
	last       retrieval.Query
}

func (b *fakeBackend) Kind() backend.Kind { return b.kind }

func (b *fakeBackend) Search(_ context.Context, q retrieval.Query) ([]ranking.Candidate, error) {
	b.calls++
	b.last = q
	return b.candidates, b.err
}

// stalledBackend blocks until its context is done.
type stalledBackend struct{ kind backend.Kind }

func (b stalledBackend) Kind() backend.Kind { return b.kind }

func (b stalledBackend) Search(ctx context.Context, _ retrieval.Query) ([]ranking.Candidate, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// --- Catalog / explanations ---

type fakeCatalog struct {
	parts map[string]part.Part
	err   error
	asked []string
}

func (c *fakeCatalog) BatchGet(_ context.Context, ids []string) (map[string]part.Part, error) {
	c.asked = ids
	if c.err != nil {
		return nil, c.err
	}
	out := map[string]part.Part{}
	for _, id := range ids {
		if p, ok := c.parts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeExplainer struct{ calls int }

func (e *fakeExplainer) Explain(_ context.Context, _ string, parts []part.Projection) []string {
	e.calls++
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.Name + " 추천"
	}
	return out
}

// scriptedGenerator answers expansion and explanation prompts differently.
type scriptedGenerator struct {
	expansion   string
	explanation string
}

func (g *scriptedGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if strings.HasPrefix(req.Messages[0].Content, "검색어:") {
		return domain.GenerationResult{Text: g.expansion}, nil
	}
	return domain.GenerationResult{Text: g.explanation}, nil
}

// vectorTable embeds known strings and fails on anything else.
type vectorTable struct{ vectors map[string][]float32 }

func (v *vectorTable) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec, ok := v.vectors[text]
	if !ok {
		return domain.EmbeddingResult{}, errors.New("unknown text")
	}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: len(text)}, nil
}

// vectorFiles is an in-memory vector object store.
type vectorFiles struct{ vectors map[string][]float32 }

func (v *vectorFiles) ListKeys(_ context.Context, prefix string) ([]string, error) {
	keys := make([]string, 0, len(v.vectors))
	for k := range v.vectors {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (v *vectorFiles) GetVector(_ context.Context, key string) ([]float32, error) {
	return v.vectors[key], nil
}

// --- Fixtures ---

func catalogParts() map[string]part.Part {
	return map[string]part.Part{
		"p1": {
			ID: "p1", Name: "아이오닉5 배터리 팩", Category: part.CategoryBattery, Manufacturer: "현대",
			Model: "아이오닉5", Price: 8500000, Quantity: 2,
			Description:   "주행거리 3만km 차량에서 분리한 배터리 팩",
			BatteryHealth: &part.BatteryHealth{SOH: 92, CathodeType: "NCM"},
		},
		"p2": {
			ID: "p2", Name: "EV6 구동 모터", Category: part.CategoryMotor, Manufacturer: "기아",
			Model: "EV6", Price: 2300000, Quantity: 5,
		},
		"p3": {
			ID: "p3", Name: "코나 일렉트릭 배터리 모듈", Category: part.CategoryBattery, Manufacturer: "현대",
			Model: "코나", Price: 1200000, Quantity: 10,
		},
	}
}

type harness struct {
	cache     *fakeCache
	embedder  *fakeEmbedder
	legacy    *fakeBackend
	index     *fakeBackend
	kb        *fakeBackend
	catalog   *fakeCatalog
	explainer *fakeExplainer
}

func newHarness() *harness {
	return &harness{
		cache:    newFakeCache(),
		embedder: &fakeEmbedder{vec: []float32{1, 0}},
		legacy: &fakeBackend{kind: backend.Legacy, candidates: []ranking.Candidate{
			{ID: "p1", Score: 0.9}, {ID: "p2", Score: 0.8}, {ID: "p3", Score: 0.7},
		}},
		index:     &fakeBackend{kind: backend.VectorIndex},
		kb:        &fakeBackend{kind: backend.KnowledgeBase},
		catalog:   &fakeCatalog{parts: catalogParts()},
		explainer: &fakeExplainer{},
	}
}

// service builds a Service; backends lists the non-legacy backends to wire.
// A zero Alpha becomes the default; tests of pure BM25 call New directly.
func (h *harness) service(opts Options, withCache bool, backends ...retrieval.Backend) *Service {
	if opts.Alpha == 0 {
		opts.Alpha = ranking.DefaultAlpha
	}
	deps := Deps{
		Expander:  fakeExpander{},
		Embedder:  h.embedder,
		Backends:  retrieval.NewSelector(h.legacy, backends...),
		Catalog:   h.catalog,
		Explainer: h.explainer,
	}
	if withCache {
		deps.Cache = h.cache
	}
	return New(deps, opts, Metrics{}, nil)
}

func mustRequest(t *testing.T, q string, f filter.Filters, topK int) request.Request {
	t.Helper()
	r, err := request.New(q, f, topK, 0)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return r
}

func mustFilters(t *testing.T, category, manufacturer string, maxPrice *float64, minQty *int) filter.Filters {
	t.Helper()
	f, err := filter.New(category, manufacturer, maxPrice, minQty)
	if err != nil {
		t.Fatalf("filter.New: %v", err)
	}
	return f
}

func ids(results []result.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.PartID
	}
	return out
}
