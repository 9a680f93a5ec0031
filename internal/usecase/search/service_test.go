package search

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/ranking"
	"github.com/eecar/partsearch/internal/domain/search/backend"
	"github.com/eecar/partsearch/internal/domain/search/filter"
	"github.com/eecar/partsearch/internal/usecase/explain"
	"github.com/eecar/partsearch/internal/usecase/query"
	"github.com/eecar/partsearch/internal/usecase/retrieval"
)

func TestSearch_CacheMissRunsPipelineAndStoresUnfilteredSnapshot(t *testing.T) {
	h := newHarness()
	svc := h.service(Options{}, true)
	f := mustFilters(t, "battery", "", nil, nil)

	resp, err := svc.Search(context.Background(), mustRequest(t, "배터리", f, 3))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Cached {
		t.Error("expected uncached response")
	}
	for _, r := range resp.Results {
		if r.Part.Category != "battery" {
			t.Errorf("filter not applied: %+v", r)
		}
	}
	if resp.Count != len(resp.Results) || resp.Count != 2 {
		t.Errorf("expected 2 battery results, got %d (%v)", resp.Count, ids(resp.Results))
	}

	if h.legacy.last.Filter != (filter.Equality{}) {
		t.Errorf("expected no pushdown with cache enabled, got %+v", h.legacy.last.Filter)
	}
	if h.legacy.last.TopK != 6 {
		t.Errorf("expected over-fetch of 6, got %d", h.legacy.last.TopK)
	}
	if h.cache.stores != 1 {
		t.Fatalf("expected one cache write, got %d", h.cache.stores)
	}
	if got := len(h.cache.entries["배터리"].Results); got != 3 {
		t.Errorf("expected unfiltered snapshot of 3, got %d", got)
	}
	if h.explainer.calls != 1 {
		t.Errorf("expected one explanation batch, got %d", h.explainer.calls)
	}
}

func TestSearch_CacheHitAppliesView(t *testing.T) {
	h := newHarness()
	svc := h.service(Options{}, true)

	if _, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 3)); err != nil {
		t.Fatalf("warm-up: %v", err)
	}

	maxPrice := 3000000.0
	f := mustFilters(t, "", "", &maxPrice, nil)
	resp, err := svc.Search(context.Background(), mustRequest(t, "배터리", f, 3))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !resp.Cached {
		t.Error("expected cached response")
	}
	if h.legacy.calls != 1 || h.embedder.calls != 1 {
		t.Errorf("expected no pipeline work on hit, backend=%d embed=%d", h.legacy.calls, h.embedder.calls)
	}
	if h.cache.hits != 1 {
		t.Errorf("expected hit counter bump, got %d", h.cache.hits)
	}
	for _, r := range resp.Results {
		if r.Part.Price > maxPrice {
			t.Errorf("price filter not applied: %+v", r)
		}
	}
	if resp.Count != 2 {
		t.Errorf("expected 2 results under price cap, got %v", ids(resp.Results))
	}
}

func TestSearch_CacheHitIgnoresIncrementError(t *testing.T) {
	h := newHarness()
	h.cache.incErr = errors.New("write failed")
	svc := h.service(Options{}, true)

	ctx := context.Background()
	if _, err := svc.Search(ctx, mustRequest(t, "모터", filter.Filters{}, 2)); err != nil {
		t.Fatalf("warm-up: %v", err)
	}
	resp, err := svc.Search(ctx, mustRequest(t, "모터", filter.Filters{}, 2))
	if err != nil {
		t.Fatalf("expected hit despite increment error, got %v", err)
	}
	if !resp.Cached {
		t.Error("expected cached response")
	}
}

func TestSearch_CacheDisabledPushesCategory(t *testing.T) {
	h := newHarness()
	svc := h.service(Options{UseVectorIndex: true}, false, h.index)
	h.index.candidates = []ranking.Candidate{{ID: "p1", Score: 0.9}}

	f := mustFilters(t, "battery", "현대", nil, nil)
	resp, err := svc.Search(context.Background(), mustRequest(t, "배터리 팩", f, 5))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := filter.Equality{Field: filter.CategoryField, Value: "battery"}
	if h.index.last.Filter != want {
		t.Errorf("expected category pushdown, got %+v", h.index.last.Filter)
	}
	if h.legacy.calls != 0 {
		t.Error("legacy backend should not be used when the vector index is configured")
	}
	if resp.Count != 1 || resp.Results[0].PartID != "p1" {
		t.Errorf("unexpected results %v", ids(resp.Results))
	}
	if h.cache.stores != 0 {
		t.Error("cache must not be written when disabled")
	}
}

func TestSearch_KnowledgeBaseSkipsEmbedding(t *testing.T) {
	h := newHarness()
	h.kb.candidates = []ranking.Candidate{{ID: "p3", Score: 0.6}}
	svc := h.service(Options{UseKnowledgeBase: true, UseVectorIndex: true}, true, h.index, h.kb)

	resp, err := svc.Search(context.Background(), mustRequest(t, "코나 배터리", filter.Filters{}, 1))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if h.embedder.calls != 0 {
		t.Errorf("expected no embedding for knowledge base, got %d calls", h.embedder.calls)
	}
	if h.kb.last.Text != "코나 배터리" || h.kb.last.Vector != nil {
		t.Errorf("expected raw text query, got %+v", h.kb.last)
	}
	if h.index.calls != 0 {
		t.Error("vector index must not be used when knowledge base is selected")
	}
	if resp.Count != 1 || resp.Results[0].PartID != "p3" {
		t.Errorf("unexpected results %v", ids(resp.Results))
	}
}

func TestSearch_UnconfiguredFlagFallsBackToLegacy(t *testing.T) {
	h := newHarness()
	svc := h.service(Options{UseKnowledgeBase: true, UseVectorIndex: true}, false)

	if _, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 2)); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if h.legacy.calls != 1 || h.embedder.calls != 1 {
		t.Errorf("expected legacy with embedding, legacy=%d embed=%d", h.legacy.calls, h.embedder.calls)
	}
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	h := newHarness()
	h.embedder.err = domain.ErrEmbeddingProviderError
	svc := h.service(Options{}, true)

	_, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 2))
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if h.legacy.calls != 0 || h.cache.stores != 0 {
		t.Error("expected pipeline to stop before retrieval")
	}
}

func TestSearch_RetrievalFailure(t *testing.T) {
	h := newHarness()
	h.legacy.err = errors.New("manifest unreadable")
	svc := h.service(Options{}, true)

	_, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 2))
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		t.Fatalf("expected ErrRetrievalFailed, got %v", err)
	}
	if h.cache.stores != 0 {
		t.Error("failed search must not be cached")
	}
}

func TestSearch_CatalogFailure(t *testing.T) {
	h := newHarness()
	h.catalog.err = errors.New("connection reset")
	svc := h.service(Options{}, true)

	if _, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 2)); err == nil {
		t.Fatal("expected error")
	}
}

func TestSearch_CacheWriteFailureFailsRequest(t *testing.T) {
	h := newHarness()
	h.cache.storeErr = errors.New("OOM command not allowed")
	svc := h.service(Options{}, true)

	if _, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 2)); err == nil {
		t.Fatal("expected cache write error to fail the request")
	}
}

func TestSearch_DropsCandidatesWithoutRecord(t *testing.T) {
	h := newHarness()
	h.legacy.candidates = []ranking.Candidate{{ID: "ghost", Score: 0.99}, {ID: "p2", Score: 0.5}}
	svc := h.service(Options{}, false)

	resp, err := svc.Search(context.Background(), mustRequest(t, "모터", filter.Filters{}, 5))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !reflect.DeepEqual(ids(resp.Results), []string{"p2"}) {
		t.Errorf("expected only hydrated parts, got %v", ids(resp.Results))
	}
	if len(h.catalog.asked) != 2 {
		t.Errorf("expected catalog asked for both ids, got %v", h.catalog.asked)
	}
}

func TestSearch_NoCandidates(t *testing.T) {
	h := newHarness()
	h.legacy.candidates = nil
	svc := h.service(Options{}, true)

	resp, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 5))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Count != 0 || resp.Results == nil {
		t.Errorf("expected empty non-nil results, got %+v", resp)
	}
	if h.explainer.calls != 0 {
		t.Error("explainer should not run without results")
	}
}

func TestSearch_LexicalMatchCanOutrankVector(t *testing.T) {
	h := newHarness()
	// p2 has the best vector score but no lexical overlap with the query.
	h.legacy.candidates = []ranking.Candidate{{ID: "p2", Score: 0.80}, {ID: "p1", Score: 0.75}}
	svc := h.service(Options{}, false)

	resp, err := svc.Search(context.Background(), mustRequest(t, "배터리 팩", filter.Filters{}, 2))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Results[0].PartID != "p1" {
		t.Fatalf("expected lexical match first, got %v", ids(resp.Results))
	}
	top := resp.Results[0]
	if top.Scores.BM25 != 1 || top.Scores.Vector != 0.75 {
		t.Errorf("unexpected component scores %+v", top.Scores)
	}
	want := 0.7*0.75 + 0.3*1
	if diff := top.Score - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected hybrid %f, got %f", want, top.Score)
	}
	if top.Reason != "아이오닉5 배터리 팩 추천" {
		t.Errorf("unexpected reason %q", top.Reason)
	}
}

func TestSearch_AlphaZeroRanksByBM25Only(t *testing.T) {
	h := newHarness()
	h.legacy.candidates = []ranking.Candidate{{ID: "p2", Score: 0.99}, {ID: "p1", Score: 0.10}}
	svc := New(Deps{
		Expander:  fakeExpander{},
		Embedder:  h.embedder,
		Backends:  retrieval.NewSelector(h.legacy),
		Catalog:   h.catalog,
		Explainer: h.explainer,
	}, Options{Alpha: 0}, Metrics{}, nil)

	resp, err := svc.Search(context.Background(), mustRequest(t, "배터리 팩", filter.Filters{}, 2))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if ids(resp.Results)[0] != "p1" {
		t.Fatalf("expected lexical match first, got %v", ids(resp.Results))
	}
	for _, r := range resp.Results {
		if r.Score != r.Scores.BM25 {
			t.Errorf("%s: expected score to equal BM25 %f, got %f", r.PartID, r.Scores.BM25, r.Score)
		}
	}
}

func TestSearch_RetrievalTimeout(t *testing.T) {
	h := newHarness()
	stalled := stalledBackend{kind: backend.Legacy}
	svc := New(Deps{
		Expander:  fakeExpander{},
		Embedder:  h.embedder,
		Backends:  retrieval.NewSelector(stalled),
		Catalog:   h.catalog,
		Explainer: h.explainer,
	}, Options{Alpha: ranking.DefaultAlpha, RetrievalTimeout: 50 * time.Millisecond}, Metrics{}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 2))
		done <- err
	}()

	select {
	case err := <-done:
		if !errors.Is(err, domain.ErrRetrievalFailed) {
			t.Fatalf("expected ErrRetrievalFailed, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline in chain, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Search did not return after the retrieval timeout")
	}
	if h.catalog.asked != nil {
		t.Error("catalog should not be read after a failed retrieval")
	}
}

func TestSearch_RecordsMetrics(t *testing.T) {
	h := newHarness()
	selections := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_selections"}, []string{"backend"})
	retrievalHist := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_retrieval"}, []string{"backend", "status"})
	svc := New(Deps{
		Expander:  fakeExpander{},
		Embedder:  h.embedder,
		Backends:  retrieval.NewSelector(h.legacy),
		Catalog:   h.catalog,
		Explainer: h.explainer,
	}, Options{Alpha: ranking.DefaultAlpha}, Metrics{Selections: selections, Retrieval: retrievalHist}, nil)

	if _, err := svc.Search(context.Background(), mustRequest(t, "배터리", filter.Filters{}, 2)); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if v := testutil.ToFloat64(selections.WithLabelValues(string(backend.Legacy))); v != 1 {
		t.Errorf("expected one legacy selection, got %f", v)
	}
	if n := testutil.CollectAndCount(retrievalHist); n != 1 {
		t.Errorf("expected one retrieval series, got %d", n)
	}
}

// TestSearch_BatteryEndToEnd wires the real ranking, expansion, embedding and
// explanation components over in-memory stores.
func TestSearch_BatteryEndToEnd(t *testing.T) {
	gen := &scriptedGenerator{
		expansion:   `["리튬이온 배터리", "EV 배터리 팩"]`,
		explanation: "```json\n[\"SOH 92%의 고용량 팩입니다\", \"저렴한 교체용 모듈입니다\"]\n```",
	}
	emb := &vectorTable{vectors: map[string][]float32{
		"배터리":       {1, 0},
		"리튬이온 배터리":  {0.9, 0.1},
		"EV 배터리 팩": {1, 0.2},
	}}
	vs := &vectorFiles{vectors: map[string][]float32{
		"parts/p1.json": {1, 0},
		"parts/p2.json": {0, 1},
		"parts/p3.json": {0.9, 0.3},
	}}

	cache := newFakeCache()
	svc := New(Deps{
		Cache:     cache,
		Expander:  query.NewExpander(gen, query.ExpanderOptions{Enabled: true, Timeout: time.Second}, nil, nil),
		Embedder:  query.NewMultiEmbedder(emb, 2, nil),
		Backends:  retrieval.NewSelector(retrieval.NewLegacy(vs, retrieval.LegacyOptions{}, nil, nil)),
		Catalog:   &fakeCatalog{parts: catalogParts()},
		Explainer: explain.New(gen, explain.Options{Enabled: true, Timeout: time.Second}, nil, nil),
	}, Options{Alpha: ranking.DefaultAlpha}, Metrics{}, nil)

	ctx := context.Background()
	resp, err := svc.Search(ctx, mustRequest(t, "배터리", filter.Filters{}, 2))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if !reflect.DeepEqual(resp.ExpandedQueries, []string{"배터리", "리튬이온 배터리", "EV 배터리 팩"}) {
		t.Errorf("unexpected expansion %v", resp.ExpandedQueries)
	}
	got := ids(resp.Results)
	if len(got) != 2 || (got[0] != "p1" && got[0] != "p3") || (got[1] != "p1" && got[1] != "p3") {
		t.Fatalf("expected the two batteries, got %v", got)
	}
	if resp.Results[0].Score < resp.Results[1].Score {
		t.Errorf("results not sorted by hybrid score: %v", resp.Results)
	}
	if resp.Results[0].Reason != "SOH 92%의 고용량 팩입니다" {
		t.Errorf("unexpected reason %q", resp.Results[0].Reason)
	}
	for _, r := range resp.Results {
		if r.Part.Images == nil {
			t.Errorf("projection images must be non-nil for %s", r.PartID)
		}
	}

	kia := mustFilters(t, "", "기아", nil, nil)
	hit, err := svc.Search(ctx, mustRequest(t, "배터리", kia, 2))
	if err != nil {
		t.Fatalf("cached Search: %v", err)
	}
	if !hit.Cached || hit.Count != 0 {
		t.Errorf("expected cached empty view for 기아, got %+v", hit)
	}

	hit, err = svc.Search(ctx, mustRequest(t, "배터리", filter.Filters{}, 2))
	if err != nil {
		t.Fatalf("cached Search: %v", err)
	}
	if !reflect.DeepEqual(ids(hit.Results), got) || hit.Results[0].Reason != resp.Results[0].Reason {
		t.Errorf("cached snapshot differs: %v vs %v", ids(hit.Results), got)
	}
	if cache.entries["배터리"].HitCount != 3 {
		t.Errorf("expected hitCount 3, got %d", cache.entries["배터리"].HitCount)
	}
}
