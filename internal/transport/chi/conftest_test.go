package chi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/search/request"
	"github.com/eecar/partsearch/internal/domain/search/result"
	healthuc "github.com/eecar/partsearch/internal/usecase/health"
)

type fakeSearcher struct {
	resp  result.Response
	err   error
	last  request.Request
	calls int
	panic bool
}

func (f *fakeSearcher) Search(ctx context.Context, req request.Request) (result.Response, error) {
	if f.panic {
		panic("boom")
	}
	f.calls++
	f.last = req
	domain.UsageFromContext(ctx).AddEmbeddingTokens(7)
	domain.UsageFromContext(ctx).AddGenerationTokens(11)
	return f.resp, f.err
}

type fakeAttributes struct {
	resp     result.MatchResponse
	err      error
	material request.Material
	battery  request.Battery
	calls    int
}

func (f *fakeAttributes) Materials(_ context.Context, req request.Material) (result.MatchResponse, error) {
	f.calls++
	f.material = req
	return f.resp, f.err
}

func (f *fakeAttributes) Batteries(_ context.Context, req request.Battery) (result.MatchResponse, error) {
	f.calls++
	f.battery = req
	return f.resp, f.err
}

type fakeHealth struct{ report healthuc.Report }

func (f fakeHealth) Check(context.Context) healthuc.Report { return f.report }

func sampleResponse() result.Response {
	return result.NewResponse([]result.Result{{
		PartID: "p1",
		Score:  0.91,
		Scores: result.Scores{Hybrid: 0.91, Vector: 0.87, BM25: 1},
		Part: part.Projection{
			Name: "아이오닉5 배터리 팩", Category: part.CategoryBattery, Manufacturer: "현대",
			Price: 8500000, Quantity: 2, Images: []string{},
		},
		Reason: "SOH 92%의 고용량 팩입니다",
	}}, []string{"배터리", "리튬이온 배터리"}, false)
}

func newTestServer(s *fakeSearcher, h fakeHealth, apiKeys ...string) http.Handler {
	return NewServer(s, &fakeAttributes{}, h, 0, nil).Router(apiKeys)
}

func newAttributeServer(a *fakeAttributes) http.Handler {
	return NewServer(&fakeSearcher{}, a, fakeHealth{}, 0, nil).Router(nil)
}

func postSearch(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	return post(t, h, "/api/search", body)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
