package result

import (
	"github.com/eecar/partsearch/internal/domain/part"
	"github.com/eecar/partsearch/internal/domain/search/filter"
)

// FallbackReason is shown when no model-written explanation is available.
const FallbackReason = "유사도 기반 매칭"

// Scores keeps the fusion components for transparency.
type Scores struct {
	Hybrid float64 `json:"hybrid"`
	Vector float64 `json:"vector"`
	BM25   float64 `json:"bm25"`
}

// Result is a single ranked part. It is also the cached snapshot format.
type Result struct {
	PartID string          `json:"partId"`
	Score  float64         `json:"score"`
	Scores Scores          `json:"searchScores"`
	Part   part.Projection `json:"part"`
	Reason string          `json:"reason"`
}

// Response is what a search returns to the caller.
type Response struct {
	Results         []Result `json:"results"`
	ExpandedQueries []string `json:"expandedQueries,omitempty"`
	Cached          bool     `json:"cached"`
	Count           int      `json:"count"`
}

// View applies post-ranking filters and truncates to topK without reordering.
// The input slice is not modified.
func View(results []Result, f filter.Filters, topK int) []Result {
	out := make([]Result, 0, min(len(results), max(topK, 0)))
	for _, r := range results {
		if topK > 0 && len(out) == topK {
			break
		}
		if !f.Matches(r.Part) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// NewResponse builds a response over a filtered view of results.
func NewResponse(results []Result, expanded []string, cached bool) Response {
	if results == nil {
		results = []Result{}
	}
	return Response{
		Results:         results,
		ExpandedQueries: expanded,
		Cached:          cached,
		Count:           len(results),
	}
}

// Match is a part ranked by a structured attribute search.
// Part is the full record so buyers see the properties that were matched.
type Match struct {
	PartID string    `json:"partId"`
	Score  float64   `json:"score"`
	Part   part.Part `json:"part"`
	Reason string    `json:"reason"`
}

// MatchResponse is what an attribute search returns. Attribute searches are never cached.
type MatchResponse struct {
	Results []Match `json:"results"`
	Cached  bool    `json:"cached"`
	Count   int     `json:"count"`
}

// NewMatchResponse wraps ranked matches.
func NewMatchResponse(matches []Match) MatchResponse {
	if matches == nil {
		matches = []Match{}
	}
	return MatchResponse{Results: matches, Count: len(matches)}
}
