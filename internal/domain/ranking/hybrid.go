package ranking

import "sort"

// DefaultAlpha weights the vector score in hybrid fusion.
const DefaultAlpha = 0.7

// HybridMatch is a fused result that keeps both component scores.
type HybridMatch struct {
	ID          string
	Score       float64
	VectorScore float64
	BM25Score   float64
}

// HybridScore = alpha*vector + (1-alpha)*bm25.
func HybridScore(vectorScore, bm25Score, alpha float64) float64 {
	return alpha*vectorScore + (1-alpha)*bm25Score
}

// HybridSearch fuses vector results with normalized BM25 scores of docs for queryText.
// A vector result without a matching document gets BM25 score 0.
// Output is sorted by fused score, highest first, stable for exact ties.
func (m BM25) HybridSearch(vectorResults []Candidate, docs []Document, queryText string, alpha float64) []HybridMatch {
	normalized := NormalizeScores(m.Scores(queryText, docs))

	lexical := make(map[string]float64, len(docs))
	for i, d := range docs {
		if _, dup := lexical[d.ID]; !dup {
			lexical[d.ID] = normalized[i]
		}
	}

	out := make([]HybridMatch, len(vectorResults))
	for i, c := range vectorResults {
		bm25 := lexical[c.ID]
		out[i] = HybridMatch{
			ID:          c.ID,
			Score:       HybridScore(c.Score, bm25, alpha),
			VectorScore: c.Score,
			BM25Score:   bm25,
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
