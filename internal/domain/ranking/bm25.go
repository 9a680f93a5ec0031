package ranking

import "math"

// Default BM25 constants.
const (
	DefaultK1 = 1.2
	DefaultB  = 0.75
)

// Document is a part rendered as plain text for lexical scoring.
type Document struct {
	ID   string
	Text string
}

// BM25 holds Okapi BM25 tuning constants.
// K1 controls term-frequency saturation, B the strength of length normalization.
type BM25 struct {
	K1 float64
	B  float64
}

// DefaultBM25 returns k1=1.2, b=0.75.
func DefaultBM25() BM25 {
	return BM25{K1: DefaultK1, B: DefaultB}
}

// Score computes the BM25 score of one tokenized document against a corpus.
// Each unique query token contributes once; tokens absent from the document add 0.
func (m BM25) Score(queryTokens, docTokens []string, corpus [][]string) float64 {
	if len(queryTokens) == 0 || len(docTokens) == 0 || len(corpus) == 0 {
		return 0
	}
	return m.score(uniqueTokens(queryTokens), docTokens, newCorpusStats(corpus))
}

// Scores tokenizes the query and every document once and scores each document
// against the shared corpus. Output order matches docs.
func (m BM25) Scores(queryText string, docs []Document) []float64 {
	scores := make([]float64, len(docs))
	if len(docs) == 0 {
		return scores
	}

	query := uniqueTokens(Tokenize(queryText))
	if len(query) == 0 {
		return scores
	}

	corpus := make([][]string, len(docs))
	for i, d := range docs {
		corpus[i] = Tokenize(d.Text)
	}
	stats := newCorpusStats(corpus)

	for i, tokens := range corpus {
		scores[i] = m.score(query, tokens, stats)
	}
	return scores
}

func (m BM25) score(query, doc []string, stats corpusStats) float64 {
	if len(doc) == 0 || stats.avgLen == 0 {
		return 0
	}

	tf := make(map[string]int, len(doc))
	for _, t := range doc {
		tf[t]++
	}

	docLen := float64(len(doc))
	var total float64
	for _, term := range query {
		f, ok := tf[term]
		if !ok {
			continue
		}
		idf := stats.idf(term)
		freq := float64(f)
		denom := freq + m.K1*(1-m.B+m.B*docLen/stats.avgLen)
		total += idf * (freq * (m.K1 + 1)) / denom
	}
	return total
}

type corpusStats struct {
	n      float64
	avgLen float64
	df     map[string]int
}

func newCorpusStats(corpus [][]string) corpusStats {
	stats := corpusStats{n: float64(len(corpus)), df: make(map[string]int)}
	var totalLen int
	for _, doc := range corpus {
		totalLen += len(doc)
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			stats.df[t]++
		}
	}
	if len(corpus) > 0 {
		stats.avgLen = float64(totalLen) / stats.n
	}
	return stats
}

// idf = ln((N - n + 0.5)/(n + 0.5) + 1), always positive.
func (s corpusStats) idf(term string) float64 {
	n := float64(s.df[term])
	return math.Log((s.n-n+0.5)/(n+0.5) + 1)
}

// NormalizeScores rescales scores to [0,1] with min-max.
// When all scores are equal, including all zero, every score becomes 1.
func NormalizeScores(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}

	spread := hi - lo
	for i, s := range scores {
		if spread == 0 {
			out[i] = 1
			continue
		}
		out[i] = (s - lo) / spread
	}
	return out
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
