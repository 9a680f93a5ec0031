package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/eecar/partsearch/internal/domain"
)

// DefaultTopK is used when a caller passes k <= 0.
const DefaultTopK = 10

// Candidate is the unit passed from retrieval backends to fusion.
// Score is "higher is better" on a backend-specific scale.
type Candidate struct {
	ID    string
	Score float64
}

// VectorCandidate is a stored vector waiting to be scored.
type VectorCandidate struct {
	ID     string
	Vector []float32
}

// CosineSimilarity returns dot(a,b)/(|a||b|) in [-1,1].
// Vectors of different length are a data-integrity error.
// A zero vector has no direction and scores 0 against anything.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine similarity %d vs %d: %w", len(a), len(b), domain.ErrVectorDimMismatch)
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// FindTopKSimilar scores every candidate against query and returns the k best,
// highest first. Equal scores keep their input order.
func FindTopKSimilar(query []float32, candidates []VectorCandidate, k int) ([]Candidate, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if len(candidates) == 0 {
		return []Candidate{}, nil
	}

	scored := make([]Candidate, len(candidates))
	for i, c := range candidates {
		s, err := CosineSimilarity(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		scored[i] = Candidate{ID: c.ID, Score: s}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
