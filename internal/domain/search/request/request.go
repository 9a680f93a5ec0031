package request

import (
	"fmt"
	"strings"

	"github.com/eecar/partsearch/internal/domain"
	"github.com/eecar/partsearch/internal/domain/search/filter"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in bytes.
	MaxQueryLength = 1024
	DefaultTopK    = 10
	MaxTopK        = 50
)

// Request is a validated search query.
type Request struct {
	query   string
	filters filter.Filters
	topK    int
}

// New validates and normalizes search parameters.
// topK <= 0 becomes DefaultTopK; values above maxTopK are clamped (maxTopK <= 0 means MaxTopK).
func New(query string, filters filter.Filters, topK, maxTopK int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required: %w", domain.ErrInvalidQuery)
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d bytes): %w", MaxQueryLength, domain.ErrInvalidQuery)
	}
	return Request{query: query, filters: filters, topK: clampTopK(topK, maxTopK)}, nil
}

func clampTopK(topK, maxTopK int) int {
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return min(topK, maxTopK)
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Filters returns the post-ranking filters.
func (r *Request) Filters() filter.Filters { return r.filters }

// TopK returns the number of results to return.
func (r *Request) TopK() int { return r.topK }
