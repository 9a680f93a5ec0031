// Package vectorindex queries server-side ANN indexes over part vectors.
package vectorindex

import (
	"sort"

	"github.com/eecar/partsearch/internal/domain/search/filter"
)

// IDField is the payload/hash field holding the part id next to each vector.
const IDField = "partId"

// Neighbor is one index hit. Distance is cosine distance: 0 is identical.
type Neighbor struct {
	ID       string
	Distance float64
}

func sortByDistance(ns []Neighbor) {
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].Distance < ns[j].Distance })
}

func hasFilter(eq filter.Equality) bool {
	return !eq.IsZero() && eq.Value != ""
}
