package retrieval

import "github.com/eecar/partsearch/internal/domain/search/backend"

// Selector resolves a backend kind to its implementation.
type Selector struct {
	legacy   Backend
	backends map[backend.Kind]Backend
}

// NewSelector registers backends by their Kind. legacy is the fallback and must not be nil.
// Nil entries in others are ignored.
func NewSelector(legacy Backend, others ...Backend) *Selector {
	s := &Selector{legacy: legacy, backends: map[backend.Kind]Backend{legacy.Kind(): legacy}}
	for _, b := range others {
		if b != nil {
			s.backends[b.Kind()] = b
		}
	}
	return s
}

// Configured reports whether a backend of kind k was registered.
func (s *Selector) Configured(k backend.Kind) bool {
	_, ok := s.backends[k]
	return ok
}

// Backend returns the backend for k, or Legacy when k is not wired.
func (s *Selector) Backend(k backend.Kind) Backend {
	if b, ok := s.backends[k]; ok {
		return b
	}
	return s.legacy
}
