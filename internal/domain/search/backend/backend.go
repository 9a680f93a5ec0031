// Package backend names the retrieval backends and decides which one serves a request.
package backend

// Kind identifies a retrieval backend.
type Kind string

// Backend kinds in fallback order.
const (
	// KnowledgeBase is managed text-in retrieval.
	KnowledgeBase Kind = "knowledge_base"
	// VectorIndex is a server-side vector index queried with the merged query vector.
	VectorIndex Kind = "vector_index"
	// Legacy is a client-side brute-force cosine scan over stored vectors.
	Legacy Kind = "legacy"
)

// NeedsVector reports whether the backend consumes a query embedding.
func (k Kind) NeedsVector() bool {
	return k != KnowledgeBase
}

// Flags are the feature switches plus whether each backend is actually configured.
type Flags struct {
	UseKnowledgeBase        bool
	KnowledgeBaseConfigured bool
	UseVectorIndex          bool
	VectorIndexConfigured   bool
}

// Select picks exactly one backend: KnowledgeBase, then VectorIndex, then Legacy.
func Select(f Flags) Kind {
	switch {
	case f.UseKnowledgeBase && f.KnowledgeBaseConfigured:
		return KnowledgeBase
	case f.UseVectorIndex && f.VectorIndexConfigured:
		return VectorIndex
	default:
		return Legacy
	}
}
