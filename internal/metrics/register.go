package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "partsearch"

var registerOnce sync.Once

// RegisterMetrics registers every partsearch collector with the default
// registry. Safe to call more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationTokensTotal,
			GenerationErrorsTotal,
			QueryCacheTotal,
			BackendSelectionsTotal,
			RetrievalDuration,
			ExpansionFallbacksTotal,
			ExplanationFallbacksTotal,
			LegacyTruncatedTotal,
			AttributeSearchDuration,
			HTTPRequestDuration,
			HTTPRequestsTotal,
			HTTPInFlight,
		)
	})
}
