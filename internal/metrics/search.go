package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search pipeline metrics.
var (
	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_total",
			Help:      "Result cache lookups by outcome",
		},
		[]string{"result"}, // hit / miss / expired / error
	)

	BackendSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_selections_total",
			Help:      "Retrieval backend chosen per uncached request",
		},
		[]string{"backend"},
	)

	RetrievalDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Candidate retrieval duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"backend", "status"},
	)

	ExpansionFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_expansion_fallbacks_total",
			Help:      "Query expansions that fell back to the original query",
		},
		[]string{"reason"},
	)

	ExplanationFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "explanation_fallbacks_total",
			Help:      "Explanation batches that used the fallback reason",
		},
		[]string{"reason"},
	)

	AttributeSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attribute_search_duration_seconds",
			Help:      "Material and battery search duration in seconds, catalog scan included",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind", "status"},
	)

	LegacyTruncatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "legacy_truncated_total",
			Help:      "Legacy scans that hit max_candidates and dropped manifest keys",
		},
	)
)
