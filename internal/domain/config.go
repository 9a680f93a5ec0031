package domain

// VectorConfig describes how part vectors were produced.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
}

// DefaultVectorConfig returns the configuration the part vectors were indexed with.
// Older catalogs may still hold 1536-dim vectors; cmd/vectorcheck reports them.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "amazon.titan-embed-text-v2:0",
		Dimensions:     1024,
		DistanceMetric: "cosine",
	}
}
