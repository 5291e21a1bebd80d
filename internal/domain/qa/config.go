package qa

import "time"

// Thresholds are the ascending confidence bands of the decision engine.
type Thresholds struct {
	Low             float64
	Medium          float64
	High            float64
	CloseMatchRatio float64
}

// Config holds runtime knobs for the question answering pipeline.
type Config struct {
	Model          string
	EmbeddingModel string
	Temperature    float32

	Thresholds              Thresholds
	VectorWeaknessThreshold float64
	KeywordDiscount         float64
	SearchLimit             int
	VagueSearchLimit        int

	RerankTopK  int
	RerankBlend float64

	CacheEnabled bool
	CacheTTL     time.Duration

	EmbedMaxTokens   int
	ContextBudget    int
	SynthesizeMedium bool
}

// DefaultConfig returns the canonical deployment defaults.
func DefaultConfig() Config {
	return Config{
		Model:          "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		Temperature:    0.3,
		Thresholds: Thresholds{
			Low:             0.20,
			Medium:          0.35,
			High:            0.55,
			CloseMatchRatio: 0.85,
		},
		VectorWeaknessThreshold: 0.5,
		KeywordDiscount:         0.8,
		SearchLimit:             10,
		VagueSearchLimit:        3,
		RerankTopK:              5,
		RerankBlend:             0.6,
		CacheEnabled:            true,
		CacheTTL:                6 * time.Hour,
		EmbedMaxTokens:          8000,
		ContextBudget:           3000,
		SynthesizeMedium:        true,
	}
}
