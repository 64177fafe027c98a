package scoring

import "github.com/roach88/attune/internal/domain"

// Config holds the tunable constants of the composite scorer.
type Config struct {
	// BaseWeights overrides the weight a model reports. Missing ids keep the
	// model's own weight.
	BaseWeights map[domain.ModelID]float64

	BaseConfidence    int
	PerModelBonus     int
	EvidencePerFactor float64
	EvidenceCap       float64
	MaxConfidence     int
}

// DefaultConfig returns the stock scoring constants.
func DefaultConfig() Config {
	return Config{
		BaseConfidence:    60,
		PerModelBonus:     2,
		EvidencePerFactor: 2,
		EvidenceCap:       15,
		MaxConfidence:     95,
	}
}

func (c Config) baseWeight(id domain.ModelID, reported float64) float64 {
	if w, ok := c.BaseWeights[id]; ok {
		return w
	}
	return reported
}
