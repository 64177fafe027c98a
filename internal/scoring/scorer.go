// Package scoring blends model sub-scores into one DailyEnergyReading.
package scoring

import (
	"math"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/models"
)

// NeutralComposite is returned when no model can compute.
const NeutralComposite = 50

// Scorer combines registered models with a personalization snapshot.
// A Scorer holds no mutable state and is safe for concurrent use.
type Scorer struct {
	models []models.Model
	cfg    Config
}

// NewScorer creates a scorer over ms. A nil ms means every registered model.
func NewScorer(ms []models.Model, cfg Config) *Scorer {
	if ms == nil {
		ms = models.All()
	}
	cp := make([]models.Model, len(ms))
	copy(cp, ms)
	return &Scorer{models: cp, cfg: cfg}
}

// Models returns the ids the scorer runs, in order.
func (s *Scorer) Models() []domain.ModelID {
	ids := make([]domain.ModelID, len(s.models))
	for i, m := range s.models {
		ids[i] = m.ID()
	}
	return ids
}

// SubScores runs every model without applying personalization. The result
// maps model id to sub-score for the models that computed.
func (s *Scorer) SubScores(profile domain.BirthProfile, date domain.Date, env *domain.Environment) map[domain.ModelID]int {
	out := make(map[domain.ModelID]int, len(s.models))
	in := models.Input{Profile: profile, Date: date, Env: env}
	for _, m := range s.models {
		if r, ok := m.Compute(in); ok {
			out[m.ID()] = r.SubScore
		}
	}
	return out
}

// Score produces the reading for (profile, date, env) under the snapshot p.
// It never fails: missing inputs degrade confidence and mark the reading
// incomplete.
func (s *Scorer) Score(profile domain.BirthProfile, date domain.Date, env *domain.Environment, p domain.PersonalizationProfile) domain.DailyEnergyReading {
	reading := domain.DailyEnergyReading{
		ProfileID: profile.ID,
		Date:      date,
		Models:    []domain.ModelReading{},
		Skipped:   []domain.ModelID{},
	}

	in := models.Input{Profile: profile, Date: date, Env: env}
	for _, m := range s.models {
		r, ok := m.Compute(in)
		if !ok {
			reading.Skipped = append(reading.Skipped, m.ID())
			continue
		}
		base := s.cfg.baseWeight(r.ModelID, r.Weight)
		r.Weight = base
		r.EffectiveWeight = effectiveWeight(base, p.AdjustmentFor(string(r.ModelID)))
		reading.Models = append(reading.Models, r)
	}
	reading.Incomplete = len(reading.Skipped) > 0

	if len(reading.Models) == 0 {
		reading.Composite = NeutralComposite
		reading.Confidence = 0
		reading.Alignment = domain.AlignmentModerate
		reading.Incomplete = true
		reading.BestFor, reading.Avoid = suggestionsFor(reading.Alignment, "")
		return withID(reading)
	}

	reading.Composite = composite(reading.Models)
	reading.Confidence = s.confidence(reading.Models, p)
	reading.Alignment = domain.AlignmentFor(reading.Composite)

	dominant := dominantModel(reading.Models)
	reading.Dominant = dominant.ModelID
	reading.BestFor, reading.Avoid = suggestionsFor(reading.Alignment, dominant.Label)
	return withID(reading)
}

func withID(r domain.DailyEnergyReading) domain.DailyEnergyReading {
	// Canonical marshaling only fails on non-finite floats, which clamped
	// weights never produce.
	if id, err := domain.ReadingID(r); err == nil {
		r.ID = id
	}
	return r
}

// effectiveWeight adds a personalization delta to base and clamps the sum
// to [0, 2×base]. The delta is in absolute weight units.
func effectiveWeight(base, delta float64) float64 {
	return math.Max(0, math.Min(2*base, base+delta))
}

func composite(readings []domain.ModelReading) int {
	var num, den float64
	for _, r := range readings {
		num += float64(r.SubScore) * r.EffectiveWeight
		den += r.EffectiveWeight
	}
	if den == 0 {
		num = 0
		for _, r := range readings {
			num += float64(r.SubScore)
		}
		den = float64(len(readings))
	}
	return clamp(int(math.Round(num/den)), domain.MinScore, domain.MaxScore)
}

func (s *Scorer) confidence(readings []domain.ModelReading, p domain.PersonalizationProfile) int {
	c := float64(s.cfg.BaseConfidence + s.cfg.PerModelBonus*(len(readings)-1))

	var evidence float64
	for _, r := range readings {
		f, ok := p.Factor(string(r.ModelID))
		if !ok || !f.Active() {
			continue
		}
		evidence += s.cfg.EvidencePerFactor * float64(f.Confidence) / 100
	}
	c += math.Min(evidence, s.cfg.EvidenceCap)

	return clamp(int(math.Round(c)), domain.MinScore, min(s.cfg.MaxConfidence, domain.MaxScore))
}

// dominantModel returns the reading with the highest subScore×effectiveWeight.
// The first reading wins ties, which keeps registration order.
func dominantModel(readings []domain.ModelReading) domain.ModelReading {
	best := readings[0]
	bestProduct := float64(best.SubScore) * best.EffectiveWeight
	for _, r := range readings[1:] {
		if p := float64(r.SubScore) * r.EffectiveWeight; p > bestProduct {
			best, bestProduct = r, p
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
