// Package correlation learns per-factor weight adjustments by comparing
// outcome success rates on high-factor days against the rest.
//
// Analyze is a pure function. Reading history, persistence and locking are
// the caller's concern.
package correlation

import (
	"math"
	"time"

	"github.com/roach88/attune/internal/domain"
)

// Signal is a lifestyle factor carried on outcomes. A value at or above
// Threshold puts the outcome in the signal's high bucket.
type Signal struct {
	Name      string  `koanf:"name" json:"name"`
	Threshold float64 `koanf:"threshold" json:"threshold"`
}

// Config holds the tunable analyzer constants.
type Config struct {
	Sensitivity         float64
	HighThreshold       int
	MinSamples          int
	MaxDelta            float64
	ConfidenceBase      int
	ConfidencePerSample int
	ConfidenceCap       int
	PredictSuccessAt    int
	PredictFailureBelow int
	Signals             []Signal
}

// DefaultConfig returns the stock analyzer constants.
func DefaultConfig() Config {
	return Config{
		Sensitivity:         1.0,
		HighThreshold:       domain.StrongThreshold,
		MinSamples:          domain.MinFactorSamples,
		MaxDelta:            domain.MaxWeightDelta,
		ConfidenceBase:      50,
		ConfidencePerSample: 5,
		ConfidenceCap:       95,
		PredictSuccessAt:    70,
		PredictFailureBelow: 55,
		Signals: []Signal{
			{Name: "sleep_hours", Threshold: 7},
			{Name: "exercise_minutes", Threshold: 30},
		},
	}
}

// Observation pairs an outcome with the model sub-scores of its date.
// A model missing from SubScores had no value that day.
type Observation struct {
	Outcome   domain.OutcomeRecord
	SubScores map[domain.ModelID]int
}

// Analyzer computes personalization profiles.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer. MaxDelta is capped at
// domain.MaxWeightDelta and MinSamples is raised to domain.MinFactorSamples.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.MaxDelta <= 0 || cfg.MaxDelta > domain.MaxWeightDelta {
		cfg.MaxDelta = domain.MaxWeightDelta
	}
	if cfg.MinSamples < domain.MinFactorSamples {
		cfg.MinSamples = domain.MinFactorSamples
	}
	return &Analyzer{cfg: cfg}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze builds a fresh profile from obs. Model factors come first in the
// order of modelIDs, then configured signals in config order. Only factors
// with at least MinSamples high-bucket outcomes are emitted.
//
// With zero observations the previous profile is returned unchanged except
// that TotalOutcomesConsidered is 0.
func (a *Analyzer) Analyze(profileID string, obs []Observation, modelIDs []domain.ModelID, previous domain.PersonalizationProfile, now time.Time) domain.PersonalizationProfile {
	if len(obs) == 0 {
		out := previous.Clone()
		out.ProfileID = profileID
		if out.Factors == nil {
			out.Factors = []domain.AdjustmentFactor{}
		}
		out.TotalOutcomesConsidered = 0
		return out
	}

	now = now.UTC()
	p := domain.PersonalizationProfile{
		ProfileID:               profileID,
		Factors:                 []domain.AdjustmentFactor{},
		TotalOutcomesConsidered: len(obs),
		ComputedAt:              now,
	}

	for _, id := range modelIDs {
		f, ok := a.factor(string(id), obs, func(o Observation) (bool, bool) {
			v, ok := o.SubScores[id]
			return v >= a.cfg.HighThreshold, ok
		}, now)
		if ok {
			p.Factors = append(p.Factors, f)
		}
	}
	for _, sig := range a.cfg.Signals {
		f, ok := a.factor(sig.Name, obs, func(o Observation) (bool, bool) {
			v, ok := o.Outcome.Signals[sig.Name]
			return v >= sig.Threshold, ok
		}, now)
		if ok {
			p.Factors = append(p.Factors, f)
		}
	}

	p.OverallAccuracy, p.PredictionsConsidered = a.accuracy(obs)
	return p
}

type bucket struct {
	count     int
	successes int
}

func (b bucket) rate() float64 {
	if b.count == 0 {
		return 0
	}
	return float64(b.successes) / float64(b.count)
}

func (b *bucket) add(o domain.OutcomeRecord) {
	b.count++
	if o.Result == domain.ResultSuccess {
		b.successes++
	}
}

// factor partitions obs by classify, which reports (high, hasValue).
func (a *Analyzer) factor(id string, obs []Observation, classify func(Observation) (bool, bool), now time.Time) (domain.AdjustmentFactor, bool) {
	var high, baseline bucket
	for _, o := range obs {
		isHigh, has := classify(o)
		if !has {
			continue
		}
		if isHigh {
			high.add(o.Outcome)
		} else {
			baseline.add(o.Outcome)
		}
	}
	if high.count < a.cfg.MinSamples {
		return domain.AdjustmentFactor{}, false
	}

	// An empty baseline falls back to the overall rate, which is then the
	// high rate itself.
	baseRate := baseline.rate()
	if baseline.count == 0 {
		baseRate = high.rate()
	}

	delta := (high.rate() - baseRate) * a.cfg.Sensitivity
	delta = math.Max(-a.cfg.MaxDelta, math.Min(a.cfg.MaxDelta, delta))

	return domain.AdjustmentFactor{
		FactorID:            id,
		WeightDelta:         round4(delta),
		SampleSize:          high.count,
		BaselineSize:        baseline.count,
		SuccessRateHigh:     round4(high.rate()),
		SuccessRateBaseline: round4(baseRate),
		Confidence:          a.confidence(high.count),
		LastComputed:        now,
	}, true
}

func (a *Analyzer) confidence(samples int) int {
	return min(a.cfg.ConfidenceCap, a.cfg.ConfidenceBase+a.cfg.ConfidencePerSample*samples, domain.MaxScore)
}

// accuracy scores logged composites as predictions: at or above
// PredictSuccessAt predicts success, below PredictFailureBelow predicts
// failure, and the band between makes no prediction.
func (a *Analyzer) accuracy(obs []Observation) (accuracy, predictions int) {
	correct := 0
	for _, o := range obs {
		score := o.Outcome.CompositeScoreAtLogging
		switch {
		case score >= a.cfg.PredictSuccessAt:
			predictions++
			if o.Outcome.Result == domain.ResultSuccess {
				correct++
			}
		case score < a.cfg.PredictFailureBelow:
			predictions++
			if o.Outcome.Result == domain.ResultFailure {
				correct++
			}
		}
	}
	if predictions == 0 {
		return 0, 0
	}
	return int(math.Round(100 * float64(correct) / float64(predictions))), predictions
}

func round4(v float64) float64 {
	r := math.Round(v*10000) / 10000
	if r == 0 {
		return 0
	}
	return r
}
