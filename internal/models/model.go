package models

import (
	"math"

	"github.com/roach88/attune/internal/domain"
)

// DefaultWeight is the base weight every model reports.
const DefaultWeight = 1.0

// Model ids, in registration order.
const (
	PersonalDayID domain.ModelID = "personal_day"
	LifePathID    domain.ModelID = "life_path"
	KarmicDebtID  domain.ModelID = "karmic_debt"
	BiorhythmID   domain.ModelID = "biorhythm"
	DayBornID     domain.ModelID = "day_born"
	LunarID       domain.ModelID = "lunar"
	DaylightID    domain.ModelID = "daylight"
	EnvironmentID domain.ModelID = "environment"
)

// Input is everything a model may read.
type Input struct {
	Profile domain.BirthProfile
	Date    domain.Date
	Env     *domain.Environment
}

// Model is one deterministic sub-score generator.
type Model interface {
	ID() domain.ModelID

	// Compute returns the model's reading, or ok=false when the input lacks
	// something the model needs.
	Compute(in Input) (reading domain.ModelReading, ok bool)
}

// registered is the static registry. Adding a model means appending here.
var registered = []Model{
	PersonalDay{},
	LifePath{},
	KarmicDebt{},
	Biorhythm{},
	DayBorn{},
	Lunar{},
	Daylight{},
	Environment{},
}

// All returns every registered model in registration order.
// The returned slice is a copy; callers may reorder or filter it freely.
func All() []Model {
	out := make([]Model, len(registered))
	copy(out, registered)
	return out
}

// IDs returns the ids of every registered model in registration order.
func IDs() []domain.ModelID {
	ids := make([]domain.ModelID, len(registered))
	for i, m := range registered {
		ids[i] = m.ID()
	}
	return ids
}

// Lookup finds a registered model by id.
func Lookup(id domain.ModelID) (Model, bool) {
	for _, m := range registered {
		if m.ID() == id {
			return m, true
		}
	}
	return nil, false
}

func reading(id domain.ModelID, score int, label string) domain.ModelReading {
	return domain.ModelReading{
		ModelID:         id,
		SubScore:        clampScore(score),
		Label:           label,
		Weight:          DefaultWeight,
		EffectiveWeight: DefaultWeight,
	}
}

func clampScore(score int) int {
	if score < domain.MinScore {
		return domain.MinScore
	}
	if score > domain.MaxScore {
		return domain.MaxScore
	}
	return score
}

func roundScore(v float64) int {
	return clampScore(int(math.Round(v)))
}
