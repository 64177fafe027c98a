package models

import (
	"math"
	"strings"

	"github.com/roach88/attune/internal/domain"
)

const (
	comfortTemperatureC   = 21.0
	maxTemperaturePenalty = 30
	busyDayThreshold      = 4
	maxSchedulePenalty    = 20
)

var conditionScores = map[string]int{
	"clear":         80,
	"sunny":         80,
	"partly_cloudy": 70,
	"cloudy":        58,
	"overcast":      58,
	"fog":           52,
	"snow":          50,
	"rain":          45,
	"storm":         30,
	"thunderstorm":  30,
}

const unknownConditionScore = 60

// Environment scores caller-supplied weather and schedule load. It soft-skips
// when no weather is supplied.
type Environment struct{}

func (Environment) ID() domain.ModelID { return EnvironmentID }

func (Environment) Compute(in Input) (domain.ModelReading, bool) {
	if in.Env == nil || in.Env.Weather == nil {
		return domain.ModelReading{}, false
	}
	w := in.Env.Weather
	condition := normalizeCondition(w.Condition)

	score, known := conditionScores[condition]
	if !known {
		score = unknownConditionScore
		condition = "unknown_weather"
	}

	penalty := int(math.Round(math.Abs(w.TemperatureC-comfortTemperatureC) * 1.5))
	if penalty > maxTemperaturePenalty {
		penalty = maxTemperaturePenalty
	}
	score -= penalty

	if n := in.Env.ScheduledEvents; n != nil && *n > busyDayThreshold {
		score -= min(maxSchedulePenalty, (*n-busyDayThreshold)*4)
	}
	return reading(EnvironmentID, score, condition), true
}

func normalizeCondition(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(c)
}
