package models

import (
	"math"
	"time"

	"github.com/roach88/attune/internal/domain"
)

// Biorhythm cycle lengths in days.
const (
	physicalCycle     = 23
	emotionalCycle    = 28
	intellectualCycle = 33
)

// Biorhythm averages the physical, emotional and intellectual sine cycles
// measured from the birth date and maps the mean from [-1,1] onto [0,100].
type Biorhythm struct{}

func (Biorhythm) ID() domain.ModelID { return BiorhythmID }

func (Biorhythm) Compute(in Input) (domain.ModelReading, bool) {
	birth := in.Profile.BirthDate
	if birth.IsZero() {
		return domain.ModelReading{}, false
	}
	days := in.Date.DaysSince(birth)
	if days < 0 {
		return domain.ModelReading{}, false
	}

	mean := (cycle(days, physicalCycle) + cycle(days, emotionalCycle) + cycle(days, intellectualCycle)) / 3
	score := roundScore(50 + 50*mean)

	label := "balanced_cycle"
	switch {
	case score >= 65:
		label = "high_cycle"
	case score <= 35:
		label = "low_cycle"
	}
	return reading(BiorhythmID, score, label), true
}

func cycle(days, period int) float64 {
	return math.Sin(2 * math.Pi * float64(days) / float64(period))
}

var dayBornTable = []numerologyEntry{
	{85, "birth_weekday"},
	{70, "adjacent_weekday"},
	{60, "neutral_weekday"},
	{45, "opposing_weekday"},
}

// DayBorn favours the weekday the person was born on, decaying with
// circular weekday distance.
type DayBorn struct{}

func (DayBorn) ID() domain.ModelID { return DayBornID }

func (DayBorn) Compute(in Input) (domain.ModelReading, bool) {
	if in.Profile.BirthDate.IsZero() {
		return domain.ModelReading{}, false
	}
	diff := int(in.Date.Weekday()) - int(in.Profile.BirthDate.Weekday())
	if diff < 0 {
		diff = -diff
	}
	if 7-diff < diff {
		diff = 7 - diff
	}
	entry := dayBornTable[diff]
	return reading(DayBornID, entry.score, entry.label), true
}

// Lunar reference new moon and mean synodic month.
var referenceNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

const synodicMonth = 29.530588853

var lunarPhases = []numerologyEntry{
	{55, "new_moon"},
	{65, "waxing_crescent"},
	{70, "first_quarter"},
	{78, "waxing_gibbous"},
	{85, "full_moon"},
	{68, "waning_gibbous"},
	{55, "last_quarter"},
	{48, "waning_crescent"},
}

// Lunar scores the moon phase at noon UTC of the target date. It does not
// depend on the profile.
type Lunar struct{}

func (Lunar) ID() domain.ModelID { return LunarID }

func (Lunar) Compute(in Input) (domain.ModelReading, bool) {
	idx := LunarPhaseIndex(in.Date)
	entry := lunarPhases[idx]
	return reading(LunarID, entry.score, entry.label), true
}

// LunarPhaseIndex returns the phase bucket 0..7 (0 is new moon, 4 is full).
func LunarPhaseIndex(d domain.Date) int {
	noon := d.Time().Add(12 * time.Hour)
	age := math.Mod(noon.Sub(referenceNewMoon).Hours()/24, synodicMonth)
	if age < 0 {
		age += synodicMonth
	}
	return int(math.Floor(age/synodicMonth*8+0.5)) % 8
}
