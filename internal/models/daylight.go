package models

import (
	"math"

	"github.com/roach88/attune/internal/domain"
)

// axialTilt is the Earth's obliquity in degrees.
const axialTilt = 23.44

// Daylight scores the hours of daylight at the birth latitude on the target
// date. Longer days score higher. Soft-skips without birth coordinates.
type Daylight struct{}

func (Daylight) ID() domain.ModelID { return DaylightID }

func (Daylight) Compute(in Input) (domain.ModelReading, bool) {
	if !in.Profile.HasLocation() {
		return domain.ModelReading{}, false
	}
	hours := DaylightHours(in.Profile.BirthPlace.Latitude, in.Date)
	score := roundScore(30 + (hours-8)*7.5)

	label := "balanced_daylight"
	switch {
	case hours >= 14:
		label = "long_daylight"
	case hours <= 10:
		label = "short_daylight"
	}
	return reading(DaylightID, score, label), true
}

// DaylightHours approximates day length from solar declination.
func DaylightHours(latitude float64, d domain.Date) float64 {
	decl := axialTilt * math.Sin(2*math.Pi*float64(284+d.YearDay())/365)
	cosH := -math.Tan(radians(latitude)) * math.Tan(radians(decl))
	cosH = math.Max(-1, math.Min(1, cosH))
	return 24 * math.Acos(cosH) / math.Pi
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
