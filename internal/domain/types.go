package domain

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"
)

// Score bounds shared by sub-scores, composites and confidences.
const (
	MinScore = 0
	MaxScore = 100
)

// Alignment thresholds. Alignment is a total function of the composite score.
const (
	StrongThreshold   = 70
	ModerateThreshold = 45
)

// MinFactorSamples is the evidence floor below which an AdjustmentFactor
// never influences scoring.
const MinFactorSamples = 3

// MaxWeightDelta bounds AdjustmentFactor.WeightDelta in both directions.
const MaxWeightDelta = 0.5

// ModelID identifies one registered model.
type ModelID string

// Place is a named location with geocoordinates.
type Place struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BirthProfile is the identity input to every model.
// It is owned by the onboarding/settings collaborator; the engine never mutates it.
type BirthProfile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	BirthDate  Date   `json:"birth_date"`
	BirthPlace *Place `json:"birth_place,omitempty"`
}

// HasLocation reports whether the profile carries usable coordinates.
func (p BirthProfile) HasLocation() bool {
	return p.BirthPlace != nil
}

// Validate checks the profile for fields every model relies on.
func (p BirthProfile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return NewValidationError("id", "profile id is required")
	}
	if p.BirthDate.IsZero() {
		return NewValidationError("birth_date", "birth date is required")
	}
	if !p.BirthDate.InSupportedRange() {
		return NewValidationError("birth_date", "birth date %s outside supported range", p.BirthDate)
	}
	if p.BirthPlace != nil {
		if !finite(p.BirthPlace.Latitude) || p.BirthPlace.Latitude < -90 || p.BirthPlace.Latitude > 90 {
			return NewValidationError("birth_place.latitude", "latitude %v out of range", p.BirthPlace.Latitude)
		}
		if !finite(p.BirthPlace.Longitude) || p.BirthPlace.Longitude < -180 || p.BirthPlace.Longitude > 180 {
			return NewValidationError("birth_place.longitude", "longitude %v out of range", p.BirthPlace.Longitude)
		}
	}
	return nil
}

// Weather is the caller-supplied weather snapshot for one day.
type Weather struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c"`
}

// Environment carries optional per-call inputs. Any field may be nil; models
// that need an absent input soft-skip.
type Environment struct {
	Weather         *Weather `json:"weather,omitempty"`
	ScheduledEvents *int     `json:"scheduled_events,omitempty"`
}

// Validate checks the inputs that are present. A nil environment is valid.
func (e *Environment) Validate() error {
	if e == nil {
		return nil
	}
	if w := e.Weather; w != nil {
		if strings.TrimSpace(w.Condition) == "" {
			return NewValidationError("weather.condition", "condition must not be empty")
		}
		if !finite(w.TemperatureC) {
			return NewValidationError("weather.temperature_c", "temperature %v is not a finite number", w.TemperatureC)
		}
	}
	if n := e.ScheduledEvents; n != nil && *n < 0 {
		return NewValidationError("scheduled_events", "scheduled events must not be negative, got %d", *n)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ModelReading is one model's output for one date.
type ModelReading struct {
	ModelID         ModelID `json:"model_id"`
	SubScore        int     `json:"sub_score"`
	Label           string  `json:"label"`
	Weight          float64 `json:"weight"`
	EffectiveWeight float64 `json:"effective_weight"`
}

// Alignment is the three-way bucketing of a composite score.
type Alignment string

const (
	AlignmentStrong      Alignment = "strong"
	AlignmentModerate    Alignment = "moderate"
	AlignmentChallenging Alignment = "challenging"
)

// Alignments lists every alignment in descending order of strength.
var Alignments = []Alignment{AlignmentStrong, AlignmentModerate, AlignmentChallenging}

// AlignmentFor buckets a composite score: strong >= 70, moderate in [45, 70),
// challenging < 45.
func AlignmentFor(score int) Alignment {
	switch {
	case score >= StrongThreshold:
		return AlignmentStrong
	case score >= ModerateThreshold:
		return AlignmentModerate
	default:
		return AlignmentChallenging
	}
}

// DailyEnergyReading is the engine's primary output.
//
// It is a pure function of (BirthProfile, Date, PersonalizationProfile
// snapshot, Environment). ID is the content hash of every other field.
type DailyEnergyReading struct {
	ID         string         `json:"id"`
	ProfileID  string         `json:"profile_id"`
	Date       Date           `json:"date"`
	Models     []ModelReading `json:"models"`
	Composite  int            `json:"composite_score"`
	Confidence int            `json:"confidence"`
	Alignment  Alignment      `json:"alignment"`
	Dominant   ModelID        `json:"dominant_model"`
	BestFor    []string       `json:"best_for"`
	Avoid      []string       `json:"avoid"`
	Skipped    []ModelID      `json:"skipped"`
	Incomplete bool           `json:"incomplete"`
}

// Model returns the reading for id, if that model contributed.
func (r DailyEnergyReading) Model(id ModelID) (ModelReading, bool) {
	for _, m := range r.Models {
		if m.ModelID == id {
			return m, true
		}
	}
	return ModelReading{}, false
}

// OutcomeResult is the user-reported result of an activity.
type OutcomeResult string

const (
	ResultSuccess OutcomeResult = "success"
	ResultNeutral OutcomeResult = "neutral"
	ResultFailure OutcomeResult = "failure"
)

// Valid reports whether r is one of the three enumerated results.
func (r OutcomeResult) Valid() bool {
	switch r {
	case ResultSuccess, ResultNeutral, ResultFailure:
		return true
	}
	return false
}

// OutcomeInput is the user-supplied data for a new outcome.
type OutcomeInput struct {
	ProfileID               string             `json:"profile_id"`
	Date                    Date               `json:"date"`
	ActivityType            string             `json:"activity_type"`
	CompositeScoreAtLogging int                `json:"composite_score_at_logging"`
	Result                  OutcomeResult      `json:"result"`
	FollowedAdvice          bool               `json:"followed_advice"`
	Signals                 map[string]float64 `json:"signals,omitempty"`
}

// Validate applies the outcome input rules. It returns a *ValidationError
// naming the first offending field.
func (in OutcomeInput) Validate() error {
	if strings.TrimSpace(in.ProfileID) == "" {
		return NewValidationError("profile_id", "profile id is required")
	}
	if in.Date.IsZero() {
		return NewValidationError("date", "date is required")
	}
	if !in.Date.InSupportedRange() {
		return NewValidationError("date", "date %s outside supported range %s..%s", in.Date, MinSupportedDate, MaxSupportedDate)
	}
	if strings.TrimSpace(in.ActivityType) == "" {
		return NewValidationError("activity_type", "activity type is required")
	}
	if in.CompositeScoreAtLogging < MinScore || in.CompositeScoreAtLogging > MaxScore {
		return NewValidationError("composite_score_at_logging", "score %d must be in [%d, %d]", in.CompositeScoreAtLogging, MinScore, MaxScore)
	}
	if !in.Result.Valid() {
		return NewValidationError("result", "result %q must be one of success, neutral, failure", in.Result)
	}
	for _, k := range slices.Sorted(maps.Keys(in.Signals)) {
		v := in.Signals[k]
		if strings.TrimSpace(k) == "" {
			return NewValidationError("signals", "signal name is required")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewValidationError("signals."+k, "signal value must be finite")
		}
	}
	return nil
}

// OutcomeRecord is an immutable, user-logged outcome.
type OutcomeRecord struct {
	ID                      string             `json:"id"`
	ProfileID               string             `json:"profile_id"`
	Date                    Date               `json:"date"`
	ActivityType            string             `json:"activity_type"`
	CompositeScoreAtLogging int                `json:"composite_score_at_logging"`
	Result                  OutcomeResult      `json:"result"`
	FollowedAdvice          bool               `json:"followed_advice"`
	Signals                 map[string]float64 `json:"signals,omitempty"`
	CreatedAt               time.Time          `json:"created_at"`
}

// AdjustmentFactor is a learned weight adjustment for one model or signal.
type AdjustmentFactor struct {
	FactorID            string    `json:"factor_id"`
	WeightDelta         float64   `json:"weight_delta"`
	SampleSize          int       `json:"sample_size"`
	BaselineSize        int       `json:"baseline_size"`
	SuccessRateHigh     float64   `json:"success_rate_high"`
	SuccessRateBaseline float64   `json:"success_rate_baseline"`
	Confidence          int       `json:"confidence"`
	LastComputed        time.Time `json:"last_computed"`
}

// Active reports whether the factor has enough evidence to influence scoring.
func (f AdjustmentFactor) Active() bool {
	return f.SampleSize >= MinFactorSamples
}

// PersonalizationProfile holds one user's learned adjustments.
// It is replaced wholesale by the correlation analyzer and read-only elsewhere.
type PersonalizationProfile struct {
	ProfileID               string             `json:"profile_id"`
	Factors                 []AdjustmentFactor `json:"factors"`
	OverallAccuracy         int                `json:"overall_accuracy"`
	PredictionsConsidered   int                `json:"predictions_considered"`
	TotalOutcomesConsidered int                `json:"total_outcomes_considered"`
	ComputedAt              time.Time          `json:"computed_at"`
}

// AdjustmentFor returns the weight delta for factorID, or 0 when no factor
// exists or it has fewer than MinFactorSamples samples.
func (p PersonalizationProfile) AdjustmentFor(factorID string) float64 {
	f, ok := p.Factor(factorID)
	if !ok || !f.Active() {
		return 0
	}
	return f.WeightDelta
}

// Factor looks up a factor by id.
func (p PersonalizationProfile) Factor(factorID string) (AdjustmentFactor, bool) {
	for _, f := range p.Factors {
		if f.FactorID == factorID {
			return f, true
		}
	}
	return AdjustmentFactor{}, false
}

// Insufficient reports the "not enough data" state: fewer than
// MinFactorSamples outcomes were considered, so OverallAccuracy must not be
// shown as a number.
func (p PersonalizationProfile) Insufficient() bool {
	return p.TotalOutcomesConsidered < MinFactorSamples
}

// Clone returns a deep copy so callers can hold a stable snapshot.
func (p PersonalizationProfile) Clone() PersonalizationProfile {
	out := p
	if p.Factors != nil {
		out.Factors = make([]AdjustmentFactor, len(p.Factors))
		copy(out.Factors, p.Factors)
	}
	return out
}
