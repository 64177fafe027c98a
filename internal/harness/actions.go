package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/engine"
)

// action runs one engine operation from scenario args and returns its
// JSON-shaped result.
type action func(ctx context.Context, h *Harness, args map[string]any) (any, error)

// actions maps scenario operation names to engine calls.
var actions = map[string]action{
	"save_profile":    saveProfile,
	"reading":         reading,
	"trend":           trendAction,
	"forecast":        forecast,
	"record_outcome":  recordOutcome,
	"delete_outcome":  deleteOutcome,
	"list_outcomes":   listOutcomes,
	"personalization": personalization,
	"recompute":       recompute,
	"refresh":         refresh,
	"models":          listModels,
	"advance_clock":   advanceClock,
}

func knownAction(name string) bool {
	_, ok := actions[name]
	return ok
}

// personalizationResult mirrors the HTTP personalization response.
type personalizationResult struct {
	domain.PersonalizationProfile
	Insufficient bool `json:"insufficient"`
	Refreshed    bool `json:"refreshed,omitempty"`
}

type profileArgs struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	BirthDate  string        `json:"birth_date"`
	BirthPlace *domain.Place `json:"birth_place"`
}

func saveProfile(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a profileArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	birth, err := argDate("birth_date", a.BirthDate)
	if err != nil {
		return nil, err
	}
	if err := h.engine.SaveProfile(ctx, domain.BirthProfile{
		ID:         a.ID,
		Name:       a.Name,
		BirthDate:  birth,
		BirthPlace: a.BirthPlace,
	}); err != nil {
		return nil, err
	}
	return h.engine.Profile(ctx, a.ID)
}

type readingArgs struct {
	ProfileID       string   `json:"profile_id"`
	Date            string   `json:"date"`
	Condition       *string  `json:"condition"`
	TemperatureC    *float64 `json:"temperature_c"`
	ScheduledEvents *int     `json:"scheduled_events"`
}

func (a readingArgs) environment() (*domain.Environment, error) {
	if (a.Condition == nil) != (a.TemperatureC == nil) {
		return nil, domain.NewValidationError("weather", "condition and temperature_c must be given together")
	}
	if a.Condition == nil && a.ScheduledEvents == nil {
		return nil, nil
	}
	env := &domain.Environment{ScheduledEvents: a.ScheduledEvents}
	if a.Condition != nil {
		env.Weather = &domain.Weather{Condition: *a.Condition, TemperatureC: *a.TemperatureC}
	}
	return env, nil
}

func reading(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a readingArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	date, err := h.dateOrToday("date", a.Date)
	if err != nil {
		return nil, err
	}
	env, err := a.environment()
	if err != nil {
		return nil, err
	}
	return h.engine.GetReading(ctx, a.ProfileID, date, env)
}

type trendArgs struct {
	ProfileID string `json:"profile_id"`
	Window    *int   `json:"window"`
	AsOf      string `json:"as_of"`
}

func trendAction(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a trendArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	asOf, err := h.dateOrToday("as_of", a.AsOf)
	if err != nil {
		return nil, err
	}
	window := 7
	if a.Window != nil {
		window = *a.Window
	}
	return h.engine.GetTrend(ctx, a.ProfileID, window, asOf)
}

type forecastArgs struct {
	ProfileID string `json:"profile_id"`
	From      string `json:"from"`
	Days      int    `json:"days"`
}

func forecast(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a forecastArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	from, err := h.dateOrToday("from", a.From)
	if err != nil {
		return nil, err
	}
	return h.engine.GetForecast(ctx, a.ProfileID, from, a.Days)
}

type outcomeArgs struct {
	ProfileID               string             `json:"profile_id"`
	Date                    string             `json:"date"`
	ActivityType            string             `json:"activity_type"`
	CompositeScoreAtLogging *int               `json:"composite_score_at_logging"`
	Result                  string             `json:"result"`
	FollowedAdvice          bool               `json:"followed_advice"`
	Signals                 map[string]float64 `json:"signals"`
}

// recordOutcome logs an outcome. Without composite_score_at_logging the
// composite of that day's reading is used.
func recordOutcome(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a outcomeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	date, err := h.dateOrToday("date", a.Date)
	if err != nil {
		return nil, err
	}
	var score int
	if a.CompositeScoreAtLogging != nil {
		score = *a.CompositeScoreAtLogging
	} else {
		r, err := h.engine.GetReading(ctx, a.ProfileID, date, nil)
		if err != nil {
			return nil, err
		}
		score = r.Composite
	}
	return h.engine.RecordOutcome(ctx, domain.OutcomeInput{
		ProfileID:               a.ProfileID,
		Date:                    date,
		ActivityType:            a.ActivityType,
		CompositeScoreAtLogging: score,
		Result:                  domain.OutcomeResult(a.Result),
		FollowedAdvice:          a.FollowedAdvice,
		Signals:                 a.Signals,
	})
}

type outcomeIDArgs struct {
	ProfileID string `json:"profile_id"`
	ID        string `json:"id"`
}

func deleteOutcome(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a outcomeIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := h.engine.DeleteOutcome(ctx, a.ProfileID, a.ID); err != nil {
		return nil, err
	}
	return map[string]string{"deleted": a.ID}, nil
}

type profileIDArgs struct {
	ProfileID string `json:"profile_id"`
}

func listOutcomes(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a profileIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	recs, err := h.engine.ListOutcomes(ctx, a.ProfileID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"outcomes": recs}, nil
}

func personalization(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a profileIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := h.engine.GetPersonalization(ctx, a.ProfileID)
	if err != nil {
		return nil, err
	}
	return personalizationResult{PersonalizationProfile: p, Insufficient: p.Insufficient()}, nil
}

func recompute(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a profileIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := h.engine.Recompute(ctx, a.ProfileID)
	if err != nil {
		return nil, err
	}
	return personalizationResult{PersonalizationProfile: p, Insufficient: p.Insufficient()}, nil
}

func refresh(ctx context.Context, h *Harness, args map[string]any) (any, error) {
	var a profileIDArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, refreshed, err := h.engine.RefreshIfStale(ctx, a.ProfileID)
	if err != nil {
		return nil, err
	}
	return personalizationResult{PersonalizationProfile: p, Insufficient: p.Insufficient(), Refreshed: refreshed}, nil
}

func listModels(_ context.Context, h *Harness, args map[string]any) (any, error) {
	if err := decodeArgs(args, &struct{}{}); err != nil {
		return nil, err
	}
	return map[string]any{"models": h.engine.Models()}, nil
}

type advanceArgs struct {
	Days  int `json:"days"`
	Hours int `json:"hours"`
}

func advanceClock(_ context.Context, h *Harness, args map[string]any) (any, error) {
	var a advanceArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Days < 0 || a.Hours < 0 {
		return nil, domain.NewValidationError("advance_clock", "the clock only moves forward")
	}
	now := h.clock.Advance(time.Duration(a.Days)*24*time.Hour + time.Duration(a.Hours)*time.Hour)
	return map[string]string{"now": now.Format(time.RFC3339)}, nil
}

// argsError marks malformed scenario args. It is a scenario bug, not an
// engine outcome, so it aborts the run.
type argsError struct {
	err error
}

func (e *argsError) Error() string { return "decode args: " + e.err.Error() }
func (e *argsError) Unwrap() error { return e.err }

// decodeArgs maps YAML args onto dst through JSON, rejecting unknown keys.
func decodeArgs(args map[string]any, dst any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return &argsError{err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &argsError{err: err}
	}
	return nil
}

// argDate parses a required date argument.
func argDate(field, s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, domain.NewValidationError(field, "%s is required", field)
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, domain.NewValidationError(field, "expected YYYY-MM-DD, got %q", s)
	}
	return d, nil
}

// dateOrToday parses an optional date argument; empty means the clock's
// current day.
func (h *Harness) dateOrToday(field, s string) (domain.Date, error) {
	if s == "" {
		return domain.DateOf(h.clock.Now()), nil
	}
	return argDate(field, s)
}

// caseFor classifies an engine error as a completion case.
func caseFor(err error) string {
	switch engine.KindOf(err) {
	case engine.KindValidation:
		return CaseValidation
	case engine.KindNotFound:
		return CaseNotFound
	case engine.KindInsufficientData:
		return CaseInsufficientData
	default:
		return CaseInternal
	}
}

// errorResult is the completion result of a failed operation.
func errorResult(err error) map[string]any {
	out := map[string]any{"kind": caseFor(err)}
	if field := engine.Field(err); field != "" {
		out["field"] = field
	}
	return out
}

// jsonShape converts v to the generic form produced by decoding its JSON:
// maps, slices, strings, float64 and bool. Null members are dropped.
func jsonShape(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return dropNulls(out), nil
}

func dropNulls(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			if elem == nil {
				delete(val, k)
				continue
			}
			val[k] = dropNulls(elem)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = dropNulls(elem)
		}
		return val
	default:
		return v
	}
}
