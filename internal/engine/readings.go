package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/logging"
	"github.com/roach88/attune/internal/trend"
)

// Forecast is a run of forward readings computed with the current
// personalization snapshot, plus their trend summary.
type Forecast struct {
	ProfileID string                      `json:"profile_id"`
	From      domain.Date                 `json:"from"`
	Days      int                         `json:"days"`
	Readings  []domain.DailyEnergyReading `json:"readings"`
	Summary   trend.Summary               `json:"summary"`
}

// GetReading returns the reading for (profile, date, env). The reading is
// served from the cache when its inputs were seen before, and written
// through to reading history either way.
//
// Scoring never fails for missing data: models that cannot run are listed
// in Skipped. Errors come only from validation, unknown profiles and
// storage.
func (e *Engine) GetReading(ctx context.Context, profileID string, date domain.Date, env *domain.Environment) (r domain.DailyEnergyReading, err error) {
	ctx, span := startSpan(ctx, "engine.GetReading", profileID, attribute.String("attune.date", date.String()))
	defer func() { endSpan(span, err) }()

	if err := validateDate("date", date); err != nil {
		return domain.DailyEnergyReading{}, err
	}
	if err := env.Validate(); err != nil {
		return domain.DailyEnergyReading{}, err
	}
	profile, err := e.Profile(ctx, profileID)
	if err != nil {
		return domain.DailyEnergyReading{}, err
	}
	snapshot, err := e.personal.Get(ctx, profileID)
	if err != nil {
		return domain.DailyEnergyReading{}, fmt.Errorf("get reading: %w", err)
	}

	r, err = e.reading(ctx, profile, date, env, snapshot)
	if err != nil {
		return domain.DailyEnergyReading{}, err
	}
	e.remember(ctx, r)
	return r, nil
}

// GetTrend summarizes the window days ending at asOf. Days already in
// reading history are used as stored; missing days are computed with the
// current snapshot and written through.
func (e *Engine) GetTrend(ctx context.Context, profileID string, window int, asOf domain.Date) (s trend.Summary, err error) {
	ctx, span := startSpan(ctx, "engine.GetTrend", profileID,
		attribute.Int("attune.window", window),
		attribute.String("attune.as_of", asOf.String()))
	defer func() { endSpan(span, err) }()

	if !trend.ValidWindow(window) {
		return trend.Summary{}, domain.NewValidationError("window", "window must be %d or %d, got %d", trend.WeekWindow, trend.MonthWindow, window)
	}
	if err := validateDate("as_of", asOf); err != nil {
		return trend.Summary{}, err
	}
	profile, err := e.Profile(ctx, profileID)
	if err != nil {
		return trend.Summary{}, err
	}

	from := asOf.AddDays(-(window - 1))
	stored, err := e.repo.Readings(ctx, profileID, from, asOf)
	if err != nil {
		return trend.Summary{}, fmt.Errorf("get trend: %w", err)
	}
	byDate := make(map[string]domain.DailyEnergyReading, len(stored))
	for _, r := range stored {
		byDate[r.Date.String()] = r
	}

	var snapshot domain.PersonalizationProfile
	loaded := false
	readings := make([]domain.DailyEnergyReading, 0, window)
	for d := from; !d.After(asOf); d = d.AddDays(1) {
		if r, ok := byDate[d.String()]; ok {
			readings = append(readings, r)
			continue
		}
		if !d.InSupportedRange() {
			continue
		}
		if !loaded {
			if snapshot, err = e.personal.Get(ctx, profileID); err != nil {
				return trend.Summary{}, fmt.Errorf("get trend: %w", err)
			}
			loaded = true
		}
		r, err := e.reading(ctx, profile, d, nil, snapshot)
		if err != nil {
			return trend.Summary{}, err
		}
		e.remember(ctx, r)
		readings = append(readings, r)
	}

	return e.trends.Aggregate(readings, window)
}

// GetForecast computes days readings starting at from with the current
// snapshot and summarizes them. days == 0 selects the configured default.
// Forecast readings are not written to reading history.
func (e *Engine) GetForecast(ctx context.Context, profileID string, from domain.Date, days int) (f Forecast, err error) {
	ctx, span := startSpan(ctx, "engine.GetForecast", profileID,
		attribute.String("attune.from", from.String()),
		attribute.Int("attune.days", days))
	defer func() { endSpan(span, err) }()

	if days == 0 {
		days = e.forecastDays
	}
	if days < 1 || days > e.maxForecastDays {
		return Forecast{}, domain.NewValidationError("days", "days must be in [1, %d], got %d", e.maxForecastDays, days)
	}
	if err := validateDate("from", from); err != nil {
		return Forecast{}, err
	}
	if err := validateDate("from", from.AddDays(days-1)); err != nil {
		return Forecast{}, err
	}
	profile, err := e.Profile(ctx, profileID)
	if err != nil {
		return Forecast{}, err
	}
	snapshot, err := e.personal.Get(ctx, profileID)
	if err != nil {
		return Forecast{}, fmt.Errorf("get forecast: %w", err)
	}

	readings := make([]domain.DailyEnergyReading, 0, days)
	for i := 0; i < days; i++ {
		r, err := e.reading(ctx, profile, from.AddDays(i), nil, snapshot)
		if err != nil {
			return Forecast{}, err
		}
		readings = append(readings, r)
	}

	return Forecast{
		ProfileID: profileID,
		From:      from,
		Days:      days,
		Readings:  readings,
		Summary:   e.trends.Summarize(readings),
	}, nil
}

// reading loads one reading through the cache.
func (e *Engine) reading(ctx context.Context, profile domain.BirthProfile, date domain.Date, env *domain.Environment, snapshot domain.PersonalizationProfile) (domain.DailyEnergyReading, error) {
	key, err := domain.ReadingKey(profile, date, snapshot, env)
	if err != nil {
		return domain.DailyEnergyReading{}, fmt.Errorf("reading key: %w", err)
	}

	r, hit, err := e.readings.Load(ctx, key, func() (domain.DailyEnergyReading, error) {
		return e.scorer.Score(profile, date, env, snapshot), nil
	})
	if err != nil {
		return domain.DailyEnergyReading{}, err
	}

	if hit {
		e.metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return r, nil
	}
	e.metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	e.metrics.ReadingsTotal.WithLabelValues(string(r.Alignment)).Inc()
	for _, id := range r.Skipped {
		e.metrics.ModelSkipsTotal.WithLabelValues(string(id)).Inc()
	}
	if len(r.Skipped) > 0 {
		logging.For(ctx, e.logger).Debug("models skipped",
			zap.String("profile_id", profile.ID),
			zap.Stringer("date", date),
			zap.Any("skipped", r.Skipped))
	}
	return r, nil
}

// remember writes a reading to history. A failed write loses nothing the
// caller needs, so it is logged and not returned.
func (e *Engine) remember(ctx context.Context, r domain.DailyEnergyReading) {
	if err := e.repo.SaveReading(ctx, r); err != nil {
		logging.For(ctx, e.logger).Error("save reading failed",
			zap.String("profile_id", r.ProfileID),
			zap.Stringer("date", r.Date),
			zap.Error(err))
	}
}

func validateDate(field string, d domain.Date) error {
	if d.IsZero() {
		return domain.NewValidationError(field, "date is required")
	}
	if !d.InSupportedRange() {
		return domain.NewValidationError(field, "date %s outside supported range %s..%s", d, domain.MinSupportedDate, domain.MaxSupportedDate)
	}
	return nil
}
