package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/attune/internal/correlation"
	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/logging"
)

// GetPersonalization returns the stored personalization profile, or an
// empty one before the first recompute. Callers check Insufficient before
// showing OverallAccuracy.
func (e *Engine) GetPersonalization(ctx context.Context, profileID string) (domain.PersonalizationProfile, error) {
	if _, err := e.Profile(ctx, profileID); err != nil {
		return domain.PersonalizationProfile{}, err
	}
	p, err := e.personal.Get(ctx, profileID)
	if err != nil {
		return domain.PersonalizationProfile{}, fmt.Errorf("get personalization: %w", err)
	}
	return p, nil
}

// Recompute correlates the profile's outcome history with the model
// sub-scores of each outcome's date and replaces the stored
// personalization with the result.
//
// Sub-scores come from reading history; dates without a stored reading are
// backfilled by re-running the models, which do not depend on
// personalization. With no outcomes the previous profile is returned with
// TotalOutcomesConsidered = 0 and nothing is written.
func (e *Engine) Recompute(ctx context.Context, profileID string) (p domain.PersonalizationProfile, err error) {
	ctx, span := startSpan(ctx, "engine.Recompute", profileID)
	start := time.Now()
	status := "error"
	defer func() {
		e.metrics.RecomputesTotal.WithLabelValues(status).Inc()
		e.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
		endSpan(span, err)
	}()

	profile, err := e.Profile(ctx, profileID)
	if err != nil {
		return domain.PersonalizationProfile{}, err
	}

	var backfilled int
	// Outcomes are read under the profile lock so two recomputes can never
	// store results in the opposite order of their inputs.
	p, err = e.personal.Update(ctx, profileID, func(current domain.PersonalizationProfile) (domain.PersonalizationProfile, bool, error) {
		recs, err := e.recorder.List(ctx, profileID)
		if err != nil {
			return domain.PersonalizationProfile{}, false, err
		}
		obs, n, err := e.observations(ctx, profile, recs)
		if err != nil {
			return domain.PersonalizationProfile{}, false, err
		}
		backfilled = n
		next := e.analyzer.Analyze(profileID, obs, e.scorer.Models(), current, e.clock.Now())
		return next, len(obs) > 0, nil
	})
	if err != nil {
		logging.For(ctx, e.logger).Error("recompute failed", zap.String("profile_id", profileID), zap.Error(err))
		return domain.PersonalizationProfile{}, fmt.Errorf("recompute %s: %w", profileID, err)
	}

	if p.TotalOutcomesConsidered == 0 {
		status = "unchanged"
	} else {
		status = "updated"
	}
	logging.For(ctx, e.logger).Info("personalization recomputed",
		zap.String("profile_id", profileID),
		zap.String("status", status),
		zap.Int("outcomes", p.TotalOutcomesConsidered),
		zap.Int("factors", len(p.Factors)),
		zap.Int("backfilled_dates", backfilled),
		zap.Int("overall_accuracy", p.OverallAccuracy),
		zap.Bool("insufficient", p.Insufficient()))
	return p, nil
}

// RefreshIfStale recomputes when the stored personalization is older than
// the refresh interval, or was never computed. refreshed reports whether a
// recompute ran.
func (e *Engine) RefreshIfStale(ctx context.Context, profileID string) (p domain.PersonalizationProfile, refreshed bool, err error) {
	current, err := e.GetPersonalization(ctx, profileID)
	if err != nil {
		return domain.PersonalizationProfile{}, false, err
	}
	if !current.ComputedAt.IsZero() && e.clock.Now().Sub(current.ComputedAt) < e.refreshInterval {
		return current, false, nil
	}
	p, err = e.Recompute(ctx, profileID)
	if err != nil {
		return domain.PersonalizationProfile{}, false, err
	}
	return p, true, nil
}

// observations pairs each outcome with the sub-scores of its date. It
// returns how many dates had to be backfilled.
func (e *Engine) observations(ctx context.Context, profile domain.BirthProfile, recs []domain.OutcomeRecord) ([]correlation.Observation, int, error) {
	obs := make([]correlation.Observation, 0, len(recs))
	byDate := make(map[string]map[domain.ModelID]int)
	backfilled := 0

	for _, rec := range recs {
		key := rec.Date.String()
		scores, ok := byDate[key]
		if !ok {
			r, found, err := e.repo.Reading(ctx, profile.ID, rec.Date)
			if err != nil {
				return nil, 0, fmt.Errorf("load reading for %s: %w", key, err)
			}
			if found {
				scores = make(map[domain.ModelID]int, len(r.Models))
				for _, m := range r.Models {
					scores[m.ModelID] = m.SubScore
				}
			} else {
				scores = e.scorer.SubScores(profile, rec.Date, nil)
				backfilled++
			}
			byDate[key] = scores
		}
		obs = append(obs, correlation.Observation{Outcome: rec, SubScores: scores})
	}
	return obs, backfilled, nil
}
