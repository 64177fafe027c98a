package engine

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/logging"
)

// RecordOutcome validates and appends a user-logged outcome. The profile
// must exist.
func (e *Engine) RecordOutcome(ctx context.Context, in domain.OutcomeInput) (rec domain.OutcomeRecord, err error) {
	ctx, span := startSpan(ctx, "engine.RecordOutcome", in.ProfileID,
		attribute.String("attune.result", string(in.Result)))
	defer func() { endSpan(span, err) }()

	if err := in.Validate(); err != nil {
		return domain.OutcomeRecord{}, err
	}
	if _, err := e.Profile(ctx, in.ProfileID); err != nil {
		return domain.OutcomeRecord{}, err
	}

	rec, err = e.recorder.Record(ctx, in)
	if err != nil {
		logging.For(ctx, e.logger).Error("record outcome failed", zap.String("profile_id", in.ProfileID), zap.Error(err))
		return domain.OutcomeRecord{}, err
	}

	e.metrics.OutcomesTotal.WithLabelValues(string(rec.Result)).Inc()
	logging.For(ctx, e.logger).Info("outcome recorded",
		zap.String("profile_id", rec.ProfileID),
		zap.String("outcome_id", rec.ID),
		zap.Stringer("date", rec.Date),
		zap.String("result", string(rec.Result)))
	return rec, nil
}

// DeleteOutcome removes one outcome. Personalization is not recomputed;
// the next Recompute sees the shorter history.
func (e *Engine) DeleteOutcome(ctx context.Context, profileID, id string) (err error) {
	ctx, span := startSpan(ctx, "engine.DeleteOutcome", profileID, attribute.String("attune.outcome_id", id))
	defer func() { endSpan(span, err) }()

	if err := e.recorder.Delete(ctx, profileID, id); err != nil {
		return err
	}
	logging.For(ctx, e.logger).Info("outcome deleted",
		zap.String("profile_id", profileID),
		zap.String("outcome_id", id))
	return nil
}

// ListOutcomes returns a profile's outcomes in logging order.
func (e *Engine) ListOutcomes(ctx context.Context, profileID string) ([]domain.OutcomeRecord, error) {
	if _, err := e.Profile(ctx, profileID); err != nil {
		return nil, err
	}
	return e.recorder.List(ctx, profileID)
}
