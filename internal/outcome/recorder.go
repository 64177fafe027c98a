// Package outcome validates and records user-logged outcomes.
//
// The recorder owns validation and identity. Storage belongs to a History
// collaborator; the recorder never reads back what it writes.
package outcome

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/roach88/attune/internal/domain"
)

// History is the per-user outcome log.
type History interface {
	AppendOutcome(ctx context.Context, rec domain.OutcomeRecord) error
	DeleteOutcome(ctx context.Context, profileID, id string) error
	ListOutcomes(ctx context.Context, profileID string) ([]domain.OutcomeRecord, error)
}

// IDGenerator produces outcome ids.
type IDGenerator interface {
	Generate() string
}

// Clock supplies the creation timestamp.
type Clock interface {
	Now() time.Time
}

// Recorder appends validated outcomes to a History.
type Recorder struct {
	history History
	ids     IDGenerator
	clock   Clock
}

// NewRecorder creates a recorder.
func NewRecorder(history History, ids IDGenerator, clock Clock) *Recorder {
	return &Recorder{history: history, ids: ids, clock: clock}
}

// Record validates in and appends it as a new immutable record.
// Invalid input returns a *domain.ValidationError and writes nothing.
func (r *Recorder) Record(ctx context.Context, in domain.OutcomeInput) (domain.OutcomeRecord, error) {
	in.ActivityType = strings.TrimSpace(in.ActivityType)
	if err := in.Validate(); err != nil {
		return domain.OutcomeRecord{}, err
	}

	rec := domain.OutcomeRecord{
		ID:                      r.ids.Generate(),
		ProfileID:               in.ProfileID,
		Date:                    in.Date,
		ActivityType:            in.ActivityType,
		CompositeScoreAtLogging: in.CompositeScoreAtLogging,
		Result:                  in.Result,
		FollowedAdvice:          in.FollowedAdvice,
		Signals:                 maps.Clone(in.Signals),
		CreatedAt:               r.clock.Now().UTC(),
	}
	if err := r.history.AppendOutcome(ctx, rec); err != nil {
		return domain.OutcomeRecord{}, fmt.Errorf("record outcome: %w", err)
	}
	return rec, nil
}

// Delete removes one outcome. Unknown ids return domain.ErrOutcomeNotFound.
func (r *Recorder) Delete(ctx context.Context, profileID, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.NewValidationError("id", "outcome id is required")
	}
	if err := r.history.DeleteOutcome(ctx, profileID, id); err != nil {
		return fmt.Errorf("delete outcome %s: %w", id, err)
	}
	return nil
}

// List returns every outcome for profileID in logging order.
func (r *Recorder) List(ctx context.Context, profileID string) ([]domain.OutcomeRecord, error) {
	recs, err := r.history.ListOutcomes(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return recs, nil
}
