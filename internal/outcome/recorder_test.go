package outcome

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/testutil"
)

type memHistory struct {
	mu   sync.Mutex
	recs []domain.OutcomeRecord
	err  error
}

func (h *memHistory) AppendOutcome(_ context.Context, rec domain.OutcomeRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.recs = append(h.recs, rec)
	return nil
}

func (h *memHistory) DeleteOutcome(_ context.Context, profileID, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, r := range h.recs {
		if r.ProfileID == profileID && r.ID == id {
			h.recs = append(h.recs[:i], h.recs[i+1:]...)
			return nil
		}
	}
	return domain.ErrOutcomeNotFound
}

func (h *memHistory) ListOutcomes(_ context.Context, profileID string) ([]domain.OutcomeRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []domain.OutcomeRecord{}
	for _, r := range h.recs {
		if r.ProfileID == profileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func validInput() domain.OutcomeInput {
	return domain.OutcomeInput{
		ProfileID:               "u1",
		Date:                    domain.MustParseDate("2024-03-01"),
		ActivityType:            " workout ",
		CompositeScoreAtLogging: 74,
		Result:                  domain.ResultSuccess,
		FollowedAdvice:          true,
		Signals:                 map[string]float64{"sleep_hours": 7.5},
	}
}

func newRecorder(h History) *Recorder {
	clock := testutil.NewFixedClock(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC))
	return NewRecorder(h, testutil.NewSequenceGenerator("out"), clock)
}

func TestRecord(t *testing.T) {
	h := &memHistory{}
	r := newRecorder(h)
	in := validInput()

	rec, err := r.Record(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "out-1", rec.ID)
	assert.Equal(t, "workout", rec.ActivityType)
	assert.Equal(t, 74, rec.CompositeScoreAtLogging)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), rec.CreatedAt)
	require.Len(t, h.recs, 1)
	assert.Equal(t, rec, h.recs[0])

	in.Signals["sleep_hours"] = 3
	assert.Equal(t, 7.5, h.recs[0].Signals["sleep_hours"], "signals are copied")
}

func TestRecord_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*domain.OutcomeInput)
		field string
	}{
		{"missing profile", func(in *domain.OutcomeInput) { in.ProfileID = "" }, "profile_id"},
		{"missing date", func(in *domain.OutcomeInput) { in.Date = domain.Date{} }, "date"},
		{"date too early", func(in *domain.OutcomeInput) { in.Date = domain.MustParseDate("1899-12-31") }, "date"},
		{"date too late", func(in *domain.OutcomeInput) { in.Date = domain.MustParseDate("2101-01-01") }, "date"},
		{"blank activity", func(in *domain.OutcomeInput) { in.ActivityType = "   " }, "activity_type"},
		{"score high", func(in *domain.OutcomeInput) { in.CompositeScoreAtLogging = 101 }, "composite_score_at_logging"},
		{"score low", func(in *domain.OutcomeInput) { in.CompositeScoreAtLogging = -1 }, "composite_score_at_logging"},
		{"bad result", func(in *domain.OutcomeInput) { in.Result = "great" }, "result"},
		{"nan signal", func(in *domain.OutcomeInput) { in.Signals = map[string]float64{"sleep_hours": math.NaN()} }, "signals.sleep_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &memHistory{}
			in := validInput()
			tt.edit(&in)

			_, err := newRecorder(h).Record(context.Background(), in)
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Empty(t, h.recs, "invalid input must not be written")
		})
	}
}

func TestRecord_HistoryError(t *testing.T) {
	h := &memHistory{err: errors.New("disk full")}

	_, err := newRecorder(h).Record(context.Background(), validInput())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record outcome: disk full")
	assert.False(t, domain.IsValidationError(err))
}

func TestDeleteAndList(t *testing.T) {
	h := &memHistory{}
	r := newRecorder(h)
	ctx := context.Background()

	first, err := r.Record(ctx, validInput())
	require.NoError(t, err)
	second, err := r.Record(ctx, validInput())
	require.NoError(t, err)

	recs, err := r.List(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{first.ID, second.ID}, []string{recs[0].ID, recs[1].ID})

	require.NoError(t, r.Delete(ctx, "u1", first.ID))
	recs, err = r.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, second.ID, recs[0].ID)

	err = r.Delete(ctx, "u1", first.ID)
	assert.ErrorIs(t, err, domain.ErrOutcomeNotFound)
	assert.True(t, domain.IsNotFound(err))

	err = r.Delete(ctx, "u1", "")
	assert.True(t, domain.IsValidationError(err))
}
