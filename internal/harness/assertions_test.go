package harness

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/store"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Type: EventInvocation, Action: "save_profile", Args: map[string]any{"id": "ada", "name": "Ada"}, Seq: 1},
		{Type: EventCompletion, Action: "save_profile", Case: CaseOK, Seq: 2},
		{Type: EventInvocation, Action: "record_outcome", Args: map[string]any{"profile_id": "ada", "composite_score_at_logging": 82}, Seq: 3},
		{Type: EventCompletion, Action: "record_outcome", Case: CaseOK, Seq: 4},
		{Type: EventInvocation, Action: "recompute", Args: map[string]any{"profile_id": "ada"}, Seq: 5},
		{Type: EventCompletion, Action: "recompute", Case: CaseOK, Seq: 6},
		{Type: EventInvocation, Action: "record_outcome", Args: map[string]any{"profile_id": "ada", "composite_score_at_logging": 40}, Seq: 7},
		{Type: EventCompletion, Action: "record_outcome", Case: CaseValidation, Seq: 8},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	t.Run("matching args subset", func(t *testing.T) {
		err := assertTraceContains(trace, Assertion{
			Type:   AssertTraceContains,
			Action: "save_profile",
			Args:   map[string]any{"id": "ada"},
		})
		assert.NoError(t, err)
	})

	t.Run("numbers compare across types", func(t *testing.T) {
		err := assertTraceContains(trace, Assertion{
			Type:   AssertTraceContains,
			Action: "record_outcome",
			Args:   map[string]any{"composite_score_at_logging": 40.0},
		})
		assert.NoError(t, err)
	})

	t.Run("no args matches any invocation", func(t *testing.T) {
		err := assertTraceContains(trace, Assertion{Type: AssertTraceContains, Action: "recompute"})
		assert.NoError(t, err)
	})

	t.Run("wrong args", func(t *testing.T) {
		err := assertTraceContains(trace, Assertion{
			Type:   AssertTraceContains,
			Action: "save_profile",
			Args:   map[string]any{"id": "grace"},
		})
		require.Error(t, err)
		var assertErr *AssertionError
		require.ErrorAs(t, err, &assertErr)
		assert.Equal(t, "trace_contains", assertErr.Type)
		assert.Equal(t, "not invoked", assertErr.Actual)
	})

	t.Run("missing action", func(t *testing.T) {
		err := assertTraceContains(trace, Assertion{Type: AssertTraceContains, Action: "forecast"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "trace:")
		assert.Contains(t, err.Error(), "-> validation")
	})
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name    string
		actions []string
		wantErr string
	}{
		{name: "in order", actions: []string{"save_profile", "record_outcome", "recompute"}},
		{name: "non-consecutive", actions: []string{"save_profile", "recompute"}},
		{name: "reversed", actions: []string{"recompute", "save_profile"}, wantErr: "save_profile at seq 1 precedes recompute at seq 5"},
		{name: "missing", actions: []string{"save_profile", "forecast"}, wantErr: "forecast never invoked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, Actions: tt.actions})
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, Action: "record_outcome", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, Action: "forecast", Count: 0}))

	err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, Action: "recompute", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoked 1 times")
}

func TestSubsetMatch(t *testing.T) {
	actual := map[string]any{
		"id":        "outcome-1",
		"composite": 82.0,
		"signals":   map[string]any{"sleep_hours": 7.5, "caffeine": 1.0},
		"best_for":  []any{"focus", "writing"},
	}

	tests := []struct {
		name     string
		expected map[string]any
		want     bool
	}{
		{name: "empty", expected: nil, want: true},
		{name: "int against float", expected: map[string]any{"composite": 82}, want: true},
		{name: "nested subset", expected: map[string]any{"signals": map[string]any{"sleep_hours": 7.5}}, want: true},
		{name: "slice exact", expected: map[string]any{"best_for": []any{"focus", "writing"}}, want: true},
		{name: "slice order matters", expected: map[string]any{"best_for": []any{"writing", "focus"}}, want: false},
		{name: "missing key", expected: map[string]any{"deleted": "outcome-1"}, want: false},
		{name: "wrong value", expected: map[string]any{"composite": 81}, want: false},
		{name: "string against number", expected: map[string]any{"composite": "82"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, subsetMatch(actual, tt.expected))
		})
	}

	assert.True(t, subsetMatch(map[string]string{"deleted": "outcome-1"}, map[string]any{"deleted": "outcome-1"}))
	assert.False(t, subsetMatch("outcome-1", map[string]any{"id": "outcome-1"}))
}

func TestStateValuesEqual(t *testing.T) {
	assert.True(t, stateValuesEqual(true, int64(1)))
	assert.True(t, stateValuesEqual(false, int64(0)))
	assert.False(t, stateValuesEqual(true, int64(0)))
	assert.True(t, stateValuesEqual("success", []byte("success")))
	assert.True(t, stateValuesEqual(82, int64(82)))
	assert.False(t, stateValuesEqual("82", int64(82)))
}

func TestBuildWhereClause(t *testing.T) {
	sql, args, err := buildWhereClause(map[string]any{"profile_id": "ada", "id": "outcome-1"})
	require.NoError(t, err)
	assert.Equal(t, "id = ? AND profile_id = ?", sql)
	assert.Equal(t, []any{"outcome-1", "ada"}, args)

	_, _, err = buildWhereClause(map[string]any{"id; DROP TABLE outcomes": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid column name")
}

func finalStateStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	require.NoError(t, st.SaveProfile(ctx, domain.BirthProfile{
		ID:        "ada",
		Name:      "Ada",
		BirthDate: domain.MustParseDate("1990-06-15"),
	}))
	require.NoError(t, st.AppendOutcome(ctx, domain.OutcomeRecord{
		ID:                      "outcome-1",
		ProfileID:               "ada",
		Date:                    domain.MustParseDate("2024-03-09"),
		ActivityType:            "interview",
		CompositeScoreAtLogging: 82,
		Result:                  domain.ResultSuccess,
		FollowedAdvice:          true,
		CreatedAt:               time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
	}))
	return st
}

func TestAssertFinalState(t *testing.T) {
	st := finalStateStore(t)
	ctx := context.Background()

	t.Run("matching row", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Type:   AssertFinalState,
			Table:  "outcomes",
			Where:  map[string]any{"id": "outcome-1"},
			Expect: map[string]any{"result": "success", "composite_score": 82, "followed_advice": true},
		})
		assert.NoError(t, err)
	})

	t.Run("value mismatch", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Type:   AssertFinalState,
			Table:  "outcomes",
			Where:  map[string]any{"id": "outcome-1"},
			Expect: map[string]any{"result": "failure"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outcomes.result = failure")
	})

	t.Run("row not found", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Type:   AssertFinalState,
			Table:  "outcomes",
			Where:  map[string]any{"id": "outcome-9"},
			Expect: map[string]any{"result": "success"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no row")
	})

	t.Run("unknown column", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Type:   AssertFinalState,
			Table:  "profiles",
			Where:  map[string]any{"id": "ada"},
			Expect: map[string]any{"zodiac": "gemini"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such column")
	})

	t.Run("ambiguous selector", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Type:   AssertFinalState,
			Table:  "outcomes",
			Where:  map[string]any{"profile_id": "ada"},
			Expect: map[string]any{"result": "success"},
		})
		require.NoError(t, err, "one outcome matches")

		require.NoError(t, st.AppendOutcome(ctx, domain.OutcomeRecord{
			ID:                      "outcome-2",
			ProfileID:               "ada",
			Date:                    domain.MustParseDate("2024-03-10"),
			ActivityType:            "run",
			CompositeScoreAtLogging: 55,
			Result:                  domain.ResultFailure,
			CreatedAt:               time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		}))
		err = assertFinalState(ctx, st, Assertion{
			Type:   AssertFinalState,
			Table:  "outcomes",
			Where:  map[string]any{"profile_id": "ada"},
			Expect: map[string]any{"result": "success"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "several rows")
	})

	t.Run("invalid table", func(t *testing.T) {
		err := assertFinalState(ctx, st, Assertion{
			Type:   AssertFinalState,
			Table:  "outcomes; DROP TABLE profiles",
			Expect: map[string]any{"result": "success"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown table")
	})
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Action: "record_outcome", Count: 2},
		{Type: AssertTraceOrder, Actions: []string{"recompute", "save_profile"}},
		{Type: AssertFinalState, Table: "outcomes", Expect: map[string]any{"result": "success"}},
	}, nil)

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_order")
	assert.Contains(t, errs[1], "final_state requires database context")
}
