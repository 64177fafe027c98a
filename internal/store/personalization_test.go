package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/attune/internal/domain"
)

func TestPersonalization_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "u1")

	computed := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	p := domain.PersonalizationProfile{
		ProfileID: "u1",
		Factors: []domain.AdjustmentFactor{
			{FactorID: "lunar", WeightDelta: 0.25, SampleSize: 4, BaselineSize: 2, SuccessRateHigh: 0.75, SuccessRateBaseline: 0.5, Confidence: 70, LastComputed: computed},
		},
		OverallAccuracy:         60,
		PredictionsConsidered:   5,
		TotalOutcomesConsidered: 6,
		ComputedAt:              computed,
	}
	require.NoError(t, s.SavePersonalization(ctx, p))

	got, ok, err := s.LoadPersonalization(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestPersonalization_Replace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "u1")

	require.NoError(t, s.SavePersonalization(ctx, domain.PersonalizationProfile{
		ProfileID: "u1",
		Factors:   []domain.AdjustmentFactor{{FactorID: "lunar", WeightDelta: 0.2, SampleSize: 3}},
	}))
	require.NoError(t, s.SavePersonalization(ctx, domain.PersonalizationProfile{
		ProfileID: "u1",
		Factors:   []domain.AdjustmentFactor{},
	}))

	got, ok, err := s.LoadPersonalization(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, got.Factors)
	assert.NotNil(t, got.Factors)
}

func TestPersonalization_Missing(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.LoadPersonalization(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}
