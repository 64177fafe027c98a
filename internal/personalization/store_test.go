package personalization

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/attune/internal/domain"
)

func sample(delta float64) domain.PersonalizationProfile {
	return domain.PersonalizationProfile{
		Factors: []domain.AdjustmentFactor{
			{FactorID: "lunar", WeightDelta: delta, SampleSize: 4, Confidence: 70},
		},
		TotalOutcomesConsidered: 4,
		ComputedAt:              time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGet_MissingIsEmpty(t *testing.T) {
	s := NewStore(NewMemoryRepository())

	p, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ProfileID)
	assert.NotNil(t, p.Factors)
	assert.Empty(t, p.Factors)
	assert.True(t, p.Insufficient())
	assert.Equal(t, 0.0, p.AdjustmentFor("lunar"))
}

func TestApply_Replaces(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository())

	require.NoError(t, s.Apply(ctx, "u1", sample(0.2)))
	replacement := sample(-0.1)
	replacement.Factors = append(replacement.Factors, domain.AdjustmentFactor{FactorID: "biorhythm", WeightDelta: 0.3, SampleSize: 3})
	require.NoError(t, s.Apply(ctx, "u1", replacement))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ProfileID)
	assert.Len(t, got.Factors, 2)
	assert.Equal(t, -0.1, got.AdjustmentFor("lunar"))
	assert.Equal(t, 0.3, got.AdjustmentFor("biorhythm"))
}

func TestGet_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository())
	require.NoError(t, s.Apply(ctx, "u1", sample(0.2)))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	got.Factors[0].WeightDelta = 0.5

	again, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0.2, again.AdjustmentFor("lunar"))
}

func TestUpdate_NoPersist(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository())
	require.NoError(t, s.Apply(ctx, "u1", sample(0.2)))

	out, err := s.Update(ctx, "u1", func(cur domain.PersonalizationProfile) (domain.PersonalizationProfile, bool, error) {
		cur.TotalOutcomesConsidered = 0
		return cur, false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, out.TotalOutcomesConsidered)

	stored, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.TotalOutcomesConsidered)
}

func TestUpdate_Error(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository())
	boom := errors.New("boom")

	_, err := s.Update(ctx, "u1", func(domain.PersonalizationProfile) (domain.PersonalizationProfile, bool, error) {
		return domain.PersonalizationProfile{}, true, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Factors)
}

func TestUpdate_SerializedPerProfile(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryRepository())
	const writers = 50

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "u1", func(cur domain.PersonalizationProfile) (domain.PersonalizationProfile, bool, error) {
				cur.TotalOutcomesConsidered++
				return cur, true, nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, writers, got.TotalOutcomesConsidered, "no update was lost")
}

type failingRepo struct{}

func (failingRepo) LoadPersonalization(context.Context, string) (domain.PersonalizationProfile, bool, error) {
	return domain.PersonalizationProfile{}, false, errors.New("db down")
}

func (failingRepo) SavePersonalization(context.Context, domain.PersonalizationProfile) error {
	return errors.New("db down")
}

func TestRepositoryErrorsWrapped(t *testing.T) {
	s := NewStore(failingRepo{})

	_, err := s.Get(context.Background(), "u1")
	assert.EqualError(t, err, "load personalization: db down")

	err = s.Apply(context.Background(), "u1", sample(0.1))
	assert.EqualError(t, err, "save personalization: db down")
}
