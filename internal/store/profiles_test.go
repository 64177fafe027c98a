package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/attune/internal/domain"
)

func TestSaveProfile_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p := domain.BirthProfile{
		ID:         "u1",
		Name:       "Ada",
		BirthDate:  domain.MustParseDate("1990-06-15"),
		BirthPlace: &domain.Place{Name: "New York", Latitude: 40.7128, Longitude: -74.006},
	}

	require.NoError(t, s.SaveProfile(ctx, p))

	got, err := s.Profile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestSaveProfile_UpdateKeepsOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTestProfile(t, s, "b")
	createTestProfile(t, s, "a")

	edited := domain.BirthProfile{ID: "b", Name: "Renamed", BirthDate: domain.MustParseDate("1985-01-02")}
	require.NoError(t, s.SaveProfile(ctx, edited))

	got, err := s.Profile(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Nil(t, got.BirthPlace)

	all, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
}

func TestProfile_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Profile(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.True(t, domain.IsNotFound(err))
}

func TestListProfiles_Empty(t *testing.T) {
	s := createTestStore(t)

	all, err := s.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}
