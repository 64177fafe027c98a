package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/attune/internal/domain"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProfile saves and returns a profile with minimal required fields.
func createTestProfile(t *testing.T, s *Store, id string) domain.BirthProfile {
	t.Helper()
	p := domain.BirthProfile{
		ID:        id,
		Name:      "Test " + id,
		BirthDate: domain.MustParseDate("1990-06-15"),
	}
	if err := s.SaveProfile(context.Background(), p); err != nil {
		t.Fatalf("SaveProfile() failed: %v", err)
	}
	return p
}

// createTestOutcome builds an outcome record with minimal required fields.
func createTestOutcome(id, profileID, date string, result domain.OutcomeResult) domain.OutcomeRecord {
	return domain.OutcomeRecord{
		ID:                      id,
		ProfileID:               profileID,
		Date:                    domain.MustParseDate(date),
		ActivityType:            "workout",
		CompositeScoreAtLogging: 72,
		Result:                  result,
		CreatedAt:               time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// createTestReading builds a reading with a valid content id.
func createTestReading(t *testing.T, profileID, date string, composite int) domain.DailyEnergyReading {
	t.Helper()
	r := domain.DailyEnergyReading{
		ProfileID: profileID,
		Date:      domain.MustParseDate(date),
		Models: []domain.ModelReading{
			{ModelID: "lunar", SubScore: composite, Label: "full_moon", Weight: 1, EffectiveWeight: 1},
		},
		Composite:  composite,
		Confidence: 60,
		Alignment:  domain.AlignmentFor(composite),
		Dominant:   "lunar",
		BestFor:    []string{"rest"},
		Avoid:      []string{},
		Skipped:    []domain.ModelID{},
	}
	id, err := domain.ReadingID(r)
	if err != nil {
		t.Fatalf("ReadingID() failed: %v", err)
	}
	r.ID = id
	return r
}
