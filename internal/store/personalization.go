package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/attune/internal/domain"
)

// LoadPersonalization returns the stored profile; ok is false when none exists.
func (s *Store) LoadPersonalization(ctx context.Context, profileID string) (domain.PersonalizationProfile, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM personalization WHERE profile_id = ?
	`, profileID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PersonalizationProfile{}, false, nil
	}
	if err != nil {
		return domain.PersonalizationProfile{}, false, fmt.Errorf("read personalization: %w", err)
	}
	p, err := unmarshalPersonalization(payload)
	if err != nil {
		return domain.PersonalizationProfile{}, false, err
	}
	return p, true, nil
}

// SavePersonalization replaces the stored profile wholesale.
func (s *Store) SavePersonalization(ctx context.Context, p domain.PersonalizationProfile) error {
	payload, err := marshalPersonalization(p)
	if err != nil {
		return fmt.Errorf("save personalization: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO personalization (profile_id, payload, computed_at)
		VALUES (?, ?, ?)
		ON CONFLICT(profile_id) DO UPDATE SET
			payload = excluded.payload,
			computed_at = excluded.computed_at
	`, p.ProfileID, payload, p.ComputedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save personalization: %w", err)
	}
	return nil
}
