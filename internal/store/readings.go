package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/attune/internal/domain"
)

// SaveReading upserts the reading for (profile, date). A recomputed reading
// replaces the previous one; the stored id always matches the payload.
func (s *Store) SaveReading(ctx context.Context, r domain.DailyEnergyReading) error {
	payload, err := marshalReading(r)
	if err != nil {
		return fmt.Errorf("save reading: %w", err)
	}
	seq, err := nextSeq(ctx, s.db, "readings")
	if err != nil {
		return fmt.Errorf("save reading: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO readings (profile_id, date, id, composite, payload, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(profile_id, date) DO UPDATE SET
			id = excluded.id,
			composite = excluded.composite,
			payload = excluded.payload,
			seq = excluded.seq
		WHERE readings.id != excluded.id
	`, r.ProfileID, r.Date.String(), r.ID, r.Composite, payload, seq)
	if err != nil {
		return fmt.Errorf("save reading: %w", err)
	}
	return nil
}

// Reading returns the stored reading for (profile, date), if any.
func (s *Store) Reading(ctx context.Context, profileID string, date domain.Date) (domain.DailyEnergyReading, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM readings WHERE profile_id = ? AND date = ?
	`, profileID, date.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DailyEnergyReading{}, false, nil
	}
	if err != nil {
		return domain.DailyEnergyReading{}, false, fmt.Errorf("read reading: %w", err)
	}
	r, err := unmarshalReading(payload)
	if err != nil {
		return domain.DailyEnergyReading{}, false, err
	}
	return r, true, nil
}

// Readings returns stored readings for profileID with from <= date <= to,
// ordered by date. Returns an empty slice (not nil) when none exist.
func (s *Store) Readings(ctx context.Context, profileID string, from, to domain.Date) ([]domain.DailyEnergyReading, error) {
	// ISO dates compare correctly as text.
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload
		FROM readings
		WHERE profile_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, profileID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	readings := []domain.DailyEnergyReading{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r, err := unmarshalReading(payload)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}
