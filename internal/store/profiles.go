package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/attune/internal/domain"
)

// SaveProfile inserts or replaces a birth profile. The original insertion
// order (seq) is kept on update.
func (s *Store) SaveProfile(ctx context.Context, p domain.BirthProfile) error {
	seq, err := nextSeq(ctx, s.db, "profiles")
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	var placeName sql.NullString
	var lat, lon sql.NullFloat64
	if p.BirthPlace != nil {
		placeName = sql.NullString{String: p.BirthPlace.Name, Valid: true}
		lat = sql.NullFloat64{Float64: p.BirthPlace.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: p.BirthPlace.Longitude, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles (id, name, birth_date, place_name, latitude, longitude, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			birth_date = excluded.birth_date,
			place_name = excluded.place_name,
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`, p.ID, p.Name, p.BirthDate.String(), placeName, lat, lon, seq)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Profile returns the birth profile for id, or domain.ErrProfileNotFound.
func (s *Store) Profile(ctx context.Context, id string) (domain.BirthProfile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, birth_date, place_name, latitude, longitude
		FROM profiles
		WHERE id = ?
	`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BirthProfile{}, fmt.Errorf("profile %s: %w", id, domain.ErrProfileNotFound)
	}
	if err != nil {
		return domain.BirthProfile{}, fmt.Errorf("read profile: %w", err)
	}
	return p, nil
}

// ListProfiles returns every profile in insertion order.
// Returns an empty slice (not nil) when none exist.
func (s *Store) ListProfiles(ctx context.Context) ([]domain.BirthProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, birth_date, place_name, latitude, longitude
		FROM profiles
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.BirthProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("read profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (domain.BirthProfile, error) {
	var (
		p         domain.BirthProfile
		birthDate string
		placeName sql.NullString
		lat, lon  sql.NullFloat64
	)
	if err := row.Scan(&p.ID, &p.Name, &birthDate, &placeName, &lat, &lon); err != nil {
		return domain.BirthProfile{}, err
	}
	d, err := domain.ParseDate(birthDate)
	if err != nil {
		return domain.BirthProfile{}, err
	}
	p.BirthDate = d
	if lat.Valid && lon.Valid {
		p.BirthPlace = &domain.Place{Name: placeName.String, Latitude: lat.Float64, Longitude: lon.Float64}
	}
	return p, nil
}
