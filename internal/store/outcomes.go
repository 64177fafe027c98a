package store

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/attune/internal/domain"
)

// AppendOutcome inserts an outcome record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// The profile must exist (foreign key constraint).
func (s *Store) AppendOutcome(ctx context.Context, rec domain.OutcomeRecord) error {
	signals, err := marshalSignals(rec.Signals)
	if err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append outcome: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx, "outcomes")
	if err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outcomes
		(id, profile_id, date, activity_type, composite_score, result, followed_advice, signals, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.ProfileID,
		rec.Date.String(),
		rec.ActivityType,
		rec.CompositeScoreAtLogging,
		string(rec.Result),
		rec.FollowedAdvice,
		signals,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		seq,
	)
	if err != nil {
		return fmt.Errorf("append outcome: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append outcome: commit: %w", err)
	}
	return nil
}

// DeleteOutcome removes one outcome of profileID.
// Returns domain.ErrOutcomeNotFound when nothing matched.
func (s *Store) DeleteOutcome(ctx context.Context, profileID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM outcomes WHERE profile_id = ? AND id = ?
	`, profileID, id)
	if err != nil {
		return fmt.Errorf("delete outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete outcome: %w", err)
	}
	if n == 0 {
		return domain.ErrOutcomeNotFound
	}
	return nil
}

// ListOutcomes returns every outcome of profileID in logging order.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
// Returns an empty slice (not nil) when none exist.
func (s *Store) ListOutcomes(ctx context.Context, profileID string) ([]domain.OutcomeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_id, date, activity_type, composite_score, result, followed_advice, signals, created_at
		FROM outcomes
		WHERE profile_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []domain.OutcomeRecord{}
	for rows.Next() {
		rec, err := scanOutcome(rows)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

func scanOutcome(row scanner) (domain.OutcomeRecord, error) {
	var (
		rec       domain.OutcomeRecord
		date      string
		result    string
		signals   string
		createdAt string
	)
	err := row.Scan(&rec.ID, &rec.ProfileID, &date, &rec.ActivityType, &rec.CompositeScoreAtLogging,
		&result, &rec.FollowedAdvice, &signals, &createdAt)
	if err != nil {
		return domain.OutcomeRecord{}, fmt.Errorf("scan outcome: %w", err)
	}

	if rec.Date, err = domain.ParseDate(date); err != nil {
		return domain.OutcomeRecord{}, fmt.Errorf("scan outcome: %w", err)
	}
	rec.Result = domain.OutcomeResult(result)
	if rec.Signals, err = unmarshalSignals(signals); err != nil {
		return domain.OutcomeRecord{}, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.OutcomeRecord{}, fmt.Errorf("scan outcome: parse created_at: %w", err)
	}
	return rec, nil
}
