package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/logging"
)

// SaveProfile validates and stores a birth profile, replacing any profile
// with the same id.
func (e *Engine) SaveProfile(ctx context.Context, p domain.BirthProfile) (err error) {
	ctx, span := startSpan(ctx, "engine.SaveProfile", p.ID)
	defer func() { endSpan(span, err) }()

	p.ID = strings.TrimSpace(p.ID)
	p.Name = strings.TrimSpace(p.Name)
	if err := p.Validate(); err != nil {
		return err
	}
	if err := e.repo.SaveProfile(ctx, p); err != nil {
		logging.For(ctx, e.logger).Error("save profile failed", zap.String("profile_id", p.ID), zap.Error(err))
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	logging.For(ctx, e.logger).Info("profile saved",
		zap.String("profile_id", p.ID),
		zap.Bool("has_location", p.HasLocation()))
	return nil
}

// Profile returns one birth profile or domain.ErrProfileNotFound.
func (e *Engine) Profile(ctx context.Context, id string) (domain.BirthProfile, error) {
	p, err := e.repo.Profile(ctx, id)
	if err != nil {
		return domain.BirthProfile{}, fmt.Errorf("load profile %s: %w", id, err)
	}
	return p, nil
}

// ListProfiles returns every stored profile in creation order.
func (e *Engine) ListProfiles(ctx context.Context) ([]domain.BirthProfile, error) {
	ps, err := e.repo.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return ps, nil
}
