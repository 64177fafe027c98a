// Package personalization holds per-user adjustment profiles behind a
// single-writer discipline: all writes for one profile are serialized by a
// per-profile mutex, and a write replaces the whole profile.
package personalization

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/attune/internal/domain"
)

// Repository persists personalization profiles.
type Repository interface {
	// LoadPersonalization returns ok=false when nothing is stored.
	LoadPersonalization(ctx context.Context, profileID string) (domain.PersonalizationProfile, bool, error)
	SavePersonalization(ctx context.Context, p domain.PersonalizationProfile) error
}

// UpdateFunc computes the next profile from the current one. Returning
// persist=false leaves storage untouched.
type UpdateFunc func(current domain.PersonalizationProfile) (next domain.PersonalizationProfile, persist bool, err error)

// Store serializes read-modify-write cycles per profile.
type Store struct {
	repo Repository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a store over repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo, locks: make(map[string]*sync.Mutex)}
}

func (s *Store) lockFor(profileID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[profileID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[profileID] = l
	}
	return l
}

// Get returns the stored profile, or an empty one when none exists yet.
// The returned value is a copy.
func (s *Store) Get(ctx context.Context, profileID string) (domain.PersonalizationProfile, error) {
	p, ok, err := s.repo.LoadPersonalization(ctx, profileID)
	if err != nil {
		return domain.PersonalizationProfile{}, fmt.Errorf("load personalization: %w", err)
	}
	if !ok {
		return Empty(profileID), nil
	}
	return p.Clone(), nil
}

// Apply replaces the stored profile wholesale.
func (s *Store) Apply(ctx context.Context, profileID string, p domain.PersonalizationProfile) error {
	l := s.lockFor(profileID)
	l.Lock()
	defer l.Unlock()
	return s.save(ctx, profileID, p)
}

// Update runs fn under the profile's lock and stores its result when asked.
// Concurrent Updates for one profile never interleave, so no recompute can
// overwrite another's result with stale input.
func (s *Store) Update(ctx context.Context, profileID string, fn UpdateFunc) (domain.PersonalizationProfile, error) {
	l := s.lockFor(profileID)
	l.Lock()
	defer l.Unlock()

	current, err := s.Get(ctx, profileID)
	if err != nil {
		return domain.PersonalizationProfile{}, err
	}
	next, persist, err := fn(current)
	if err != nil {
		return domain.PersonalizationProfile{}, err
	}
	if persist {
		if err := s.save(ctx, profileID, next); err != nil {
			return domain.PersonalizationProfile{}, err
		}
	}
	return next, nil
}

func (s *Store) save(ctx context.Context, profileID string, p domain.PersonalizationProfile) error {
	p = p.Clone()
	p.ProfileID = profileID
	if p.Factors == nil {
		p.Factors = []domain.AdjustmentFactor{}
	}
	if err := s.repo.SavePersonalization(ctx, p); err != nil {
		return fmt.Errorf("save personalization: %w", err)
	}
	return nil
}

// Empty is the profile of a user with no learned adjustments.
func Empty(profileID string) domain.PersonalizationProfile {
	return domain.PersonalizationProfile{ProfileID: profileID, Factors: []domain.AdjustmentFactor{}}
}

// MemoryRepository keeps profiles in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]domain.PersonalizationProfile
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{profiles: make(map[string]domain.PersonalizationProfile)}
}

func (r *MemoryRepository) LoadPersonalization(_ context.Context, profileID string) (domain.PersonalizationProfile, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[profileID]
	return p.Clone(), ok, nil
}

func (r *MemoryRepository) SavePersonalization(_ context.Context, p domain.PersonalizationProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ProfileID] = p.Clone()
	return nil
}
