// Package cache stores computed readings keyed by the content hash of their
// inputs. Because the key covers the personalization snapshot, a recompute
// never needs to invalidate anything: new weights simply produce new keys.
package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/attune/internal/domain"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Cache is a reading cache. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (domain.DailyEnergyReading, bool, error)
	Set(ctx context.Context, key string, r domain.DailyEnergyReading) error
	Close() error
}

// Loader fronts a Cache with duplicate suppression: concurrent loads of one
// key run compute once and share its result.
type Loader struct {
	cache Cache
	group singleflight.Group
}

// NewLoader creates a loader over c.
func NewLoader(c Cache) *Loader {
	return &Loader{cache: c}
}

// Load returns the cached reading for key, computing and storing it on a
// miss. hit reports whether the value came from the cache. Cache errors are
// returned only when compute also cannot run.
func (l *Loader) Load(ctx context.Context, key string, compute func() (domain.DailyEnergyReading, error)) (r domain.DailyEnergyReading, hit bool, err error) {
	if r, ok, err := l.cache.Get(ctx, key); err == nil && ok {
		return r, true, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		r, err := compute()
		if err != nil {
			return nil, err
		}
		// A failed Set only costs a future recomputation.
		_ = l.cache.Set(ctx, key, r)
		return r, nil
	})
	if err != nil {
		return domain.DailyEnergyReading{}, false, fmt.Errorf("load reading: %w", err)
	}
	return v.(domain.DailyEnergyReading), false, nil
}

// Close releases the underlying cache.
func (l *Loader) Close() error {
	return l.cache.Close()
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (domain.DailyEnergyReading, bool, error) {
	return domain.DailyEnergyReading{}, false, nil
}

func (Nop) Set(context.Context, string, domain.DailyEnergyReading) error { return nil }

func (Nop) Close() error { return nil }
