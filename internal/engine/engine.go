package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/roach88/attune/internal/cache"
	"github.com/roach88/attune/internal/config"
	"github.com/roach88/attune/internal/correlation"
	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/metrics"
	"github.com/roach88/attune/internal/outcome"
	"github.com/roach88/attune/internal/personalization"
	"github.com/roach88/attune/internal/scoring"
	"github.com/roach88/attune/internal/trend"
)

// Repository is everything the engine persists. *store.Store implements it.
type Repository interface {
	SaveProfile(ctx context.Context, p domain.BirthProfile) error
	Profile(ctx context.Context, id string) (domain.BirthProfile, error)
	ListProfiles(ctx context.Context) ([]domain.BirthProfile, error)

	SaveReading(ctx context.Context, r domain.DailyEnergyReading) error
	Reading(ctx context.Context, profileID string, date domain.Date) (domain.DailyEnergyReading, bool, error)
	Readings(ctx context.Context, profileID string, from, to domain.Date) ([]domain.DailyEnergyReading, error)

	outcome.History
	personalization.Repository
}

// Defaults for forecast length and recompute cadence.
const (
	DefaultForecastDays    = 7
	DefaultMaxForecastDays = 30
	DefaultRefreshInterval = 24 * time.Hour
)

// Engine is the scoring and personalization facade.
//
// Thread-safety: every method is safe for concurrent use. Identical
// concurrent reading computations are collapsed by the cache loader, and
// recomputes for one profile never interleave.
type Engine struct {
	repo     Repository
	scorer   *scoring.Scorer
	trends   *trend.Aggregator
	analyzer *correlation.Analyzer
	recorder *outcome.Recorder
	personal *personalization.Store
	readings *cache.Loader

	ids     IDGenerator
	clock   Clock
	logger  *zap.Logger
	metrics *metrics.Metrics

	forecastDays    int
	maxForecastDays int
	refreshInterval time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithScorer replaces the default scorer over every registered model.
func WithScorer(s *scoring.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithAggregator replaces the default trend aggregator.
func WithAggregator(a *trend.Aggregator) Option {
	return func(e *Engine) { e.trends = a }
}

// WithAnalyzer replaces the default correlation analyzer.
func WithAnalyzer(a *correlation.Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithCache sets the reading cache. Default: an in-memory LRU.
func WithCache(c cache.Cache) Option {
	return func(e *Engine) { e.readings = cache.NewLoader(c) }
}

// WithClock sets the clock used for outcome and recompute timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the outcome id generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithForecastLimits sets the forecast length used when a caller passes 0
// days, and the largest length accepted.
func WithForecastLimits(defaultDays, maxDays int) Option {
	return func(e *Engine) {
		e.forecastDays = defaultDays
		e.maxForecastDays = maxDays
	}
}

// WithRefreshInterval sets how old personalization may get before
// RefreshIfStale recomputes it.
func WithRefreshInterval(d time.Duration) Option {
	return func(e *Engine) { e.refreshInterval = d }
}

// ConfigOptions translates a loaded config into engine options. The cache
// is built separately because a redis backend needs a live connection.
func ConfigOptions(cfg config.Config) []Option {
	return []Option{
		WithScorer(scoring.NewScorer(nil, cfg.ScorerConfig())),
		WithAggregator(trend.NewAggregator(cfg.AggregatorConfig())),
		WithAnalyzer(correlation.NewAnalyzer(cfg.AnalyzerConfig())),
		WithForecastLimits(cfg.Forecast.DefaultDays, cfg.Forecast.MaxDays),
		WithRefreshInterval(cfg.Correlation.RefreshInterval),
	}
}

// New creates an Engine over repo.
func New(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:            repo,
		scorer:          scoring.NewScorer(nil, scoring.DefaultConfig()),
		trends:          trend.NewAggregator(trend.DefaultConfig()),
		analyzer:        correlation.NewAnalyzer(correlation.DefaultConfig()),
		personal:        personalization.NewStore(repo),
		readings:        cache.NewLoader(cache.NewMemory(cache.DefaultMemoryEntries)),
		ids:             UUIDv7Generator{},
		clock:           SystemClock{},
		logger:          zap.NewNop(),
		metrics:         metrics.Get(),
		forecastDays:    DefaultForecastDays,
		maxForecastDays: DefaultMaxForecastDays,
		refreshInterval: DefaultRefreshInterval,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.recorder = outcome.NewRecorder(repo, e.ids, e.clock)
	return e
}

// Models lists the registered model ids in registration order.
func (e *Engine) Models() []domain.ModelID {
	return e.scorer.Models()
}

// Close releases the reading cache. The repository belongs to the caller.
func (e *Engine) Close() error {
	return e.readings.Close()
}
