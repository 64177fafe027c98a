// Package config loads Attune configuration.
//
// Values come from three layers, highest precedence first:
//  1. Environment variables prefixed ATTUNE_ (ATTUNE_CACHE_BACKEND -> cache.backend)
//  2. A YAML file
//  3. Defaults
//
// The merged result is checked against an embedded CUE schema and then
// against cross-field rules in Validate.
package config

import (
	"fmt"
	"time"

	"github.com/roach88/attune/internal/cache"
	"github.com/roach88/attune/internal/correlation"
	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/logging"
	"github.com/roach88/attune/internal/models"
	"github.com/roach88/attune/internal/scoring"
	"github.com/roach88/attune/internal/trend"
)

// Config holds the complete Attune configuration.
type Config struct {
	Database    DatabaseConfig    `koanf:"database" json:"database"`
	Log         logging.Config    `koanf:"log" json:"log"`
	Server      ServerConfig      `koanf:"server" json:"server"`
	Cache       CacheConfig       `koanf:"cache" json:"cache"`
	Scoring     ScoringConfig     `koanf:"scoring" json:"scoring"`
	Correlation CorrelationConfig `koanf:"correlation" json:"correlation"`
	Trend       TrendConfig       `koanf:"trend" json:"trend"`
	Forecast    ForecastConfig    `koanf:"forecast" json:"forecast"`
	Signals     []SignalConfig    `koanf:"signals" json:"signals,omitempty"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `koanf:"path" json:"path"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `koanf:"addr" json:"addr"`
	Mode            string        `koanf:"mode" json:"mode"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

// CacheConfig selects the reading cache backend.
type CacheConfig struct {
	Backend       string        `koanf:"backend" json:"backend"`
	MemoryEntries int           `koanf:"memory_entries" json:"memory_entries"`
	RedisAddr     string        `koanf:"redis_addr" json:"redis_addr"`
	RedisPassword string        `koanf:"redis_password" json:"redis_password"`
	RedisDB       int           `koanf:"redis_db" json:"redis_db"`
	KeyPrefix     string        `koanf:"key_prefix" json:"key_prefix"`
	TTL           time.Duration `koanf:"ttl" json:"ttl"`
}

// ScoringConfig holds the composite scorer constants.
type ScoringConfig struct {
	// Weights overrides the base weight of individual models.
	Weights           map[string]float64 `koanf:"weights" json:"weights,omitempty"`
	BaseConfidence    int                `koanf:"base_confidence" json:"base_confidence"`
	PerModelBonus     int                `koanf:"per_model_bonus" json:"per_model_bonus"`
	EvidencePerFactor float64            `koanf:"evidence_per_factor" json:"evidence_per_factor"`
	EvidenceCap       float64            `koanf:"evidence_cap" json:"evidence_cap"`
	MaxConfidence     int                `koanf:"max_confidence" json:"max_confidence"`
}

// CorrelationConfig holds the analyzer constants and the recompute cadence.
type CorrelationConfig struct {
	Sensitivity         float64       `koanf:"sensitivity" json:"sensitivity"`
	HighThreshold       int           `koanf:"high_threshold" json:"high_threshold"`
	MinSamples          int           `koanf:"min_samples" json:"min_samples"`
	MaxDelta            float64       `koanf:"max_delta" json:"max_delta"`
	ConfidenceBase      int           `koanf:"confidence_base" json:"confidence_base"`
	ConfidencePerSample int           `koanf:"confidence_per_sample" json:"confidence_per_sample"`
	ConfidenceCap       int           `koanf:"confidence_cap" json:"confidence_cap"`
	PredictSuccessAt    int           `koanf:"predict_success_at" json:"predict_success_at"`
	PredictFailureBelow int           `koanf:"predict_failure_below" json:"predict_failure_below"`
	RefreshInterval     time.Duration `koanf:"refresh_interval" json:"refresh_interval"`
}

// TrendConfig holds the insight rule thresholds.
type TrendConfig struct {
	Threshold  float64 `koanf:"threshold" json:"threshold"`
	SwingRange int     `koanf:"swing_range" json:"swing_range"`
}

// ForecastConfig bounds forecast requests.
type ForecastConfig struct {
	DefaultDays int `koanf:"default_days" json:"default_days"`
	MaxDays     int `koanf:"max_days" json:"max_days"`
}

// SignalConfig names a lifestyle signal and its high threshold.
type SignalConfig struct {
	Name      string  `koanf:"name" json:"name"`
	Threshold float64 `koanf:"threshold" json:"threshold"`
}

// Default returns the stock configuration.
func Default() Config {
	sc := scoring.DefaultConfig()
	cc := correlation.DefaultConfig()
	tc := trend.DefaultConfig()

	signals := make([]SignalConfig, 0, len(cc.Signals))
	for _, s := range cc.Signals {
		signals = append(signals, SignalConfig{Name: s.Name, Threshold: s.Threshold})
	}

	return Config{
		Database: DatabaseConfig{Path: "attune.db"},
		Log:      logging.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:       cache.BackendMemory,
			MemoryEntries: cache.DefaultMemoryEntries,
			RedisAddr:     "localhost:6379",
			KeyPrefix:     "attune:reading:",
			TTL:           48 * time.Hour,
		},
		Scoring: ScoringConfig{
			BaseConfidence:    sc.BaseConfidence,
			PerModelBonus:     sc.PerModelBonus,
			EvidencePerFactor: sc.EvidencePerFactor,
			EvidenceCap:       sc.EvidenceCap,
			MaxConfidence:     sc.MaxConfidence,
		},
		Correlation: CorrelationConfig{
			Sensitivity:         cc.Sensitivity,
			HighThreshold:       cc.HighThreshold,
			MinSamples:          cc.MinSamples,
			MaxDelta:            cc.MaxDelta,
			ConfidenceBase:      cc.ConfidenceBase,
			ConfidencePerSample: cc.ConfidencePerSample,
			ConfidenceCap:       cc.ConfidenceCap,
			PredictSuccessAt:    cc.PredictSuccessAt,
			PredictFailureBelow: cc.PredictFailureBelow,
			RefreshInterval:     24 * time.Hour,
		},
		Trend: TrendConfig{
			Threshold:  tc.TrendThreshold,
			SwingRange: tc.SwingRange,
		},
		Forecast: ForecastConfig{DefaultDays: 7, MaxDays: 30},
		Signals:  signals,
	}
}

// Validate applies the rules the schema cannot express.
func (c Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	for id := range c.Scoring.Weights {
		if _, ok := models.Lookup(domain.ModelID(id)); !ok {
			return fmt.Errorf("scoring.weights: unknown model %q", id)
		}
	}
	if c.Scoring.MaxConfidence < c.Scoring.BaseConfidence {
		return fmt.Errorf("scoring.max_confidence %d is below base_confidence %d",
			c.Scoring.MaxConfidence, c.Scoring.BaseConfidence)
	}
	if c.Correlation.PredictFailureBelow > c.Correlation.PredictSuccessAt {
		return fmt.Errorf("correlation.predict_failure_below %d exceeds predict_success_at %d",
			c.Correlation.PredictFailureBelow, c.Correlation.PredictSuccessAt)
	}
	if c.Forecast.DefaultDays > c.Forecast.MaxDays {
		return fmt.Errorf("forecast.default_days %d exceeds max_days %d",
			c.Forecast.DefaultDays, c.Forecast.MaxDays)
	}
	seen := make(map[string]bool, len(c.Signals))
	for _, s := range c.Signals {
		if seen[s.Name] {
			return fmt.Errorf("signals: duplicate signal %q", s.Name)
		}
		if _, ok := models.Lookup(domain.ModelID(s.Name)); ok {
			return fmt.Errorf("signals: %q collides with a model id", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// ScorerConfig converts the scoring section.
func (c Config) ScorerConfig() scoring.Config {
	var weights map[domain.ModelID]float64
	if len(c.Scoring.Weights) > 0 {
		weights = make(map[domain.ModelID]float64, len(c.Scoring.Weights))
		for id, w := range c.Scoring.Weights {
			weights[domain.ModelID(id)] = w
		}
	}
	return scoring.Config{
		BaseWeights:       weights,
		BaseConfidence:    c.Scoring.BaseConfidence,
		PerModelBonus:     c.Scoring.PerModelBonus,
		EvidencePerFactor: c.Scoring.EvidencePerFactor,
		EvidenceCap:       c.Scoring.EvidenceCap,
		MaxConfidence:     c.Scoring.MaxConfidence,
	}
}

// AnalyzerConfig converts the correlation and signals sections.
func (c Config) AnalyzerConfig() correlation.Config {
	signals := make([]correlation.Signal, 0, len(c.Signals))
	for _, s := range c.Signals {
		signals = append(signals, correlation.Signal{Name: s.Name, Threshold: s.Threshold})
	}
	return correlation.Config{
		Sensitivity:         c.Correlation.Sensitivity,
		HighThreshold:       c.Correlation.HighThreshold,
		MinSamples:          c.Correlation.MinSamples,
		MaxDelta:            c.Correlation.MaxDelta,
		ConfidenceBase:      c.Correlation.ConfidenceBase,
		ConfidencePerSample: c.Correlation.ConfidencePerSample,
		ConfidenceCap:       c.Correlation.ConfidenceCap,
		PredictSuccessAt:    c.Correlation.PredictSuccessAt,
		PredictFailureBelow: c.Correlation.PredictFailureBelow,
		Signals:             signals,
	}
}

// AggregatorConfig converts the trend section.
func (c Config) AggregatorConfig() trend.Config {
	return trend.Config{TrendThreshold: c.Trend.Threshold, SwingRange: c.Trend.SwingRange}
}

// CacheOptions converts the cache section.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:       c.Cache.Backend,
		MemoryEntries: c.Cache.MemoryEntries,
		Redis: cache.RedisOptions{
			Addr:      c.Cache.RedisAddr,
			Password:  c.Cache.RedisPassword,
			DB:        c.Cache.RedisDB,
			KeyPrefix: c.Cache.KeyPrefix,
			TTL:       c.Cache.TTL,
		},
	}
}
