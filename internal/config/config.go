// Package config defines service configuration and its loading from YAML
// files and environment variables.
package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/candirank/internal/domain/aggregate"
	"github.com/okian/candirank/internal/domain/scoring"
)

// Embedding providers.
const (
	EmbeddingHashing = "hashing"
	EmbeddingGemini  = "gemini"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory evaluation queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of evaluation workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize caps remembered evaluation ids; 0 means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultRankingLimit applies when a ranking request has no limit.
	DefaultRankingLimit int `koanf:"default_ranking_limit"`
	// MaxRankingLimit caps GET /positions/{id}/ranking?limit.
	MaxRankingLimit int `koanf:"max_ranking_limit"`

	// SignalWeights maps signal names (skills, pay, availability,
	// description) to their weight. Missing signals keep their default.
	SignalWeights map[string]float64 `koanf:"signal_weights"`

	// AggregationPolicy is latest, mean or decayed.
	AggregationPolicy string `koanf:"aggregation_policy"`
	// AggregationHalfLifeDays is the age at which a decayed observation
	// counts half.
	AggregationHalfLifeDays float64 `koanf:"aggregation_half_life_days"`

	// PayTolerance is the fraction above the allocated pay at which the pay
	// signal reaches 0.
	PayTolerance float64 `koanf:"pay_tolerance"`
	// AvailabilityHalfLifeDays is the lateness that halves availability.
	AvailabilityHalfLifeDays float64 `koanf:"availability_half_life_days"`

	// EmbeddingProvider is "hashing" (offline) or "gemini".
	EmbeddingProvider  string `koanf:"embedding_provider"`
	EmbeddingDimension int    `koanf:"embedding_dimension"`
	GeminiAPIKey       string `koanf:"gemini_api_key"`
	GeminiModel        string `koanf:"gemini_model"`

	// JournalPath is the SQLite journal file. Empty disables persistence.
	JournalPath string `koanf:"journal_path"`

	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                 "info",
		LogFormat:                "text",
		Addr:                     ":9080",
		QueueSize:                10_000,
		WorkerCount:              runtime.NumCPU() * 2,
		DedupeSize:               50_000,
		DefaultRankingLimit:      10,
		MaxRankingLimit:          100,
		SignalWeights:            scoring.DefaultWeights().Map(),
		AggregationPolicy:        string(aggregate.PolicyDecayed),
		AggregationHalfLifeDays:  90,
		PayTolerance:             0.25,
		AvailabilityHalfLifeDays: 14,
		EmbeddingProvider:        EmbeddingHashing,
		EmbeddingDimension:       512,
		GeminiModel:              "gemini-embedding-001",
		ShutdownTimeoutSeconds:   30,
	}
}

// Weights returns the configured signal weights merged over the defaults.
func (c *Config) Weights() (scoring.Weights, error) {
	return scoring.DefaultWeights().Merge(c.SignalWeights)
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative", ErrInvalidConfig)
	case c.MaxRankingLimit < 1:
		return fmt.Errorf("%w: max_ranking_limit must be positive", ErrInvalidConfig)
	case c.DefaultRankingLimit < 1 || c.DefaultRankingLimit > c.MaxRankingLimit:
		return fmt.Errorf("%w: default_ranking_limit must be in [1, max_ranking_limit]", ErrInvalidConfig)
	case c.AggregationHalfLifeDays <= 0:
		return fmt.Errorf("%w: aggregation_half_life_days must be positive", ErrInvalidConfig)
	case c.PayTolerance <= 0:
		return fmt.Errorf("%w: pay_tolerance must be positive", ErrInvalidConfig)
	case c.AvailabilityHalfLifeDays <= 0:
		return fmt.Errorf("%w: availability_half_life_days must be positive", ErrInvalidConfig)
	case c.EmbeddingDimension < 1:
		return fmt.Errorf("%w: embedding_dimension must be positive", ErrInvalidConfig)
	}
	if _, err := aggregate.ParsePolicy(c.AggregationPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Weights(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.EmbeddingProvider) {
	case EmbeddingHashing:
	case EmbeddingGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: gemini_api_key is required for the gemini provider", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown embedding_provider %q", ErrInvalidConfig, c.EmbeddingProvider)
	}
	return nil
}
