// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and GIGMATCH_ env vars.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogJSON switches log output to JSON.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// RateLimit caps API requests per client IP per minute; 0 disables it.
	RateLimit int `koanf:"rate_limit"`

	// CORSOrigins lists browser origins allowed to call the API; empty disables CORS.
	CORSOrigins []string `koanf:"cors_origins"`

	Matching   Matching   `koanf:"matching"`
	Similarity Similarity `koanf:"similarity"`
	Store      Store      `koanf:"store"`
	Lock       Lock       `koanf:"lock"`
	Rematch    Rematch    `koanf:"rematch"`
}

// Matching tunes the ranking pipeline.
type Matching struct {
	// PoolSize bounds the candidate pool fetched per run.
	PoolSize int `koanf:"pool_size"`

	// MinScore is the exclusive lower bound a composite must exceed.
	MinScore float64 `koanf:"min_score"`

	// DefaultLimit applies when a request omits limit.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the per-request limit.
	MaxLimit int `koanf:"max_limit"`

	// Weights overrides the composite weights by dimension name.
	Weights map[string]float64 `koanf:"weights"`
}

// Similarity selects the semantic similarity capability.
type Similarity struct {
	// Provider is one of none, lexical, gemini.
	Provider string `koanf:"provider"`

	// Model names the remote embedding model.
	Model string `koanf:"model"`

	// APIKey authenticates against the embedding API.
	APIKey string `koanf:"api_key"`

	// CacheSize bounds the number of cached embeddings.
	CacheSize int `koanf:"cache_size"`

	// Dimensions sizes the lexical embedding vectors.
	Dimensions int `koanf:"dimensions"`

	// RequestTimeout bounds a single remote embedding call.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// BreakerTimeout is how long the circuit stays open before probing again.
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
}

// Store selects the persistence backend.
type Store struct {
	// Backend is memory or postgres.
	Backend string `koanf:"backend"`

	// PostgresDSN is the pgx connection string.
	PostgresDSN string `koanf:"postgres_dsn"`

	// Seed loads the bundled sample data on startup (memory backend).
	Seed bool `koanf:"seed"`
}

// Lock selects the per-gig lease backend.
type Lock struct {
	// Backend is local or redis.
	Backend string `koanf:"backend"`

	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	LeaseTTL      time.Duration `koanf:"lease_ttl"`
	RetryInterval time.Duration `koanf:"retry_interval"`
}

// Rematch configures background rematch processing.
type Rematch struct {
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		Addr:      ":9080",
		RateLimit: 600,
		Matching: Matching{
			PoolSize:     1000,
			MinScore:     3.0,
			DefaultLimit: 10,
			MaxLimit:     100,
		},
		Similarity: Similarity{
			Provider:       "none",
			Model:          "text-embedding-004",
			CacheSize:      10_000,
			Dimensions:     256,
			RequestTimeout: 5 * time.Second,
			BreakerTimeout: time.Minute,
		},
		Store: Store{
			Backend: "memory",
		},
		Lock: Lock{
			Backend:       "local",
			RedisAddr:     "localhost:6379",
			LeaseTTL:      30 * time.Second,
			RetryInterval: 50 * time.Millisecond,
		},
		Rematch: Rematch{
			Workers:   runtime.NumCPU(),
			QueueSize: 1_000,
		},
	}
}

var knownWeights = map[string]bool{ //nolint:gochecknoglobals // lookup table
	"location": true, "budget": true, "skill": true, "experience": true,
	"availability": true, "portfolio": true, "rating": true,
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RateLimit < 0:
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	case c.Matching.PoolSize < 1:
		return fmt.Errorf("%w: matching.pool_size must be positive", ErrInvalidConfig)
	case c.Matching.MaxLimit < 1:
		return fmt.Errorf("%w: matching.max_limit must be positive", ErrInvalidConfig)
	case c.Matching.DefaultLimit < 1 || c.Matching.DefaultLimit > c.Matching.MaxLimit:
		return fmt.Errorf("%w: matching.default_limit must be within 1..max_limit", ErrInvalidConfig)
	case c.Matching.MinScore < 0:
		return fmt.Errorf("%w: matching.min_score must not be negative", ErrInvalidConfig)
	}
	for name, w := range c.Matching.Weights {
		if !knownWeights[name] {
			return fmt.Errorf("%w: unknown weight %q", ErrInvalidConfig, name)
		}
		if w < 0 {
			return fmt.Errorf("%w: weight %q must not be negative", ErrInvalidConfig, name)
		}
	}
	switch c.Similarity.Provider {
	case "none", "lexical", "gemini":
	default:
		return fmt.Errorf("%w: unknown similarity.provider %q", ErrInvalidConfig, c.Similarity.Provider)
	}
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if strings.TrimSpace(c.Store.PostgresDSN) == "" {
			return fmt.Errorf("%w: store.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store.backend %q", ErrInvalidConfig, c.Store.Backend)
	}
	switch c.Lock.Backend {
	case "local":
	case "redis":
		if strings.TrimSpace(c.Lock.RedisAddr) == "" {
			return fmt.Errorf("%w: lock.redis_addr is required for the redis backend", ErrInvalidConfig)
		}
		if c.Lock.LeaseTTL <= 0 {
			return fmt.Errorf("%w: lock.lease_ttl must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown lock.backend %q", ErrInvalidConfig, c.Lock.Backend)
	}
	return nil
}
