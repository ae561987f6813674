// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package config provides typed configuration for Curatus, loaded via koanf
// from struct defaults, an optional YAML file, and CURATUS_ environment
// variable overrides (in that order of precedence).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Curatus server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Engine    EngineConfig    `koanf:"engine"`
	Refresh   RefreshConfig   `koanf:"refresh"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RateLimitPerMinute bounds requests per client IP on API routes.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" runs fully in memory.
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EmbeddingConfig holds embedding model client settings.
type EmbeddingConfig struct {
	// URL is the embedding inference server endpoint (Ollama-compatible /api/embed).
	URL string `koanf:"url"`
	// Model is the sentence-embedding model name. Must produce Dimension-sized vectors.
	Model string `koanf:"model"`
	// Dimension is the expected embedding dimension.
	Dimension int `koanf:"dimension"`
	// Workers is the size of the CPU-offload worker pool.
	Workers int `koanf:"workers"`
	// Timeout bounds a single inference call.
	Timeout time.Duration `koanf:"timeout"`
	// CachePath is the Badger directory for the persistent vector cache.
	// Empty disables the persistent cache.
	CachePath string `koanf:"cache_path"`
}

// CatalogConfig holds external catalog client settings.
type CatalogConfig struct {
	TMDB        TMDBConfig        `koanf:"tmdb"`
	OpenLibrary OpenLibraryConfig `koanf:"open_library"`
}

// TMDBConfig holds screen-content catalog settings.
type TMDBConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
	// RequestsPerSecond is the client-side rate limit.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
}

// OpenLibraryConfig holds book catalog settings.
type OpenLibraryConfig struct {
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
}

// EngineConfig holds the recommendation engine constants. These are
// documented, immutable-at-runtime tuning values; changing them changes
// slate composition.
type EngineConfig struct {
	// PerGenreCap is the maximum recommendations per (media type, genre).
	PerGenreCap int `koanf:"per_genre_cap"`
	// MaxPreferredGenres bounds how many preferred genres are discovered.
	MaxPreferredGenres int `koanf:"max_preferred_genres"`
	// MaxTotalGenres bounds the genres filled per media type.
	MaxTotalGenres int `koanf:"max_total_genres"`
	// SimilarPerSeed is how many similar items are taken per seed.
	SimilarPerSeed int `koanf:"similar_per_seed"`
	// MaxSeeds bounds how many rated items seed the similar phase.
	MaxSeeds int `koanf:"max_seeds"`
	// MinSeedRating is the minimum rating for an item to act as a seed.
	MinSeedRating int `koanf:"min_seed_rating"`
	// StreamingCountry is the watch-provider country code.
	StreamingCountry string `koanf:"streaming_country"`
	// AvailabilityLRUSize caps the per-run streaming-availability cache.
	AvailabilityLRUSize int `koanf:"availability_lru_size"`
	// StalenessWindow is how long a generated slate is considered fresh.
	StalenessWindow time.Duration `koanf:"staleness_window"`
	// FreshThreshold is the non-dismissed count above which generation is skipped.
	FreshThreshold int `koanf:"fresh_threshold"`
	// DismissedGCWindow is how long dismissed recommendations are retained.
	DismissedGCWindow time.Duration `koanf:"dismissed_gc_window"`
}

// RefreshConfig holds the periodic background refresh settings.
type RefreshConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.Workers <= 0 {
		return fmt.Errorf("embedding.workers must be positive, got %d", c.Embedding.Workers)
	}
	if c.Engine.PerGenreCap <= 0 {
		return fmt.Errorf("engine.per_genre_cap must be positive, got %d", c.Engine.PerGenreCap)
	}
	if c.Engine.MaxTotalGenres < c.Engine.MaxPreferredGenres {
		return fmt.Errorf("engine.max_total_genres (%d) must be >= engine.max_preferred_genres (%d)",
			c.Engine.MaxTotalGenres, c.Engine.MaxPreferredGenres)
	}
	if c.Engine.AvailabilityLRUSize <= 0 {
		return fmt.Errorf("engine.availability_lru_size must be positive, got %d", c.Engine.AvailabilityLRUSize)
	}
	if c.Engine.MinSeedRating < 1 || c.Engine.MinSeedRating > 5 {
		return fmt.Errorf("engine.min_seed_rating must be in 1..5, got %d", c.Engine.MinSeedRating)
	}
	return nil
}
