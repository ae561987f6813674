// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/curatus/config.yaml",
	"/etc/curatus/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix is the prefix for environment variable overrides,
// e.g. CURATUS_SERVER_PORT=9090 sets server.port.
const envPrefix = "CURATUS_"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8484,
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       0, // streaming endpoints manage their own deadlines
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 300,
		},
		Database: DatabaseConfig{
			Path:      "/data/curatus.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Embedding: EmbeddingConfig{
			URL:       "http://127.0.0.1:11434/api/embed",
			Model:     "all-minilm",
			Dimension: 384,
			Workers:   2,
			Timeout:   15 * time.Second,
			CachePath: "/data/curatus-vectors",
		},
		Catalog: CatalogConfig{
			TMDB: TMDBConfig{
				BaseURL:           "https://api.themoviedb.org/3",
				APIKey:            "",
				Timeout:           10 * time.Second,
				RequestsPerSecond: 4,
			},
			OpenLibrary: OpenLibraryConfig{
				BaseURL:           "https://openlibrary.org",
				Timeout:           10 * time.Second,
				RequestsPerSecond: 2,
			},
		},
		Engine: EngineConfig{
			PerGenreCap:         5,
			MaxPreferredGenres:  8,
			MaxTotalGenres:      12,
			SimilarPerSeed:      3,
			MaxSeeds:            8,
			MinSeedRating:       4,
			StreamingCountry:    "FR",
			AvailabilityLRUSize: 500,
			StalenessWindow:     12 * time.Hour,
			FreshThreshold:      20,
			DismissedGCWindow:   7 * 24 * time.Hour,
		},
		Refresh: RefreshConfig{
			Enabled:  false,
			Interval: 24 * time.Hour,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: struct defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional YAML file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: CURATUS_ environment variables.
	// CURATUS_ENGINE_PER_GENRE_CAP maps to engine.per_genre_cap.
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps environment variable names to koanf paths:
//   - CURATUS_SERVER_PORT -> server.port
//   - CURATUS_ENGINE_PER_GENRE_CAP -> engine.per_genre_cap
//   - CURATUS_CATALOG_TMDB_API_KEY -> catalog.tmdb.api_key
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	// Catalog settings nest one level deeper than the rest.
	if rest, ok := strings.CutPrefix(key, "catalog_tmdb_"); ok {
		return "catalog.tmdb." + rest
	}
	if rest, ok := strings.CutPrefix(key, "catalog_open_library_"); ok {
		return "catalog.open_library." + rest
	}

	return strings.Replace(key, "_", ".", 1)
}

// findConfigFile returns the first existing config file path, honoring
// the CONFIG_PATH override. Returns empty string if none exists.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
