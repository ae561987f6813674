// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package main is the entry point for the Curatus server.
//
// Curatus builds personalized recommendation slates from a user's rated
// media library. It synthesizes a taste profile from semantic embeddings
// and genre preferences, discovers candidates through external catalogs,
// scores them against the profile, and serves the resulting slates over
// a REST API with live SSE progress streams.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, CURATUS_ env overrides (Koanf v2)
//  2. Database: DuckDB schema for media items and recommendations
//  3. Embedding service: HTTP model client, worker pool, Badger vector cache
//  4. Catalog clients: screen-content and book discovery with rate limiting
//     and circuit breakers
//  5. Event bus: in-process watermill pub/sub for generation-completed events
//  6. Engine: profile builder, pipelines, scorer, orchestrator
//  7. Supervisor tree: HTTP server and periodic refresh service
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests and generation runs to finish
//   - Closes the event bus, vector cache, and database
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/curatus/internal/api"
	"github.com/tomtom215/curatus/internal/catalog"
	"github.com/tomtom215/curatus/internal/config"
	"github.com/tomtom215/curatus/internal/database"
	"github.com/tomtom215/curatus/internal/embedding"
	"github.com/tomtom215/curatus/internal/engine"
	"github.com/tomtom215/curatus/internal/events"
	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/supervisor"
	"github.com/tomtom215/curatus/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors surface through the default logger; the
		// configured one does not exist yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("embedding_url", cfg.Embedding.URL).
		Str("embedding_model", cfg.Embedding.Model).
		Bool("refresh_enabled", cfg.Refresh.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	// Embedding stack: HTTP model client, optional persistent vector
	// cache, worker pool.
	modelClient := embedding.NewHTTPClient(embedding.HTTPClientConfig{
		URL:     cfg.Embedding.URL,
		Model:   cfg.Embedding.Model,
		Timeout: cfg.Embedding.Timeout,
	})
	var vectorCache *embedding.VectorCache
	if cfg.Embedding.CachePath != "" {
		vectorCache, err = embedding.OpenVectorCache(cfg.Embedding.CachePath, cfg.Embedding.Model)
		if err != nil {
			logging.Warn().Err(err).Str("path", cfg.Embedding.CachePath).
				Msg("Vector cache unavailable, embeddings will not be cached")
		} else {
			defer func() {
				if err := vectorCache.Close(); err != nil {
					logging.Error().Err(err).Msg("Error closing vector cache")
				}
			}()
		}
	}
	embedder := embedding.NewService(modelClient, vectorCache, embedding.ServiceConfig{
		Dimension: cfg.Embedding.Dimension,
		Workers:   cfg.Embedding.Workers,
	})

	screenClient := catalog.NewTMDBClient(cfg.Catalog.TMDB)
	bookClient := catalog.NewOpenLibraryClient(cfg.Catalog.OpenLibrary)

	bus := events.NewBus()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	eng := engine.New(db, embedder, screenClient, bookClient, bus, cfg.Engine)

	handler := api.NewHandler(eng, db, db)
	router := api.NewRouter(handler, cfg.Server)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router.Setup(),
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout stays unset: SSE progress streams outlive any
		// fixed write deadline. Idle keep-alive connections still expire.
		IdleTimeout: 2 * cfg.Server.ReadTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if cfg.Refresh.Enabled {
		tree.AddBackgroundService(services.NewRefreshService(eng, db,
			services.RefreshServiceConfig{Interval: cfg.Refresh.Interval},
			logging.Logger()))
		logging.Info().Dur("interval", cfg.Refresh.Interval).Msg("Periodic refresh enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}
