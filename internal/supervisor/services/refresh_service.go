// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/curatus/internal/engine"
)

// SlateRefresher is the engine surface the refresh service drives.
type SlateRefresher interface {
	Generate(ctx context.Context, userID int64, forceRefresh bool) (map[engine.MediaType][]engine.Recommendation, error)
}

// UserLister enumerates users whose slates may need refreshing.
type UserLister interface {
	UserIDs(ctx context.Context) ([]int64, error)
}

// RefreshServiceConfig holds refresh service settings.
type RefreshServiceConfig struct {
	// Interval is how often stale slates are re-generated.
	Interval time.Duration

	// PerUserTimeout bounds one user's generation run.
	PerUserTimeout time.Duration
}

// RefreshService periodically walks all users and re-generates their
// recommendation slates. Generation is never forced, so the engine's
// freshness check skips users with a recent slate and the sweep stays
// cheap between library changes.
type RefreshService struct {
	refresher SlateRefresher
	users     UserLister
	config    RefreshServiceConfig
	logger    zerolog.Logger
	name      string
}

// NewRefreshService creates a periodic slate refresh service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRefreshService(refresher SlateRefresher, users UserLister, cfg RefreshServiceConfig, logger zerolog.Logger) *RefreshService {
	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.PerUserTimeout <= 0 {
		cfg.PerUserTimeout = 10 * time.Minute
	}
	return &RefreshService{
		refresher: refresher,
		users:     users,
		config:    cfg,
		logger:    logger.With().Str("service", "refresh").Logger(),
		name:      "refresh-service",
	}
}

// Serve implements suture.Service.
func (s *RefreshService) Serve(ctx context.Context) error {
	s.logger.Info().
		Dur("interval", s.config.Interval).
		Msg("refresh service starting")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh service shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep refreshes every user's slate once. Per-user failures are logged
// and skipped; the sweep itself never fails the service.
func (s *RefreshService) sweep(ctx context.Context) {
	ids, err := s.users.UserIDs(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("listing users failed, skipping sweep")
		return
	}

	start := time.Now()
	refreshed := 0
	for _, userID := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.refreshOne(ctx, userID); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("slate refresh failed")
			continue
		}
		refreshed++
	}

	s.logger.Info().
		Int("users", len(ids)).
		Int("refreshed", refreshed).
		Dur("duration", time.Since(start)).
		Msg("refresh sweep complete")
}

func (s *RefreshService) refreshOne(ctx context.Context, userID int64) error {
	runCtx, cancel := context.WithTimeout(ctx, s.config.PerUserTimeout)
	defer cancel()

	_, err := s.refresher.Generate(runCtx, userID, false)
	return err
}

// String returns the service name for supervisor logging.
func (s *RefreshService) String() string {
	return s.name
}
