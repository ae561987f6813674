// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/curatus/internal/config"
)

// Router builds the HTTP handler tree.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
}

// NewRouter creates a router around an API handler.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	// Health and metrics stay outside the API rate limit so monitoring
	// keeps working under client misbehavior.
	r.Get("/api/v1/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/users/{userID}/recommendations", func(r chi.Router) {
		if router.cfg.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByRealIP(router.cfg.RateLimitPerMinute, time.Minute))
		}
		r.Use(prometheusMetrics)

		r.Get("/", router.handler.Recommendations)
		r.Post("/refresh", router.handler.Refresh)
		r.Get("/stream", router.handler.GenerateStream)
		r.Get("/complete", router.handler.CompleteStream)
		r.Post("/{recID}/dismiss", router.handler.Dismiss)
		r.Post("/added", router.handler.MarkAdded)
	})

	return r
}
