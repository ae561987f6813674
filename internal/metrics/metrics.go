// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package metrics provides Prometheus instrumentation for the
// recommendation engine, catalog clients, and caches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation metrics
	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curatus_generation_duration_seconds",
			Help:    "Duration of recommendation generation runs",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"mode"}, // "full", "streaming", "completion"
	)

	GenerationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curatus_generation_outcomes_total",
			Help: "Generation runs by terminal outcome",
		},
		[]string{"mode", "outcome"}, // outcome: "committed", "skipped_fresh", "fallback", "error"
	)

	RecommendationsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curatus_recommendations_emitted_total",
			Help: "Recommendations admitted per media type",
		},
		[]string{"media_type"},
	)

	// Pipeline metrics
	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curatus_pipeline_errors_total",
			Help: "Swallowed pipeline-phase errors",
		},
		[]string{"media_type", "phase"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curatus_candidates_scored_total",
			Help: "Candidates passed through the scorer",
		},
		[]string{"media_type"},
	)

	// Catalog client metrics
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curatus_catalog_request_duration_seconds",
			Help:    "Duration of external catalog requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	CatalogRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curatus_catalog_request_errors_total",
			Help: "Failed external catalog requests",
		},
		[]string{"provider", "operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curatus_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	// Cache metrics
	AvailabilityCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curatus_availability_cache_hits_total",
			Help: "Streaming-availability LRU hits",
		},
	)

	AvailabilityCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curatus_availability_cache_misses_total",
			Help: "Streaming-availability LRU misses",
		},
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curatus_embedding_cache_hits_total",
			Help: "Persistent embedding cache hits",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curatus_embedding_cache_misses_total",
			Help: "Persistent embedding cache misses",
		},
	)

	EmbeddingRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "curatus_embedding_request_duration_seconds",
			Help:    "Duration of embedding model calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// API metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curatus_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	SSEStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "curatus_sse_streams_active",
			Help: "Currently open progress event streams",
		},
	)
)
