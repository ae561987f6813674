// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package engine implements the personalized recommendation engine: taste
// profile synthesis from rated media, multi-source candidate acquisition,
// multi-signal scoring, per-genre quota filling, and transactional slate
// replacement with a live progress stream.
//
// The engine consumes the Repository and catalog interfaces; HTTP
// transport, authentication, and schema migrations live outside this
// package.
package engine

import (
	"context"
	"time"
)

// MediaType classifies user media and recommendations.
type MediaType string

const (
	// TypeFilm is a feature film.
	TypeFilm MediaType = "film"
	// TypeSeries is an episodic series.
	TypeSeries MediaType = "series"
	// TypeBook is a book.
	TypeBook MediaType = "book"
	// TypeShortVideo is a short-form video from a channel.
	TypeShortVideo MediaType = "short_video"
)

// MediaTypes is the canonical pipeline order. Pipelines always run in
// this sequence within a generation.
var MediaTypes = []MediaType{TypeFilm, TypeSeries, TypeBook, TypeShortVideo}

// ParseMediaType validates a media type string from an external source.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(s) {
	case TypeFilm, TypeSeries, TypeBook, TypeShortVideo:
		return MediaType(s), true
	}
	return "", false
}

// Status is the consumption state of a user media item.
type Status string

const (
	// StatusToConsume marks an item saved for later.
	StatusToConsume Status = "to_consume"
	// StatusInProgress marks an item being consumed.
	StatusInProgress Status = "in_progress"
	// StatusDone marks a finished item.
	StatusDone Status = "done"
	// StatusAbandoned marks an item given up on.
	StatusAbandoned Status = "abandoned"
)

// Source tags how a recommendation was produced.
type Source string

const (
	// SourceSimilar comes from catalog similar-item lookups seeded by
	// highly rated user media.
	SourceSimilar Source = "similar"
	// SourceGenreDiscover comes from genre-filtered catalog discovery.
	SourceGenreDiscover Source = "genre_discover"
	// SourceCurated comes from the curated book list for a preferred genre.
	SourceCurated Source = "curated"
	// SourcePopular comes from generic popularity queries.
	SourcePopular Source = "popular"
	// SourceFavoriteChannel comes from the user's own short-video backlog.
	SourceFavoriteChannel Source = "favorite_channel"
)

// sourcePreferredGenre is a scoring-only tag for preferred-genre discovery
// candidates; admitted recommendations store SourceGenreDiscover.
const sourcePreferredGenre Source = "preferred_genre"

// MediaItem is a user-owned media entry. The engine only reads these;
// creation and rating happen through external user actions.
type MediaItem struct {
	ID          int64
	UserID      int64
	Title       string
	Type        MediaType
	Year        int // 0 = unknown
	ExternalID  string
	Description string
	Status      Status
	Rating      int // 1..5, 0 = unrated
	Genres      []string
	Embedding   []float32 // L2-normalized, nil if absent

	// Short-video metadata
	ChannelName string
	ExternalURL string
	CoverURL    string
}

// Recommendation is one admitted slate entry for a user.
type Recommendation struct {
	ID                 int64
	UserID             int64
	MediaType          MediaType
	ExternalID         string
	Title              string
	Year               int // 0 = unknown
	CoverURL           string
	Description        string
	Score              float64 // clamped to [0.05, 0.98]
	Source             Source
	GenreName          string // "" = none
	CatalogRating      float64
	IsStreamable       bool
	StreamingProviders []string
	ExternalURL        string
	GeneratedAt        time.Time
	IsDismissed        bool
	AddedToLibrary     bool
}

// Candidate is a provisional record assembled during a pipeline before
// scoring and admission.
type Candidate struct {
	CatalogID   int64
	ExternalID  string
	Title       string
	Year        int
	Overview    string
	PosterURL   string
	VoteAverage float64
	VoteCount   int
	Popularity  float64

	Source         Source
	GenreName      string
	SeedRating     int
	UserGenreScore float64

	Score        float64
	Embedding    []float32
	IsStreamable bool
	Providers    []string
	ExternalURL  string
}

// RecommendationFilter narrows repository recommendation queries.
// Zero values mean "any".
type RecommendationFilter struct {
	MediaType MediaType
	Genre     string
	Dismissed *bool
	Added     *bool
	Since     time.Time
}

// Repository is the persistence contract the orchestrator needs. The
// bulk mutation methods are transactional: they either apply completely
// or leave the store untouched.
type Repository interface {
	// MediaForUser returns the user's full library with genres,
	// embeddings, and short-video metadata loaded.
	MediaForUser(ctx context.Context, userID int64) ([]MediaItem, error)

	// Recommendations returns the user's recommendations matching the filter.
	Recommendations(ctx context.Context, userID int64, f RecommendationFilter) ([]Recommendation, error)

	// CountRecommendations counts recommendations matching the filter.
	CountRecommendations(ctx context.Context, userID int64, f RecommendationFilter) (int, error)

	// ReplaceRecommendations atomically deletes dismissed recommendations
	// generated before dismissedBefore, deletes all non-dismissed
	// recommendations, and inserts recs.
	ReplaceRecommendations(ctx context.Context, userID int64, recs []Recommendation, dismissedBefore time.Time) error

	// InsertRecommendations atomically deletes dismissed recommendations
	// generated before dismissedBefore and inserts recs, leaving existing
	// non-dismissed recommendations untouched.
	InsertRecommendations(ctx context.Context, userID int64, recs []Recommendation, dismissedBefore time.Time) error

	// DismissRecommendation marks a recommendation dismissed. Idempotent;
	// succeeds silently when no row matches.
	DismissRecommendation(ctx context.Context, userID, recID int64) error

	// MarkAddedToLibrary marks a recommendation as added to the user's
	// library. Idempotent; succeeds silently when no row matches.
	MarkAddedToLibrary(ctx context.Context, userID int64, externalID string, mediaType MediaType) error
}

// GenerationEvent is published after a generation commits.
type GenerationEvent struct {
	UserID      int64              `json:"user_id"`
	RunID       string             `json:"run_id"`
	Counts      map[MediaType]int  `json:"counts"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// EventPublisher receives generation-completed notifications. Publish
// failures are the publisher's concern; the engine never blocks on it.
type EventPublisher interface {
	GenerationCompleted(ctx context.Context, ev GenerationEvent)
}

// GroupByType buckets recommendations per media type, preserving order.
func GroupByType(recs []Recommendation) map[MediaType][]Recommendation {
	out := make(map[MediaType][]Recommendation)
	for _, r := range recs {
		out[r.MediaType] = append(out[r.MediaType], r)
	}
	return out
}

// boolPtr returns a pointer to b, for RecommendationFilter fields.
func boolPtr(b bool) *bool {
	return &b
}
