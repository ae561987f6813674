// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package catalog defines the adapter contracts over external media
// catalogs and ships default clients for a TMDB-style screen-content API
// and the Open Library book search. The engine consumes only the
// interfaces; every call is treated as failable and a single adapter
// failure never aborts a generation.
package catalog

import "context"

// ScreenKind selects the screen-content catalog namespace.
type ScreenKind string

const (
	// KindMovie addresses the movie catalog.
	KindMovie ScreenKind = "movie"
	// KindTV addresses the series catalog.
	KindTV ScreenKind = "tv"
)

// ScreenCandidate is one discover/similar result from the screen catalog.
type ScreenCandidate struct {
	ID          int64
	Title       string
	Year        int
	Overview    string
	PosterURL   string
	VoteAverage float64
	VoteCount   int
	Popularity  float64
	GenreIDs    []int64
}

// DiscoverOptions filter a screen-content discover call.
type DiscoverOptions struct {
	// WithGenres restricts results to a catalog genre id.
	WithGenres int64
	// VoteAverageGTE is the minimum catalog rating.
	VoteAverageGTE float64
	// VoteCountGTE is the minimum vote count.
	VoteCountGTE int
	// SortBy is the catalog sort key, e.g. "vote_average.desc".
	SortBy string
}

// Providers groups streaming availability for one item in one country.
// The Flatrate subset denotes subscription streaming.
type Providers struct {
	Flatrate []string
	Rent     []string
	Buy      []string
}

// Streamable reports whether the item is available on any subscription
// service.
func (p *Providers) Streamable() bool {
	return p != nil && len(p.Flatrate) > 0
}

// BookResult is one result from the book catalog search.
type BookResult struct {
	ExternalID       string
	ISBN             string
	OpenLibraryKey   string
	Key              string
	Title            string
	Year             int
	FirstPublishYear int
	CoverURL         string
	Description      string
	Authors          []string
}

// ScreenClient is the adapter over the screen-content catalog
// (movies and series).
type ScreenClient interface {
	// Discover returns candidates for a genre under rating/count thresholds.
	Discover(ctx context.Context, kind ScreenKind, opts DiscoverOptions) ([]ScreenCandidate, error)

	// Similar returns items similar to the given seed.
	Similar(ctx context.Context, kind ScreenKind, seedID int64) ([]ScreenCandidate, error)

	// WatchProviders returns streaming availability for an item in a country.
	WatchProviders(ctx context.Context, id int64, kind ScreenKind, country string) (*Providers, error)
}

// BookClient is the adapter over the book catalog.
type BookClient interface {
	// Search returns up to limit books matching the free-text query.
	Search(ctx context.Context, query string, limit int) ([]BookResult, error)
}
