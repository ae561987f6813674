// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/curatus/internal/config"
	"github.com/tomtom215/curatus/internal/metrics"
)

// posterBaseURL is the TMDB image CDN prefix for poster paths.
const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// TMDBClient implements ScreenClient against The Movie Database API.
// All calls pass a client-side rate limiter and a circuit breaker, so a
// slow or failing upstream degrades into adapter errors the engine
// isolates instead of cascading.
type TMDBClient struct {
	cfg     config.TMDBConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewTMDBClient creates a TMDB screen-content client.
func NewTMDBClient(cfg config.TMDBConfig) *TMDBClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	return &TMDBClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker: newBreaker("tmdb"),
	}
}

// tmdbListResponse is the envelope for discover and similar responses.
type tmdbListResponse struct {
	Results []tmdbItem `json:"results"`
}

// tmdbItem is one movie or TV entry. Movies carry title/release_date,
// series name/first_air_date.
type tmdbItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	Popularity   float64 `json:"popularity"`
	GenreIDs     []int64 `json:"genre_ids"`
}

// tmdbProvidersResponse is the watch/providers envelope, keyed by country.
type tmdbProvidersResponse struct {
	Results map[string]tmdbCountryProviders `json:"results"`
}

type tmdbCountryProviders struct {
	Flatrate []tmdbProvider `json:"flatrate"`
	Rent     []tmdbProvider `json:"rent"`
	Buy      []tmdbProvider `json:"buy"`
}

type tmdbProvider struct {
	ProviderName string `json:"provider_name"`
}

// Discover returns candidates for a genre under rating/count thresholds.
func (c *TMDBClient) Discover(ctx context.Context, kind ScreenKind, opts DiscoverOptions) ([]ScreenCandidate, error) {
	params := url.Values{}
	if opts.WithGenres > 0 {
		params.Set("with_genres", strconv.FormatInt(opts.WithGenres, 10))
	}
	if opts.VoteAverageGTE > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(opts.VoteAverageGTE, 'f', 1, 64))
	}
	if opts.VoteCountGTE > 0 {
		params.Set("vote_count.gte", strconv.Itoa(opts.VoteCountGTE))
	}
	if opts.SortBy != "" {
		params.Set("sort_by", opts.SortBy)
	}

	body, err := c.get(ctx, "discover", fmt.Sprintf("/discover/%s", kind), params)
	if err != nil {
		return nil, err
	}
	return c.decodeList(kind, body)
}

// Similar returns items similar to the given seed.
func (c *TMDBClient) Similar(ctx context.Context, kind ScreenKind, seedID int64) ([]ScreenCandidate, error) {
	body, err := c.get(ctx, "similar", fmt.Sprintf("/%s/%d/similar", kind, seedID), nil)
	if err != nil {
		return nil, err
	}
	return c.decodeList(kind, body)
}

// WatchProviders returns streaming availability for an item in a country.
func (c *TMDBClient) WatchProviders(ctx context.Context, id int64, kind ScreenKind, country string) (*Providers, error) {
	body, err := c.get(ctx, "watch_providers", fmt.Sprintf("/%s/%d/watch/providers", kind, id), nil)
	if err != nil {
		return nil, err
	}

	var decoded tmdbProvidersResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode providers response: %w", err)
	}

	entry, ok := decoded.Results[country]
	if !ok {
		return &Providers{}, nil
	}
	return &Providers{
		Flatrate: providerNames(entry.Flatrate),
		Rent:     providerNames(entry.Rent),
		Buy:      providerNames(entry.Buy),
	}, nil
}

// get performs a rate-limited, breaker-guarded GET and returns the body.
func (c *TMDBClient) get(ctx context.Context, operation, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.cfg.APIKey)
	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close() //nolint:errcheck // read-only body

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, snippet)
		}
		return io.ReadAll(resp.Body)
	})
	metrics.CatalogRequestDuration.WithLabelValues("tmdb", operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogRequestErrors.WithLabelValues("tmdb", operation).Inc()
		return nil, fmt.Errorf("tmdb %s: %w", operation, err)
	}
	return body, nil
}

// decodeList converts a list response into candidates. Items missing an id
// or title are skipped (malformed candidates never abort the call).
func (c *TMDBClient) decodeList(kind ScreenKind, body []byte) ([]ScreenCandidate, error) {
	var decoded tmdbListResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}

	out := make([]ScreenCandidate, 0, len(decoded.Results))
	for _, item := range decoded.Results {
		title := item.Title
		date := item.ReleaseDate
		if kind == KindTV {
			title = item.Name
			date = item.FirstAirDate
		}
		if item.ID == 0 || title == "" {
			continue
		}

		poster := ""
		if item.PosterPath != "" {
			poster = posterBaseURL + item.PosterPath
		}
		out = append(out, ScreenCandidate{
			ID:          item.ID,
			Title:       title,
			Year:        yearFromDate(date),
			Overview:    item.Overview,
			PosterURL:   poster,
			VoteAverage: item.VoteAverage,
			VoteCount:   item.VoteCount,
			Popularity:  item.Popularity,
			GenreIDs:    item.GenreIDs,
		})
	}
	return out, nil
}

// yearFromDate extracts the year from a YYYY-MM-DD date string.
func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// providerNames flattens provider entries to their display names.
func providerNames(providers []tmdbProvider) []string {
	if len(providers) == 0 {
		return nil
	}
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		if p.ProviderName != "" {
			names = append(names, p.ProviderName)
		}
	}
	return names
}
