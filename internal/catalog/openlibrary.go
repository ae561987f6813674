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

// OpenLibraryClient implements BookClient against the Open Library
// search API.
type OpenLibraryClient struct {
	cfg     config.OpenLibraryConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewOpenLibraryClient creates an Open Library book client.
func NewOpenLibraryClient(cfg config.OpenLibraryConfig) *OpenLibraryClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &OpenLibraryClient{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		breaker: newBreaker("open-library"),
	}
}

// openLibraryResponse is the search.json envelope.
type openLibraryResponse struct {
	Docs []openLibraryDoc `json:"docs"`
}

// openLibraryDoc is one search result document.
type openLibraryDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverID          int64    `json:"cover_i"`
	ISBN             []string `json:"isbn"`
	FirstSentence    []string `json:"first_sentence"`
}

// Search returns up to limit books matching the free-text query.
func (c *OpenLibraryClient) Search(ctx context.Context, query string, limit int) ([]BookResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	reqURL := c.cfg.BaseURL + "/search.json?" + params.Encode()

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
	metrics.CatalogRequestDuration.WithLabelValues("open_library", "search").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CatalogRequestErrors.WithLabelValues("open_library", "search").Inc()
		return nil, fmt.Errorf("open library search: %w", err)
	}

	var decoded openLibraryResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	out := make([]BookResult, 0, len(decoded.Docs))
	for _, doc := range decoded.Docs {
		if doc.Title == "" {
			continue
		}
		result := BookResult{
			OpenLibraryKey:   doc.Key,
			Key:              doc.Key,
			Title:            doc.Title,
			FirstPublishYear: doc.FirstPublishYear,
			Authors:          doc.AuthorName,
		}
		if len(doc.ISBN) > 0 {
			result.ISBN = doc.ISBN[0]
		}
		if doc.CoverID > 0 {
			result.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-M.jpg", doc.CoverID)
		}
		if len(doc.FirstSentence) > 0 {
			result.Description = doc.FirstSentence[0]
		}
		out = append(out, result)
	}
	return out, nil
}
