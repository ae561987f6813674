// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package api exposes the recommendation engine over HTTP: a
// cursor-paginated slate listing, refresh triggers, SSE progress streams
// for full and completion generation, and the two slate mutations.
// Transport framing only; all recommendation logic stays in the engine.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/curatus/internal/engine"
)

// ErrStreamingUnsupported indicates the response writer cannot flush,
// which server-sent events require.
var ErrStreamingUnsupported = errors.New("response writer does not support streaming")

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Generator is the engine surface the API consumes.
type Generator interface {
	Generate(ctx context.Context, userID int64, forceRefresh bool) (map[engine.MediaType][]engine.Recommendation, error)
	GenerateStream(ctx context.Context, userID int64) <-chan engine.ProgressEvent
	CompleteStream(ctx context.Context, userID int64) <-chan engine.ProgressEvent
	Dismiss(ctx context.Context, userID, recID int64) error
	MarkAdded(ctx context.Context, userID int64, externalID string, mediaType engine.MediaType) error
}

// SlateStore is the read side of the recommendation store.
type SlateStore interface {
	RecommendationsPage(ctx context.Context, userID int64, f engine.RecommendationFilter, afterScore float64, afterID int64, limit int) ([]engine.Recommendation, error)
	CountRecommendations(ctx context.Context, userID int64, f engine.RecommendationFilter) (int, error)
}

// HealthChecker reports whether the persistence layer is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds the collaborators behind the HTTP surface.
type Handler struct {
	gen    Generator
	store  SlateStore
	health HealthChecker
}

// NewHandler creates an API handler.
func NewHandler(gen Generator, store SlateStore, health HealthChecker) *Handler {
	return &Handler{gen: gen, store: store, health: health}
}

// recommendationDTO is the wire form of a recommendation.
type recommendationDTO struct {
	ID                 int64    `json:"id"`
	MediaType          string   `json:"media_type"`
	ExternalID         string   `json:"external_id"`
	Title              string   `json:"title"`
	Year               int      `json:"year,omitempty"`
	CoverURL           string   `json:"cover_url,omitempty"`
	Description        string   `json:"description,omitempty"`
	Score              float64  `json:"score"`
	Source             string   `json:"source"`
	GenreName          string   `json:"genre_name,omitempty"`
	CatalogRating      float64  `json:"catalog_rating,omitempty"`
	IsStreamable       bool     `json:"is_streamable"`
	StreamingProviders []string `json:"streaming_providers,omitempty"`
	ExternalURL        string   `json:"external_url,omitempty"`
	AddedToLibrary     bool     `json:"added_to_library"`
}

func toDTO(rec engine.Recommendation) recommendationDTO {
	return recommendationDTO{
		ID:                 rec.ID,
		MediaType:          string(rec.MediaType),
		ExternalID:         rec.ExternalID,
		Title:              rec.Title,
		Year:               rec.Year,
		CoverURL:           rec.CoverURL,
		Description:        rec.Description,
		Score:              rec.Score,
		Source:             string(rec.Source),
		GenreName:          rec.GenreName,
		CatalogRating:      rec.CatalogRating,
		IsStreamable:       rec.IsStreamable,
		StreamingProviders: rec.StreamingProviders,
		ExternalURL:        rec.ExternalURL,
		AddedToLibrary:     rec.AddedToLibrary,
	}
}

// recommendationsPage is the listing response body.
type recommendationsPage struct {
	Recommendations []recommendationDTO `json:"recommendations"`
	Total           int                 `json:"total"`
	NextCursor      *string             `json:"next_cursor,omitempty"`
}

// Recommendations lists a user's non-dismissed slate, newest scores
// first, paginated by an opaque cursor.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	f, ok := listFilter(w, r)
	if !ok {
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "limit must be a positive integer", nil)
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		limit = n
	}

	var afterScore float64
	var afterID int64
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		cursor, err := decodeCursor(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "invalid cursor", err)
			return
		}
		afterScore, afterID = cursor.Score, cursor.ID
	}

	// Fetch one extra row to learn whether a next page exists.
	recs, err := h.store.RecommendationsPage(r.Context(), userID, f, afterScore, afterID, limit+1)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to load recommendations", err)
		return
	}

	total, err := h.store.CountRecommendations(r.Context(), userID, f)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to count recommendations", err)
		return
	}

	page := recommendationsPage{
		Recommendations: make([]recommendationDTO, 0, len(recs)),
		Total:           total,
	}
	hasMore := len(recs) > limit
	if hasMore {
		recs = recs[:limit]
	}
	for _, rec := range recs {
		page.Recommendations = append(page.Recommendations, toDTO(rec))
	}
	if hasMore {
		last := recs[len(recs)-1]
		encoded := encodeCursor(&recCursor{Score: last.Score, ID: last.ID})
		page.NextCursor = &encoded
	}

	respondData(w, r, http.StatusOK, page)
}

// refreshResult is the refresh response body.
type refreshResult struct {
	Counts map[engine.MediaType]int `json:"counts"`
}

// Refresh runs a full generation synchronously and returns per-type
// counts. ?force=true bypasses the slate freshness check.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	force := r.URL.Query().Get("force") == "true"

	slate, err := h.gen.Generate(r.Context(), userID, force)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "generation failed", err)
		return
	}

	result := refreshResult{Counts: make(map[engine.MediaType]int, len(slate))}
	for mt, recs := range slate {
		result.Counts[mt] = len(recs)
	}
	respondData(w, r, http.StatusOK, result)
}

// GenerateStream streams full-generation progress events over SSE.
func (h *Handler) GenerateStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	h.streamEvents(w, r, h.gen.GenerateStream(r.Context(), userID))
}

// CompleteStream streams completion-mode progress events over SSE.
func (h *Handler) CompleteStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	h.streamEvents(w, r, h.gen.CompleteStream(r.Context(), userID))
}

// Dismiss marks one recommendation dismissed. Idempotent.
func (h *Handler) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}
	recID, err := strconv.ParseInt(chi.URLParam(r, "recID"), 10, 64)
	if err != nil || recID < 1 {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "recommendation id must be a positive integer", nil)
		return
	}

	if err := h.gen.Dismiss(r.Context(), userID, recID); err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to dismiss recommendation", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]bool{"dismissed": true})
}

// markAddedRequest is the mark-added request body.
type markAddedRequest struct {
	ExternalID string `json:"external_id"`
	MediaType  string `json:"media_type"`
}

// MarkAdded flags a recommendation as added to the user's library.
// Idempotent.
func (h *Handler) MarkAdded(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUserID(w, r)
	if !ok {
		return
	}

	var req markAddedRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.ExternalID) == "" {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "external_id is required", nil)
		return
	}
	mt, valid := engine.ParseMediaType(req.MediaType)
	if !valid {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "unknown media_type", nil)
		return
	}

	if err := h.gen.MarkAdded(r.Context(), userID, req.ExternalID, mt); err != nil {
		respondError(w, r, http.StatusInternalServerError, codeInternal, "failed to mark recommendation added", err)
		return
	}
	respondData(w, r, http.StatusOK, map[string]bool{"added": true})
}

// Health reports process and database liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			respondError(w, r, http.StatusServiceUnavailable, codeInternal, "database unreachable", err)
			return
		}
	}
	respondData(w, r, http.StatusOK, map[string]string{"status": "healthy"})
}

// pathUserID parses the {userID} route param, responding with a 400 on
// malformed input.
func pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id < 1 {
		respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "user id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

// listFilter builds the repository filter from listing query params.
func listFilter(w http.ResponseWriter, r *http.Request) (engine.RecommendationFilter, bool) {
	dismissed := false
	f := engine.RecommendationFilter{Dismissed: &dismissed}

	if raw := r.URL.Query().Get("type"); raw != "" {
		mt, valid := engine.ParseMediaType(raw)
		if !valid {
			respondError(w, r, http.StatusBadRequest, codeInvalidRequest, "unknown media type", nil)
			return engine.RecommendationFilter{}, false
		}
		f.MediaType = mt
	}
	f.Genre = r.URL.Query().Get("genre")
	return f, true
}
