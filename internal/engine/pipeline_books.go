// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"strings"

	"github.com/tomtom215/curatus/internal/catalog"
	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/metrics"
)

// Book admission scores.
const (
	bookPreferredScore = 0.80
	bookOtherScore     = 0.70
	bookCoverBonus     = 0.05
	bookScoreCeiling   = 0.95
	bookFillScore      = 0.65

	curatedQueryLimit = 3
	fillQueryLimit    = 10
)

// bookPipeline fills the book slate from the curated mapping: preferred
// genres first via canonical queries, then a generic second pass for
// genres still short. Entirely driven by the book search adapter; no
// scoring model is involved.
func (g *generation) bookPipeline(ctx context.Context, media []MediaItem) []Candidate {
	cfg := g.engine.cfg

	q := newQuota(cfg.PerGenreCap, cfg.MaxTotalGenres, g.completionCounts(TypeBook))
	excluded := g.excludedIDs(TypeBook, media)
	ownedTitles := ownedBookTitles(media)
	seen := make(map[string]struct{})
	var admitted []Candidate

	preferred := preferredBookGenres(media)
	ordered := orderBookGenres(preferred, cfg.MaxTotalGenres)

	// Curated phase.
	for _, genre := range ordered {
		for _, query := range genre.Queries {
			if q.full(genre.Name) {
				break
			}
			results, err := g.engine.books.Search(ctx, query, curatedQueryLimit)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).
					Str("media_type", string(TypeBook)).
					Str("phase", "curated").
					Str("query", query).
					Msg("book search failed")
				metrics.PipelineErrors.WithLabelValues(string(TypeBook), "curated").Inc()
				continue
			}
			source := SourcePopular
			score := bookOtherScore
			if preferred[genre.Name] {
				source = SourceCurated
				score = bookPreferredScore
			}
			g.admitBook(results, genre.Name, source, score, q, seen, excluded, ownedTitles, &admitted)
		}
	}

	// Second pass for genres still short.
	for _, genre := range ordered {
		if q.full(genre.Name) {
			continue
		}
		query := "best " + strings.ToLower(genre.Name) + " books"
		results, err := g.engine.books.Search(ctx, query, fillQueryLimit)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Str("media_type", string(TypeBook)).
				Str("phase", "fill").
				Str("query", query).
				Msg("book search failed")
			metrics.PipelineErrors.WithLabelValues(string(TypeBook), "fill").Inc()
			continue
		}
		for !q.full(genre.Name) {
			n := len(admitted)
			g.admitBook(results, genre.Name, SourcePopular, bookFillScore, q, seen, excluded, ownedTitles, &admitted)
			if len(admitted) == n {
				break // nothing admittable left in this result set
			}
		}
	}

	metrics.RecommendationsEmitted.WithLabelValues(string(TypeBook)).Add(float64(len(admitted)))
	return admitted
}

// admitBook admits the first eligible result: unseen, not excluded, and
// not matching a user-owned title. Returns after at most one admission.
func (g *generation) admitBook(results []catalog.BookResult, genreName string, source Source, baseScore float64, q *quota, seen map[string]struct{}, excluded map[string]struct{}, ownedTitles []string, out *[]Candidate) {
	for _, r := range results {
		id := bookExternalID(r)
		if id == "" || r.Title == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		if _, ex := excluded[id]; ex {
			continue
		}
		if titleOwned(r.Title, ownedTitles) {
			continue
		}
		if !q.admit(genreName) {
			return
		}
		score := baseScore
		if r.CoverURL != "" {
			score += bookCoverBonus
		}
		if score > bookScoreCeiling {
			score = bookScoreCeiling
		}
		seen[id] = struct{}{}
		*out = append(*out, Candidate{
			ExternalID: id,
			Title:      r.Title,
			Year:       bookYear(r),
			Overview:   r.Description,
			PosterURL:  r.CoverURL,
			Source:     source,
			GenreName:  genreName,
			Score:      score,
		})
		return
	}
}

// bookExternalID picks the stored id from the first populated source:
// explicit external id, ISBN, then the tail segment of either catalog key.
func bookExternalID(r catalog.BookResult) string {
	if r.ExternalID != "" {
		return r.ExternalID
	}
	if r.ISBN != "" {
		return r.ISBN
	}
	if tail := keyTail(r.OpenLibraryKey); tail != "" {
		return tail
	}
	return keyTail(r.Key)
}

// keyTail returns the last path segment of a catalog key.
func keyTail(key string) string {
	if key == "" {
		return ""
	}
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// bookYear prefers the explicit year over the first publish year.
func bookYear(r catalog.BookResult) int {
	if r.Year > 0 {
		return r.Year
	}
	return r.FirstPublishYear
}

// ownedBookTitles collects lowercase titles of the user's books.
func ownedBookTitles(media []MediaItem) []string {
	var titles []string
	for _, m := range media {
		if m.Type == TypeBook && m.Title != "" {
			titles = append(titles, strings.ToLower(m.Title))
		}
	}
	return titles
}

// titleOwned reports whether a candidate title substring-matches any
// owned title, in either direction, case-insensitively.
func titleOwned(title string, ownedTitles []string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return false
	}
	for _, owned := range ownedTitles {
		if strings.Contains(owned, t) || strings.Contains(t, owned) {
			return true
		}
	}
	return false
}

// preferredBookGenres marks curated genres preferred when any genre of a
// user book rated four or higher substring-matches the curated name, in
// either direction.
func preferredBookGenres(media []MediaItem) map[string]bool {
	var userGenres []string
	for _, m := range media {
		if m.Type != TypeBook || m.Rating < 4 {
			continue
		}
		for _, genre := range m.Genres {
			if genre != "" {
				userGenres = append(userGenres, strings.ToLower(genre))
			}
		}
	}

	preferred := make(map[string]bool, len(curatedBookGenres))
	for _, cg := range curatedBookGenres {
		name := strings.ToLower(cg.Name)
		for _, ug := range userGenres {
			if strings.Contains(name, ug) || strings.Contains(ug, name) {
				preferred[cg.Name] = true
				break
			}
		}
	}
	return preferred
}

// orderBookGenres returns the curated genres with preferred ones first,
// bounded to max entries. Relative curated order is preserved within
// each group.
func orderBookGenres(preferred map[string]bool, max int) []curatedGenre {
	ordered := make([]curatedGenre, 0, len(curatedBookGenres))
	for _, cg := range curatedBookGenres {
		if preferred[cg.Name] {
			ordered = append(ordered, cg)
		}
	}
	for _, cg := range curatedBookGenres {
		if !preferred[cg.Name] {
			ordered = append(ordered, cg)
		}
	}
	if len(ordered) > max {
		ordered = ordered[:max]
	}
	return ordered
}
