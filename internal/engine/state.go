// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"github.com/tomtom215/curatus/internal/cache"
)

// runState is the per-generation mutable taste state. It is bound to a
// single generation call, never to the engine instance, so concurrent
// generations for different users are safe.
type runState struct {
	// profile is the user's taste centroid, nil when no rated media
	// carries an embedding.
	profile []float32

	// genreScores maps genre name to a [0,1] preference score.
	genreScores map[string]float64

	// dismissedVecs are embeddings of dismissed recommendation
	// descriptions, used for the negative-evidence penalty.
	dismissedVecs [][]float32

	// dismissedIDs are external ids of dismissed recommendations per
	// media type. Excluded from every pipeline up front.
	dismissedIDs map[MediaType]map[string]struct{}

	// availability caches streaming-availability lookups for the run.
	availability *cache.LRU[availability]

	// completion holds the completion-mode context, nil on full refresh.
	completion *completionContext
}

// availability is a cached watch-provider answer.
type availability struct {
	streamable bool
	providers  []string
}

// completionContext carries the pre-existing slate a completion run must
// preserve and avoid duplicating.
type completionContext struct {
	// genreCounts pre-seeds the per-genre quota counters.
	genreCounts map[MediaType]map[string]int

	// existingIDs are external ids already recommended per media type;
	// no new recommendation may collide with them.
	existingIDs map[MediaType]map[string]struct{}

	// needed marks media types that still have gaps to fill.
	needed map[MediaType]bool
}

// release drops all per-run state. Called from the generation's final
// clause regardless of outcome.
func (s *runState) release() {
	s.profile = nil
	s.genreScores = nil
	s.dismissedVecs = nil
	s.dismissedIDs = nil
	if s.availability != nil {
		s.availability.Clear()
	}
	s.completion = nil
}

// quota tracks per-genre admission counters for one media type.
type quota struct {
	perGenre  int
	maxGenres int
	counts    map[string]int
}

// newQuota creates counters, pre-seeded with existing per-genre counts
// in completion mode.
func newQuota(perGenre, maxGenres int, seed map[string]int) *quota {
	counts := make(map[string]int, len(seed))
	for genre, n := range seed {
		counts[genre] = n
	}
	return &quota{perGenre: perGenre, maxGenres: maxGenres, counts: counts}
}

// full reports whether a genre has reached the per-genre cap.
func (q *quota) full(genre string) bool {
	return q.counts[genre] >= q.perGenre
}

// count returns the current counter for a genre.
func (q *quota) count(genre string) int {
	return q.counts[genre]
}

// needed returns how many slots remain for a genre.
func (q *quota) needed(genre string) int {
	n := q.perGenre - q.counts[genre]
	if n < 0 {
		return 0
	}
	return n
}

// activeGenres counts named genres with at least one admission.
func (q *quota) activeGenres() int {
	n := 0
	for genre, count := range q.counts {
		if genre != "" && count > 0 {
			n++
		}
	}
	return n
}

// admit records an admission for genre if the per-genre cap and the
// total-genre bound allow it. The unnamed bucket ("") is capped but does
// not count toward the total-genre bound.
func (q *quota) admit(genre string) bool {
	if q.full(genre) {
		return false
	}
	if genre != "" && q.counts[genre] == 0 && q.activeGenres() >= q.maxGenres {
		return false
	}
	q.counts[genre]++
	return true
}
