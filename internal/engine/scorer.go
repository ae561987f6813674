// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/curatus/internal/embedding"
	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/metrics"
)

// Score clamp bounds for every emitted recommendation.
const (
	minScore = 0.05
	maxScore = 0.98
)

// Additive score weights. The composition targets [0.05, 0.98]:
// source base + seed bonus + catalog quality + popularity + genre
// preference + recency + semantic affinity - dismissed penalty.
const (
	baseSimilar        = 0.40
	basePreferredGenre = 0.35
	baseGenreDiscover  = 0.25
	baseDefault        = 0.20

	seedBonusPerStar = 0.05

	catalogRatingWeight = 0.20
	voteCountWeight     = 0.10
	popularityWeight    = 0.08
	popularityCeiling   = 500.0

	genrePreferenceWeight = 0.15

	semanticThreshold = 0.30
	semanticWeight    = 0.12

	streamableBoost = 0.05
)

// clampScore bounds a score to [minScore, maxScore].
func clampScore(s float64) float64 {
	return math.Min(math.Max(s, minScore), maxScore)
}

// normalizeTitle produces the deduplication key for a candidate title.
func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// scoreCandidates applies the multi-signal scoring function, sorts
// descending (catalog id breaks ties for determinism), and deduplicates
// by normalized title keeping the best-scored occurrence.
//
// Semantic signals require all candidates with a non-empty overview to be
// embedded in a single batch call before the scoring loop; that batching
// is part of the contract, not an optimization.
func (g *generation) scoreCandidates(ctx context.Context, mt MediaType, cands []Candidate) []Candidate {
	g.embedCandidates(ctx, cands)

	currentYear := g.engine.now().Year()
	for i := range cands {
		cands[i].Score = g.scoreOne(&cands[i], currentYear)
	}
	metrics.CandidatesScored.WithLabelValues(string(mt)).Add(float64(len(cands)))

	sortCandidates(cands)
	return dedupeByTitle(cands)
}

// embedCandidates batch-embeds every candidate with a non-empty overview.
// Embedding failures degrade to no semantic signal.
func (g *generation) embedCandidates(ctx context.Context, cands []Candidate) {
	if g.state.profile == nil && len(g.state.dismissedVecs) == 0 {
		return // no vector to compare against
	}

	idx := make([]int, 0, len(cands))
	texts := make([]string, 0, len(cands))
	for i, c := range cands {
		if c.Overview == "" {
			continue
		}
		idx = append(idx, i)
		texts = append(texts, embedding.BuildText(embedding.TextParts{
			Title:       c.Title,
			Year:        c.Year,
			Genres:      genreList(c.GenreName),
			Description: c.Overview,
		}))
	}
	if len(texts) == 0 {
		return
	}

	vectors, err := g.engine.embed.EncodeBatch(ctx, texts)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("candidates", len(texts)).
			Msg("candidate embedding failed, scoring without semantic signal")
		return
	}
	for j, i := range idx {
		cands[i].Embedding = vectors[j]
	}
}

// scoreOne computes the additive score for a single candidate.
func (g *generation) scoreOne(c *Candidate, currentYear int) float64 {
	score := sourceBase(c.Source)

	// Seed bonus only applies to similar-sourced candidates.
	if c.Source == SourceSimilar && c.SeedRating > 0 {
		score += float64(c.SeedRating-4) * seedBonusPerStar
	}

	// Catalog rating above the 5.0 midpoint.
	score += math.Max(0, (c.VoteAverage-5)/5) * catalogRatingWeight

	// Vote-count reliability on a log scale.
	votes := float64(c.VoteCount)
	if votes < 1 {
		votes = 1
	}
	score += math.Min(math.Log10(votes)/5, 1) * voteCountWeight

	// Popularity, capped.
	score += math.Min(c.Popularity/popularityCeiling, 1) * popularityWeight

	// User genre preference.
	if c.GenreName != "" {
		if gs, ok := g.state.genreScores[c.GenreName]; ok {
			score += gs * genrePreferenceWeight
		}
	}

	score += recencyBonus(c.Year, currentYear)
	score += g.semanticAffinity(c)
	score -= g.dismissedPenalty(c)

	return clampScore(score)
}

// sourceBase returns the base score for a candidate source.
func sourceBase(s Source) float64 {
	switch s {
	case SourceSimilar:
		return baseSimilar
	case sourcePreferredGenre:
		return basePreferredGenre
	case SourceGenreDiscover:
		return baseGenreDiscover
	default:
		return baseDefault
	}
}

// recencyBonus rewards recent-but-proven releases: the 1-10 year band
// scores highest, fresh releases and older classics less, and anything
// over twenty years nothing.
func recencyBonus(year, currentYear int) float64 {
	if year <= 0 {
		return 0
	}
	age := currentYear - year
	switch {
	case age < 1:
		return 0.02
	case age <= 10:
		return 0.05
	case age <= 20:
		return 0.03
	default:
		return 0
	}
}

// semanticAffinity rewards similarity to the taste profile above a 0.3
// floor. Candidates without an embedding contribute nothing.
func (g *generation) semanticAffinity(c *Candidate) float64 {
	if g.state.profile == nil || c.Embedding == nil {
		return 0
	}
	sim, err := embedding.Similarity(g.state.profile, c.Embedding)
	if err != nil || sim <= semanticThreshold {
		return 0
	}
	return (sim - semanticThreshold) * semanticWeight
}

// dismissedPenalty returns the tiered penalty for resembling dismissed
// content, using the maximum similarity over all dismissed vectors.
func (g *generation) dismissedPenalty(c *Candidate) float64 {
	if len(g.state.dismissedVecs) == 0 || c.Embedding == nil {
		return 0
	}
	var maxSim float64
	for _, v := range g.state.dismissedVecs {
		sim, err := embedding.Similarity(v, c.Embedding)
		if err != nil {
			continue
		}
		if sim > maxSim {
			maxSim = sim
		}
	}
	switch {
	case maxSim > 0.75:
		return 0.25
	case maxSim > 0.60:
		return 0.15
	case maxSim > 0.50:
		return 0.08
	default:
		return 0
	}
}

// sortCandidates orders by descending score with catalog id as a
// deterministic tie-break.
func sortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].CatalogID < cands[j].CatalogID
	})
}

// dedupeByTitle keeps the first (best-scored) occurrence of each
// normalized title. Must be called on a sorted slice.
func dedupeByTitle(cands []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(cands))
	out := cands[:0]
	for _, c := range cands {
		key := normalizeTitle(c.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// genreList wraps a single genre name for text synthesis.
func genreList(name string) []string {
	if name == "" {
		return nil
	}
	return []string{name}
}
