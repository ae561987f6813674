// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/curatus/internal/embedding"
	"github.com/tomtom215/curatus/internal/logging"
)

// Dismissed-profile bounds. Fewer than minDismissedForProfile dismissed
// descriptions yields no penalty vectors at all.
const (
	minDismissedForProfile = 3
	maxDismissedEmbeds     = 20
	maxDismissedChars      = 300
)

// buildTasteState derives the per-run taste state from the user's rated
// media and dismissed recommendations. Missing data degrades gracefully:
// no embeddings means no profile centroid, few dismissals means no
// penalty vectors.
func (g *generation) buildTasteState(ctx context.Context, media []MediaItem) {
	rated := make([]MediaItem, 0, len(media))
	for _, m := range media {
		if m.Rating > 0 {
			rated = append(rated, m)
		}
	}

	g.state.profile = profileCentroid(rated)
	g.state.genreScores = genreScores(rated)
	g.loadDismissed(ctx)

	logging.Ctx(ctx).Debug().
		Int("rated", len(rated)).
		Int("genres", len(g.state.genreScores)).
		Bool("has_profile", g.state.profile != nil).
		Int("dismissed_vectors", len(g.state.dismissedVecs)).
		Msg("taste state built")
}

// profileCentroid aggregates the embeddings of rated media into a single
// normalized taste vector, weighted by rating.
func profileCentroid(rated []MediaItem) []float32 {
	pairs := make([]embedding.RatedVector, 0, len(rated))
	for _, m := range rated {
		if m.Embedding != nil {
			pairs = append(pairs, embedding.RatedVector{Vector: m.Embedding, Rating: m.Rating})
		}
	}
	return embedding.ProfileCentroid(pairs)
}

// genreScores derives a [0,1] preference score per genre from rated
// media: 0.7 * mean normalized rating + 0.3 * frequency factor. The
// frequency factor min(sqrt(n)/3, 1) keeps a single 5-star rating from
// dominating a genre the user has rated twenty times at 4.
func genreScores(rated []MediaItem) map[string]float64 {
	ratings := make(map[string][]float64)
	for _, m := range rated {
		normalized := float64(m.Rating-1) / 4.0
		for _, genre := range m.Genres {
			if genre != "" {
				ratings[genre] = append(ratings[genre], normalized)
			}
		}
	}

	scores := make(map[string]float64, len(ratings))
	for genre, rs := range ratings {
		var sum float64
		for _, r := range rs {
			sum += r
		}
		avg := sum / float64(len(rs))
		countFactor := math.Min(math.Sqrt(float64(len(rs)))/3.0, 1.0)
		scores[genre] = 0.7*avg + 0.3*countFactor
	}
	return scores
}

// loadDismissed records the external ids of the user's dismissed
// recommendations for pipeline exclusion and embeds their descriptions
// for the negative-evidence penalty. Penalty vectors are only built when
// at least three dismissals carry a description.
func (g *generation) loadDismissed(ctx context.Context) {
	dismissed, err := g.engine.repo.Recommendations(ctx, g.userID, RecommendationFilter{
		Dismissed: boolPtr(true),
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to load dismissed recommendations")
		return
	}

	ids := make(map[MediaType]map[string]struct{})
	for _, rec := range dismissed {
		if ids[rec.MediaType] == nil {
			ids[rec.MediaType] = make(map[string]struct{})
		}
		ids[rec.MediaType][rec.ExternalID] = struct{}{}
	}
	g.state.dismissedIDs = ids

	texts := make([]string, 0, maxDismissedEmbeds)
	for _, rec := range dismissed {
		if rec.Description == "" {
			continue
		}
		desc := rec.Description
		if len(desc) > maxDismissedChars {
			desc = desc[:maxDismissedChars]
		}
		texts = append(texts, desc)
		if len(texts) == maxDismissedEmbeds {
			break
		}
	}
	if len(texts) < minDismissedForProfile {
		return
	}

	vectors, err := g.engine.embed.EncodeBatch(ctx, texts)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("texts", len(texts)).
			Msg("failed to embed dismissed descriptions")
		return
	}
	g.state.dismissedVecs = vectors
}

// preferredGenres returns genre names sorted by descending score, ties
// broken alphabetically for determinism.
func (g *generation) preferredGenres() []string {
	names := make([]string, 0, len(g.state.genreScores))
	for name := range g.state.genreScores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		si, sj := g.state.genreScores[names[i]], g.state.genreScores[names[j]]
		if si != sj {
			return si > sj
		}
		return names[i] < names[j]
	})
	return names
}
