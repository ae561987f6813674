// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/curatus/internal/catalog"
	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/metrics"
)

// Discovery thresholds for the strict and relaxed passes.
const (
	discoverVoteAvgStrict   = 6.5
	discoverVoteCountStrict = 50
	discoverSortStrict      = "vote_average.desc"

	discoverVoteAvgRelaxed   = 6.0
	discoverVoteCountRelaxed = 20
	discoverSortRelaxed      = "popularity.desc"

	// fillScore is the fixed score for partial-fill admissions.
	fillScore = 0.65
	// relaxedBase + 0.1 * user genre score prices relaxed admissions.
	relaxedBase = 0.60

	// discoverOverfetch extra candidates fetched beyond the open slots.
	discoverOverfetch = 5
	// enrichOverfetch extra candidates stream-enriched beyond the open slots.
	enrichOverfetch = 2
)

// screenKindFor maps a media type to its catalog namespace.
func screenKindFor(mt MediaType) catalog.ScreenKind {
	if mt == TypeSeries {
		return catalog.KindTV
	}
	return catalog.KindMovie
}

// screenExternalID renders a catalog id as the stored external id.
func screenExternalID(catalogID int64) string {
	return strconv.FormatInt(catalogID, 10)
}

// screenPipeline runs the four-phase film/series pipeline: similar-seeded
// acquisition, preferred-genre discovery, partial-genre fill, and a
// relaxed second pass. Adapter failures inside a phase degrade to empty
// results; the pipeline continues.
func (g *generation) screenPipeline(ctx context.Context, mt MediaType, media []MediaItem) []Candidate {
	kind := screenKindFor(mt)
	cfg := g.engine.cfg

	q := newQuota(cfg.PerGenreCap, cfg.MaxTotalGenres, g.completionCounts(mt))
	excluded := g.excludedIDs(mt, media)
	seen := make(map[int64]struct{})
	var admitted []Candidate

	// Phase 1: similar items seeded by the user's highest rated media.
	pool := g.similarPool(ctx, kind, mt, media)
	pool = dropExcluded(pool, seen, excluded)
	pool = g.scoreCandidates(ctx, mt, pool)
	g.enrichAvailability(ctx, kind, pool)
	sortCandidates(pool)
	for _, c := range pool {
		g.admitScreen(c, q, seen, excluded, &admitted)
	}

	// Phase 2: discovery over the user's top preferred genres.
	preferred := g.preferredGenres()
	if len(preferred) > cfg.MaxPreferredGenres {
		preferred = preferred[:cfg.MaxPreferredGenres]
	}
	for _, genre := range preferred {
		if q.full(genre) {
			continue
		}
		genreID, ok := catalog.GenreIDByName(kind, genre)
		if !ok {
			continue
		}
		needed := q.needed(genre)
		pool := g.discoverGenre(ctx, kind, mt, genre, genreID, strictDiscover(genreID))
		pool = dropExcluded(pool, seen, excluded)
		if len(pool) > needed+discoverOverfetch {
			pool = pool[:needed+discoverOverfetch]
		}
		pool = g.scoreCandidates(ctx, mt, pool)
		g.enrichAvailability(ctx, kind, boundEnrich(pool, needed+enrichOverfetch))
		sortCandidates(pool)
		taken := 0
		for _, c := range pool {
			if taken == needed {
				break
			}
			if g.admitScreen(c, q, seen, excluded, &admitted) {
				taken++
			}
		}
	}

	// Phase 3: fill genres seeded by phase 1 but still short, without
	// re-scoring.
	for _, genre := range partialGenres(q) {
		genreID, ok := catalog.GenreIDByName(kind, genre)
		if !ok {
			continue
		}
		pool := g.discoverGenre(ctx, kind, mt, genre, genreID, strictDiscover(genreID))
		for _, c := range pool {
			if q.full(genre) {
				break
			}
			c.Score = fillScore
			c.UserGenreScore = g.state.genreScores[genre]
			g.admitOne(ctx, kind, c, q, seen, excluded, &admitted)
		}
	}

	// Phase 4: relaxed thresholds for preferred genres still short.
	for _, genre := range preferred {
		if q.full(genre) {
			continue
		}
		genreID, ok := catalog.GenreIDByName(kind, genre)
		if !ok {
			continue
		}
		pool := g.discoverGenre(ctx, kind, mt, genre, genreID, relaxedDiscover(genreID))
		for _, c := range pool {
			if q.full(genre) {
				break
			}
			c.UserGenreScore = g.state.genreScores[genre]
			c.Score = relaxedBase + 0.1*c.UserGenreScore
			g.admitOne(ctx, kind, c, q, seen, excluded, &admitted)
		}
	}

	metrics.RecommendationsEmitted.WithLabelValues(string(mt)).Add(float64(len(admitted)))
	return admitted
}

// seedItems selects the user's rated media eligible to seed the similar
// phase, highest rating first, ties broken by id.
func seedItems(media []MediaItem, mt MediaType, minRating, max int) []MediaItem {
	seeds := make([]MediaItem, 0, max)
	for _, m := range media {
		if m.Type != mt || m.Rating < minRating || m.ExternalID == "" {
			continue
		}
		if _, err := strconv.ParseInt(m.ExternalID, 10, 64); err != nil {
			continue
		}
		seeds = append(seeds, m)
	}
	sort.Slice(seeds, func(i, j int) bool {
		if seeds[i].Rating != seeds[j].Rating {
			return seeds[i].Rating > seeds[j].Rating
		}
		return seeds[i].ID < seeds[j].ID
	})
	if len(seeds) > max {
		seeds = seeds[:max]
	}
	return seeds
}

// similarPool fetches similar items for every seed concurrently and
// merges them deterministically, sorted by catalog id.
func (g *generation) similarPool(ctx context.Context, kind catalog.ScreenKind, mt MediaType, media []MediaItem) []Candidate {
	cfg := g.engine.cfg
	seeds := seedItems(media, mt, cfg.MinSeedRating, cfg.MaxSeeds)
	if len(seeds) == 0 {
		return nil
	}

	results := make([][]catalog.ScreenCandidate, len(seeds))
	grp, gctx := errgroup.WithContext(ctx)
	for i, seed := range seeds {
		seedID, _ := strconv.ParseInt(seed.ExternalID, 10, 64)
		grp.Go(func() error {
			items, err := g.engine.screen.Similar(gctx, kind, seedID)
			if err != nil {
				logging.Ctx(gctx).Warn().Err(err).
					Str("media_type", string(mt)).
					Str("phase", "similar").
					Int64("seed_id", seedID).
					Msg("similar lookup failed")
				return nil
			}
			if len(items) > cfg.SimilarPerSeed {
				items = items[:cfg.SimilarPerSeed]
			}
			results[i] = items
			return nil
		})
	}
	// Goroutines never return errors; Wait only observes ctx cancellation.
	_ = grp.Wait()

	var pool []Candidate
	for i, items := range results {
		for _, item := range items {
			c := candidateFromScreen(kind, item, SourceSimilar)
			c.SeedRating = seeds[i].Rating
			pool = append(pool, c)
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].CatalogID < pool[j].CatalogID })
	return pool
}

// strictDiscover builds the high-threshold discovery options.
func strictDiscover(genreID int64) catalog.DiscoverOptions {
	return catalog.DiscoverOptions{
		WithGenres:     genreID,
		VoteAverageGTE: discoverVoteAvgStrict,
		VoteCountGTE:   discoverVoteCountStrict,
		SortBy:         discoverSortStrict,
	}
}

// relaxedDiscover builds the second-pass discovery options.
func relaxedDiscover(genreID int64) catalog.DiscoverOptions {
	return catalog.DiscoverOptions{
		WithGenres:     genreID,
		VoteAverageGTE: discoverVoteAvgRelaxed,
		VoteCountGTE:   discoverVoteCountRelaxed,
		SortBy:         discoverSortRelaxed,
	}
}

// discoverGenre runs one discovery call, tagging results with the genre.
// Failures are logged and yield an empty pool.
func (g *generation) discoverGenre(ctx context.Context, kind catalog.ScreenKind, mt MediaType, genre string, genreID int64, opts catalog.DiscoverOptions) []Candidate {
	items, err := g.engine.screen.Discover(ctx, kind, opts)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("media_type", string(mt)).
			Str("phase", "discover").
			Str("genre", genre).
			Int64("genre_id", genreID).
			Msg("genre discovery failed")
		metrics.PipelineErrors.WithLabelValues(string(mt), "discover").Inc()
		return nil
	}
	pool := make([]Candidate, 0, len(items))
	for _, item := range items {
		c := candidateFromScreen(kind, item, sourcePreferredGenre)
		c.GenreName = genre
		c.UserGenreScore = g.state.genreScores[genre]
		pool = append(pool, c)
	}
	return pool
}

// candidateFromScreen converts a catalog result, deriving the genre name
// from the first recognizable genre id.
func candidateFromScreen(kind catalog.ScreenKind, sc catalog.ScreenCandidate, source Source) Candidate {
	c := Candidate{
		CatalogID:   sc.ID,
		ExternalID:  screenExternalID(sc.ID),
		Title:       sc.Title,
		Year:        sc.Year,
		Overview:    sc.Overview,
		PosterURL:   sc.PosterURL,
		VoteAverage: sc.VoteAverage,
		VoteCount:   sc.VoteCount,
		Popularity:  sc.Popularity,
		Source:      source,
	}
	if name, ok := catalog.FirstGenreName(kind, sc.GenreIDs); ok {
		c.GenreName = name
	}
	return c
}

// excludedIDs collects external ids that must never be recommended for
// this media type: the user's own library, dismissed recommendations,
// and, in completion mode, the already existing slate.
func (g *generation) excludedIDs(mt MediaType, media []MediaItem) map[string]struct{} {
	excluded := make(map[string]struct{})
	for _, m := range media {
		if m.Type == mt && m.ExternalID != "" {
			excluded[m.ExternalID] = struct{}{}
		}
	}
	for id := range g.state.dismissedIDs[mt] {
		excluded[id] = struct{}{}
	}
	if g.state.completion != nil {
		for id := range g.state.completion.existingIDs[mt] {
			excluded[id] = struct{}{}
		}
	}
	return excluded
}

// completionCounts returns the pre-seeded per-genre counters for a media
// type, nil on full refresh.
func (g *generation) completionCounts(mt MediaType) map[string]int {
	if g.state.completion == nil {
		return nil
	}
	return g.state.completion.genreCounts[mt]
}

// dropExcluded removes candidates already seen or excluded.
func dropExcluded(pool []Candidate, seen map[int64]struct{}, excluded map[string]struct{}) []Candidate {
	out := pool[:0]
	for _, c := range pool {
		if _, dup := seen[c.CatalogID]; dup {
			continue
		}
		if _, ex := excluded[c.ExternalID]; ex {
			continue
		}
		out = append(out, c)
	}
	return out
}

// boundEnrich limits batch enrichment to the first n candidates.
func boundEnrich(pool []Candidate, n int) []Candidate {
	if len(pool) > n {
		return pool[:n]
	}
	return pool
}

// enrichAvailability resolves streaming availability for a batch of
// candidates through the per-run LRU and applies the streamable boost.
func (g *generation) enrichAvailability(ctx context.Context, kind catalog.ScreenKind, pool []Candidate) {
	for i := range pool {
		g.enrichOne(ctx, kind, &pool[i])
	}
}

// enrichOne resolves availability for a single candidate.
func (g *generation) enrichOne(ctx context.Context, kind catalog.ScreenKind, c *Candidate) {
	av := g.availabilityFor(ctx, kind, c.CatalogID)
	c.IsStreamable = av.streamable
	c.Providers = av.providers
	if c.IsStreamable {
		c.Score = clampScore(c.Score + streamableBoost)
	}
}

// availabilityFor answers a watch-provider lookup through the per-run
// LRU. Lookup failures are cached as not-streamable for the run.
func (g *generation) availabilityFor(ctx context.Context, kind catalog.ScreenKind, catalogID int64) availability {
	key := string(kind) + ":" + strconv.FormatInt(catalogID, 10)
	if av, ok := g.state.availability.Get(key); ok {
		metrics.AvailabilityCacheHits.Inc()
		return av
	}
	metrics.AvailabilityCacheMisses.Inc()

	var av availability
	providers, err := g.engine.screen.WatchProviders(ctx, catalogID, kind, g.engine.cfg.StreamingCountry)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).
			Int64("catalog_id", catalogID).
			Str("kind", string(kind)).
			Msg("watch-provider lookup failed")
	} else if providers != nil {
		av = availability{streamable: providers.Streamable(), providers: providers.Flatrate}
	}
	g.state.availability.Put(key, av)
	return av
}

// admitScreen admits one already-enriched candidate, honoring quotas and
// the seen-set. Preferred-genre candidates are stored as genre_discover.
func (g *generation) admitScreen(c Candidate, q *quota, seen map[int64]struct{}, excluded map[string]struct{}, out *[]Candidate) bool {
	if _, dup := seen[c.CatalogID]; dup {
		return false
	}
	if _, ex := excluded[c.ExternalID]; ex {
		return false
	}
	if !q.admit(c.GenreName) {
		return false
	}
	if c.Source == sourcePreferredGenre {
		c.Source = SourceGenreDiscover
	}
	seen[c.CatalogID] = struct{}{}
	*out = append(*out, c)
	return true
}

// admitOne enriches a candidate individually and admits it. Used by the
// fill and relaxation phases where scores are fixed ahead of admission.
func (g *generation) admitOne(ctx context.Context, kind catalog.ScreenKind, c Candidate, q *quota, seen map[int64]struct{}, excluded map[string]struct{}, out *[]Candidate) bool {
	if _, dup := seen[c.CatalogID]; dup {
		return false
	}
	if _, ex := excluded[c.ExternalID]; ex {
		return false
	}
	g.enrichOne(ctx, kind, &c)
	return g.admitScreen(c, q, seen, excluded, out)
}

// partialGenres lists genres with at least one admission but open slots,
// sorted for determinism.
func partialGenres(q *quota) []string {
	var genres []string
	for genre, count := range q.counts {
		if genre != "" && count > 0 && count < q.perGenre {
			genres = append(genres, genre)
		}
	}
	sort.Strings(genres)
	return genres
}
