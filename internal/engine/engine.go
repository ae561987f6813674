// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/curatus/internal/cache"
	"github.com/tomtom215/curatus/internal/catalog"
	"github.com/tomtom215/curatus/internal/config"
	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/metrics"
)

// Embedder produces normalized embeddings for batches of texts. The
// process-wide embedding service satisfies it.
type Embedder interface {
	EncodeBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine orchestrates recommendation generation: taste profile, the four
// per-type pipelines, and transactional slate persistence. Safe for
// concurrent use; all mutable state is per-run.
type Engine struct {
	repo   Repository
	embed  Embedder
	screen catalog.ScreenClient
	books  catalog.BookClient
	events EventPublisher // optional
	cfg    config.EngineConfig

	nowFn func() time.Time
}

// New creates an engine. events may be nil.
func New(repo Repository, embed Embedder, screen catalog.ScreenClient, books catalog.BookClient, events EventPublisher, cfg config.EngineConfig) *Engine {
	return &Engine{
		repo:   repo,
		embed:  embed,
		screen: screen,
		books:  books,
		events: events,
		cfg:    cfg,
		nowFn:  time.Now,
	}
}

func (e *Engine) now() time.Time {
	return e.nowFn()
}

// generationMode selects the orchestration variant.
type generationMode int

const (
	modeFull generationMode = iota
	modeStreaming
	modeCompletion
)

func (m generationMode) String() string {
	switch m {
	case modeStreaming:
		return "streaming"
	case modeCompletion:
		return "completion"
	default:
		return "full"
	}
}

// generation is the per-run orchestration state. One generation serves
// exactly one call; it is never reused.
type generation struct {
	engine *Engine
	userID int64
	runID  string
	mode   generationMode
	state  *runState

	// emit delivers progress events, nil for non-streaming runs.
	emit func(ProgressEvent)
	// lastProgress enforces monotonically non-decreasing progress.
	lastProgress int
}

func (e *Engine) newGeneration(userID int64, mode generationMode, emit func(ProgressEvent)) *generation {
	return &generation{
		engine: e,
		userID: userID,
		runID:  logging.GenerateRunID(),
		mode:   mode,
		emit:   emit,
		state: &runState{
			availability: cache.NewLRU[availability](e.cfg.AvailabilityLRUSize),
		},
	}
}

// progress emits one milestone. Progress values never decrease even if a
// caller passes a lower value.
func (g *generation) progress(p int, status string, step Step, count int) {
	if p < g.lastProgress {
		p = g.lastProgress
	}
	g.lastProgress = p
	if g.emit != nil {
		g.emit(ProgressEvent{Progress: p, Status: status, Step: step, Count: count})
	}
}

// Generate runs a full refresh and returns the user's slate grouped by
// media type. Unless forced, a fresh slate short-circuits generation:
// more than the configured threshold of non-dismissed recommendations
// generated inside the staleness window returns the stored slate as is.
func (e *Engine) Generate(ctx context.Context, userID int64, forceRefresh bool) (map[MediaType][]Recommendation, error) {
	g := e.newGeneration(userID, modeFull, nil)
	ctx = logging.ContextWithRunID(ctx, g.runID)

	if !forceRefresh {
		fresh, err := e.slateIsFresh(ctx, userID)
		if err != nil {
			return nil, err
		}
		if fresh {
			metrics.GenerationOutcomes.WithLabelValues(modeFull.String(), "skipped_fresh").Inc()
			logging.Ctx(ctx).Info().Int64("user_id", userID).Msg("slate is fresh, skipping generation")
			return e.storedSlate(ctx, userID)
		}
	}

	return g.run(ctx)
}

// GenerateStream runs a full refresh, emitting milestone events on the
// returned channel. The channel is closed after the terminal event
// (done or error, always at progress 100). The database commit completes
// before the terminal event is observable. Cancelling ctx stops the run
// at the next suspension point.
func (e *Engine) GenerateStream(ctx context.Context, userID int64) <-chan ProgressEvent {
	return e.stream(ctx, userID, modeStreaming)
}

// CompleteStream tops up the existing slate instead of replacing it:
// media types with every genre at capacity are skipped, existing
// recommendations are preserved, and new ones avoid colliding with them.
func (e *Engine) CompleteStream(ctx context.Context, userID int64) <-chan ProgressEvent {
	return e.stream(ctx, userID, modeCompletion)
}

func (e *Engine) stream(ctx context.Context, userID int64, mode generationMode) <-chan ProgressEvent {
	events := make(chan ProgressEvent, 8)
	emit := func(ev ProgressEvent) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(events)
		g := e.newGeneration(userID, mode, emit)
		runCtx := logging.ContextWithRunID(ctx, g.runID)
		if _, err := g.run(runCtx); err != nil {
			logging.Ctx(runCtx).Error().Err(err).
				Int64("user_id", userID).
				Str("mode", mode.String()).
				Msg("generation failed")
			g.progress(progressDone, "Generation failed", StepError, 0)
		}
	}()
	return events
}

// Dismiss marks a recommendation dismissed. Idempotent.
func (e *Engine) Dismiss(ctx context.Context, userID, recID int64) error {
	return e.repo.DismissRecommendation(ctx, userID, recID)
}

// MarkAdded marks a recommendation as added to the user's library.
// Idempotent.
func (e *Engine) MarkAdded(ctx context.Context, userID int64, externalID string, mediaType MediaType) error {
	return e.repo.MarkAddedToLibrary(ctx, userID, externalID, mediaType)
}

// Slate returns the stored non-dismissed recommendations grouped by type.
func (e *Engine) Slate(ctx context.Context, userID int64) (map[MediaType][]Recommendation, error) {
	return e.storedSlate(ctx, userID)
}

// slateIsFresh reports whether enough recent recommendations exist to
// skip generation.
func (e *Engine) slateIsFresh(ctx context.Context, userID int64) (bool, error) {
	n, err := e.repo.CountRecommendations(ctx, userID, RecommendationFilter{
		Dismissed: boolPtr(false),
		Since:     e.now().Add(-e.cfg.StalenessWindow),
	})
	if err != nil {
		return false, fmt.Errorf("counting recent recommendations: %w", err)
	}
	return n > e.cfg.FreshThreshold, nil
}

func (e *Engine) storedSlate(ctx context.Context, userID int64) (map[MediaType][]Recommendation, error) {
	recs, err := e.repo.Recommendations(ctx, userID, RecommendationFilter{Dismissed: boolPtr(false)})
	if err != nil {
		return nil, fmt.Errorf("loading stored recommendations: %w", err)
	}
	return GroupByType(recs), nil
}

// run executes one generation end to end. Per-run state is always
// released, whatever the outcome.
func (g *generation) run(ctx context.Context) (map[MediaType][]Recommendation, error) {
	e := g.engine
	start := e.now()
	defer func() {
		g.state.release()
		metrics.GenerationDuration.WithLabelValues(g.mode.String()).
			Observe(e.now().Sub(start).Seconds())
	}()

	if g.mode == modeCompletion {
		if err := g.loadCompletionContext(ctx); err != nil {
			metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "error").Inc()
			return nil, err
		}
	}

	media, err := e.repo.MediaForUser(ctx, g.userID)
	if err != nil {
		metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "error").Inc()
		return nil, fmt.Errorf("loading user media: %w", err)
	}

	g.progress(progressProfileStart, "Building your taste profile", StepProfile, 0)
	g.buildTasteState(ctx, media)
	g.progress(progressProfileEnd, "Taste profile ready", StepProfile, 0)

	var all []Recommendation
	generatedAt := e.now()
	for _, mt := range MediaTypes {
		if err := ctx.Err(); err != nil {
			metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "error").Inc()
			return nil, err
		}

		msStart, msEnd := milestonesForType(mt)
		step := stepForType(mt)
		if g.mode == modeCompletion && !g.state.completion.needed[mt] {
			g.progress(msEnd, "Already complete", step, len(all))
			continue
		}

		g.progress(msStart, startStatus(mt), step, len(all))
		cands := g.runPipeline(ctx, mt, media)
		all = append(all, g.toRecommendations(mt, cands, generatedAt)...)
		g.progress(msEnd, endStatus(mt), step, len(all))
	}

	if err := ctx.Err(); err != nil {
		metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "error").Inc()
		return nil, err
	}

	g.progress(progressSaving, "Saving recommendations", StepSaving, len(all))
	slate, err := g.commit(ctx, all)
	if err != nil {
		metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "error").Inc()
		return nil, err
	}

	g.publishCompleted(ctx, slate)
	g.progress(progressDone, "Done", StepDone, len(all))
	return slate, nil
}

// runPipeline dispatches one media type. A pipeline cannot abort the
// run; its failures surface as an empty result.
func (g *generation) runPipeline(ctx context.Context, mt MediaType, media []MediaItem) []Candidate {
	switch mt {
	case TypeFilm, TypeSeries:
		return g.screenPipeline(ctx, mt, media)
	case TypeBook:
		return g.bookPipeline(ctx, media)
	case TypeShortVideo:
		return g.shortsPipeline(ctx, media)
	default:
		return nil
	}
}

// commit persists the run's output and returns the slate to serve.
//
// Full and streaming runs replace the slate, but only when the run
// produced at least one recommendation; a run where every pipeline came
// back empty keeps the stored slate and reports it instead. Completion
// runs insert alongside the existing slate. Both paths garbage-collect
// dismissed recommendations older than the configured window.
func (g *generation) commit(ctx context.Context, recs []Recommendation) (map[MediaType][]Recommendation, error) {
	e := g.engine
	dismissedBefore := e.now().Add(-e.cfg.DismissedGCWindow)

	if g.mode == modeCompletion {
		if err := e.repo.InsertRecommendations(ctx, g.userID, recs, dismissedBefore); err != nil {
			return nil, fmt.Errorf("inserting recommendations: %w", err)
		}
		metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "committed").Inc()
		return e.storedSlate(ctx, g.userID)
	}

	if len(recs) == 0 {
		logging.Ctx(ctx).Warn().Int64("user_id", g.userID).
			Msg("all pipelines came back empty, keeping stored slate")
		metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "fallback").Inc()
		return e.storedSlate(ctx, g.userID)
	}

	if err := e.repo.ReplaceRecommendations(ctx, g.userID, recs, dismissedBefore); err != nil {
		// Replacement is atomic, so the previous slate survived.
		logging.Ctx(ctx).Error().Err(err).Int64("user_id", g.userID).
			Msg("slate replacement failed, serving stored slate")
		metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "fallback").Inc()
		return e.storedSlate(ctx, g.userID)
	}

	metrics.GenerationOutcomes.WithLabelValues(g.mode.String(), "committed").Inc()
	return GroupByType(recs), nil
}

// publishCompleted notifies subscribers after a successful commit.
func (g *generation) publishCompleted(ctx context.Context, slate map[MediaType][]Recommendation) {
	if g.engine.events == nil {
		return
	}
	counts := make(map[MediaType]int, len(slate))
	for mt, recs := range slate {
		counts[mt] = len(recs)
	}
	g.engine.events.GenerationCompleted(ctx, GenerationEvent{
		UserID:      g.userID,
		RunID:       g.runID,
		Counts:      counts,
		GeneratedAt: g.engine.now(),
	})
}

// loadCompletionContext snapshots the existing slate so pipelines only
// top up the gaps.
func (g *generation) loadCompletionContext(ctx context.Context) error {
	existing, err := g.engine.repo.Recommendations(ctx, g.userID, RecommendationFilter{
		Dismissed: boolPtr(false),
		Added:     boolPtr(false),
	})
	if err != nil {
		return fmt.Errorf("loading existing recommendations: %w", err)
	}

	cc := &completionContext{
		genreCounts: make(map[MediaType]map[string]int),
		existingIDs: make(map[MediaType]map[string]struct{}),
		needed:      make(map[MediaType]bool),
	}
	for _, rec := range existing {
		if cc.genreCounts[rec.MediaType] == nil {
			cc.genreCounts[rec.MediaType] = make(map[string]int)
			cc.existingIDs[rec.MediaType] = make(map[string]struct{})
		}
		cc.genreCounts[rec.MediaType][rec.GenreName]++
		cc.existingIDs[rec.MediaType][rec.ExternalID] = struct{}{}
	}
	for _, mt := range MediaTypes {
		counts := cc.genreCounts[mt]
		if len(counts) == 0 {
			cc.needed[mt] = true
			continue
		}
		for _, n := range counts {
			if n < g.engine.cfg.PerGenreCap {
				cc.needed[mt] = true
				break
			}
		}
	}
	g.state.completion = cc
	return nil
}

// toRecommendations converts admitted candidates into storable rows.
func (g *generation) toRecommendations(mt MediaType, cands []Candidate, generatedAt time.Time) []Recommendation {
	recs := make([]Recommendation, 0, len(cands))
	for _, c := range cands {
		recs = append(recs, Recommendation{
			UserID:             g.userID,
			MediaType:          mt,
			ExternalID:         c.ExternalID,
			Title:              c.Title,
			Year:               c.Year,
			CoverURL:           c.PosterURL,
			Description:        c.Overview,
			Score:              c.Score,
			Source:             c.Source,
			GenreName:          c.GenreName,
			CatalogRating:      c.VoteAverage,
			IsStreamable:       c.IsStreamable,
			StreamingProviders: c.Providers,
			ExternalURL:        c.ExternalURL,
			GeneratedAt:        generatedAt,
		})
	}
	return recs
}

func startStatus(mt MediaType) string {
	switch mt {
	case TypeFilm:
		return "Finding films you'll love"
	case TypeSeries:
		return "Finding series to binge"
	case TypeBook:
		return "Picking books for you"
	default:
		return "Surfacing videos from your favorite channels"
	}
}

func endStatus(mt MediaType) string {
	switch mt {
	case TypeFilm:
		return "Films ready"
	case TypeSeries:
		return "Series ready"
	case TypeBook:
		return "Books ready"
	default:
		return "Videos ready"
	}
}
