// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/curatus/internal/catalog"
	"github.com/tomtom215/curatus/internal/config"
)

// testEngineConfig mirrors the documented defaults.
func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		PerGenreCap:         5,
		MaxPreferredGenres:  8,
		MaxTotalGenres:      12,
		SimilarPerSeed:      3,
		MaxSeeds:            8,
		MinSeedRating:       4,
		StreamingCountry:    "FR",
		AvailabilityLRUSize: 500,
		StalenessWindow:     12 * time.Hour,
		FreshThreshold:      20,
		DismissedGCWindow:   7 * 24 * time.Hour,
	}
}

// fakeRepo is an in-memory Repository with the same transactional
// semantics as the real one.
type fakeRepo struct {
	mu     sync.Mutex
	media  []MediaItem
	recs   []Recommendation
	nextID int64

	replaceErr error
	insertErr  error
	mediaErr   error

	replaceCalls int
	insertCalls  int
}

func (r *fakeRepo) MediaForUser(_ context.Context, userID int64) ([]MediaItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mediaErr != nil {
		return nil, r.mediaErr
	}
	var out []MediaItem
	for _, m := range r.media {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeRepo) matches(rec Recommendation, userID int64, f RecommendationFilter) bool {
	if rec.UserID != userID {
		return false
	}
	if f.MediaType != "" && rec.MediaType != f.MediaType {
		return false
	}
	if f.Genre != "" && rec.GenreName != f.Genre {
		return false
	}
	if f.Dismissed != nil && rec.IsDismissed != *f.Dismissed {
		return false
	}
	if f.Added != nil && rec.AddedToLibrary != *f.Added {
		return false
	}
	if !f.Since.IsZero() && !rec.GeneratedAt.After(f.Since) {
		return false
	}
	return true
}

func (r *fakeRepo) Recommendations(_ context.Context, userID int64, f RecommendationFilter) ([]Recommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Recommendation
	for _, rec := range r.recs {
		if r.matches(rec, userID, f) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) CountRecommendations(_ context.Context, userID int64, f RecommendationFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.recs {
		if r.matches(rec, userID, f) {
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) gcDismissedLocked(userID int64, before time.Time) {
	kept := r.recs[:0]
	for _, rec := range r.recs {
		if rec.UserID == userID && rec.IsDismissed && rec.GeneratedAt.Before(before) {
			continue
		}
		kept = append(kept, rec)
	}
	r.recs = kept
}

func (r *fakeRepo) insertLocked(recs []Recommendation) {
	for _, rec := range recs {
		r.nextID++
		rec.ID = r.nextID
		r.recs = append(r.recs, rec)
	}
}

func (r *fakeRepo) ReplaceRecommendations(_ context.Context, userID int64, recs []Recommendation, dismissedBefore time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceCalls++
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.gcDismissedLocked(userID, dismissedBefore)
	kept := r.recs[:0]
	for _, rec := range r.recs {
		if rec.UserID == userID && !rec.IsDismissed {
			continue
		}
		kept = append(kept, rec)
	}
	r.recs = kept
	r.insertLocked(recs)
	return nil
}

func (r *fakeRepo) InsertRecommendations(_ context.Context, userID int64, recs []Recommendation, dismissedBefore time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertCalls++
	if r.insertErr != nil {
		return r.insertErr
	}
	r.gcDismissedLocked(userID, dismissedBefore)
	r.insertLocked(recs)
	return nil
}

func (r *fakeRepo) DismissRecommendation(_ context.Context, userID, recID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.recs {
		if r.recs[i].UserID == userID && r.recs[i].ID == recID {
			r.recs[i].IsDismissed = true
		}
	}
	return nil
}

func (r *fakeRepo) MarkAddedToLibrary(_ context.Context, userID int64, externalID string, mediaType MediaType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.recs {
		if r.recs[i].UserID == userID && r.recs[i].ExternalID == externalID && r.recs[i].MediaType == mediaType {
			r.recs[i].AddedToLibrary = true
		}
	}
	return nil
}

// fakeScreen serves canned screen-catalog responses.
type fakeScreen struct {
	similarFn   func(kind catalog.ScreenKind, seedID int64) ([]catalog.ScreenCandidate, error)
	discoverFn  func(kind catalog.ScreenKind, opts catalog.DiscoverOptions) ([]catalog.ScreenCandidate, error)
	providersFn func(id int64, kind catalog.ScreenKind) (*catalog.Providers, error)
}

func (s *fakeScreen) Similar(_ context.Context, kind catalog.ScreenKind, seedID int64) ([]catalog.ScreenCandidate, error) {
	if s.similarFn == nil {
		return nil, nil
	}
	return s.similarFn(kind, seedID)
}

func (s *fakeScreen) Discover(_ context.Context, kind catalog.ScreenKind, opts catalog.DiscoverOptions) ([]catalog.ScreenCandidate, error) {
	if s.discoverFn == nil {
		return nil, nil
	}
	return s.discoverFn(kind, opts)
}

func (s *fakeScreen) WatchProviders(_ context.Context, id int64, kind catalog.ScreenKind, _ string) (*catalog.Providers, error) {
	if s.providersFn == nil {
		return &catalog.Providers{}, nil
	}
	return s.providersFn(id, kind)
}

// fakeBooks serves canned book-search responses.
type fakeBooks struct {
	searchFn func(query string, limit int) ([]catalog.BookResult, error)
}

func (b *fakeBooks) Search(_ context.Context, query string, limit int) ([]catalog.BookResult, error) {
	if b.searchFn == nil {
		return nil, nil
	}
	return b.searchFn(query, limit)
}

// fakeEmbedder returns a fixed normalized vector per text.
type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EncodeBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// fakeEvents records published generation events.
type fakeEvents struct {
	mu     sync.Mutex
	events []GenerationEvent
}

func (f *fakeEvents) GenerationCompleted(_ context.Context, ev GenerationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func newTestEngine(repo *fakeRepo, screen *fakeScreen, books *fakeBooks, events EventPublisher) *Engine {
	e := New(repo, &fakeEmbedder{}, screen, books, events, testEngineConfig())
	e.nowFn = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func storedRec(userID int64, mt MediaType, externalID, genre string, generatedAt time.Time) Recommendation {
	return Recommendation{
		UserID:      userID,
		MediaType:   mt,
		ExternalID:  externalID,
		Title:       "title " + externalID,
		Score:       0.5,
		Source:      SourceGenreDiscover,
		GenreName:   genre,
		GeneratedAt: generatedAt,
	}
}

func TestGenerateSkipsWhenSlateFresh(t *testing.T) {
	repo := &fakeRepo{}
	e := newTestEngine(repo, &fakeScreen{}, &fakeBooks{}, nil)

	recent := e.now().Add(-1 * time.Hour)
	for i := 0; i < 25; i++ {
		repo.recs = append(repo.recs, storedRec(1, TypeFilm, strconv.Itoa(i), "Drama", recent))
		repo.recs[i].ID = int64(i + 1)
	}

	slate, err := e.Generate(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := len(slate[TypeFilm]); got != 25 {
		t.Fatalf("expected 25 stored films, got %d", got)
	}
	if repo.replaceCalls != 0 {
		t.Fatalf("generation should have been skipped, got %d replace calls", repo.replaceCalls)
	}
}

func TestGenerateForceBypassesFreshness(t *testing.T) {
	repo := &fakeRepo{}
	e := newTestEngine(repo, &fakeScreen{}, &fakeBooks{}, nil)

	recent := e.now().Add(-1 * time.Hour)
	for i := 0; i < 25; i++ {
		repo.recs = append(repo.recs, storedRec(1, TypeFilm, strconv.Itoa(i), "Drama", recent))
	}
	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeShortVideo, Title: "clip a", ExternalID: "ya", ChannelName: "X", Rating: 5},
		{ID: 2, UserID: 1, Type: TypeShortVideo, Title: "clip b", ExternalID: "yb", ChannelName: "X", Status: StatusToConsume},
	}

	slate, err := e.Generate(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if repo.replaceCalls != 1 {
		t.Fatalf("expected one replace call, got %d", repo.replaceCalls)
	}
	if got := len(slate[TypeShortVideo]); got != 1 {
		t.Fatalf("expected 1 short video, got %d", got)
	}
	if len(slate[TypeFilm]) != 0 {
		t.Fatalf("stale films should have been replaced, got %d", len(slate[TypeFilm]))
	}
}

func TestGenerateAllAdaptersFailingKeepsStoredSlate(t *testing.T) {
	adapterErr := errors.New("catalog down")
	repo := &fakeRepo{}
	screen := &fakeScreen{
		similarFn: func(catalog.ScreenKind, int64) ([]catalog.ScreenCandidate, error) {
			return nil, adapterErr
		},
		discoverFn: func(catalog.ScreenKind, catalog.DiscoverOptions) ([]catalog.ScreenCandidate, error) {
			return nil, adapterErr
		},
	}
	books := &fakeBooks{searchFn: func(string, int) ([]catalog.BookResult, error) {
		return nil, adapterErr
	}}
	e := newTestEngine(repo, screen, books, nil)

	old := e.now().Add(-48 * time.Hour)
	repo.recs = []Recommendation{storedRec(1, TypeFilm, "42", "Drama", old)}
	repo.recs[0].ID = 7
	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeFilm, Title: "seed", ExternalID: "100", Rating: 5, Genres: []string{"Drama"}},
	}

	slate, err := e.Generate(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	films := slate[TypeFilm]
	if len(films) != 1 || films[0].ExternalID != "42" {
		t.Fatalf("expected the previously stored slate, got %+v", films)
	}
	if repo.replaceCalls != 0 {
		t.Fatalf("an empty run must not replace the slate, got %d calls", repo.replaceCalls)
	}
}

func TestGenerateCommitFailureFallsBackToStored(t *testing.T) {
	repo := &fakeRepo{replaceErr: errors.New("disk full")}
	e := newTestEngine(repo, &fakeScreen{}, &fakeBooks{}, nil)

	old := e.now().Add(-48 * time.Hour)
	repo.recs = []Recommendation{storedRec(1, TypeShortVideo, "prev", "X", old)}
	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeShortVideo, Title: "clip a", ExternalID: "ya", ChannelName: "X", Rating: 5},
		{ID: 2, UserID: 1, Type: TypeShortVideo, Title: "clip b", ExternalID: "yb", ChannelName: "X", Status: StatusToConsume},
	}

	slate, err := e.Generate(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	shorts := slate[TypeShortVideo]
	if len(shorts) != 1 || shorts[0].ExternalID != "prev" {
		t.Fatalf("expected the stored slate after commit failure, got %+v", shorts)
	}
}

func TestGenerateStreamMilestones(t *testing.T) {
	adapterErr := errors.New("catalog down")
	repo := &fakeRepo{}
	// Books fail; shorts succeed locally.
	books := &fakeBooks{searchFn: func(string, int) ([]catalog.BookResult, error) {
		return nil, adapterErr
	}}
	e := newTestEngine(repo, &fakeScreen{}, books, nil)

	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeShortVideo, Title: "clip a", ExternalID: "ya", ChannelName: "X", Rating: 5},
		{ID: 2, UserID: 1, Type: TypeShortVideo, Title: "clip b", ExternalID: "yb", ChannelName: "X", Rating: 4},
		{ID: 3, UserID: 1, Type: TypeShortVideo, Title: "clip c", ExternalID: "yc", ChannelName: "X", Status: StatusToConsume},
	}

	var events []ProgressEvent
	for ev := range e.GenerateStream(context.Background(), 1) {
		events = append(events, ev)
	}
	if len(events) == 0 {
		t.Fatal("expected progress events")
	}

	last := events[len(events)-1]
	if last.Progress != 100 || last.Step != StepDone {
		t.Fatalf("expected terminal done at 100, got %+v", last)
	}
	if last.Count != 1 {
		t.Fatalf("expected terminal count 1, got %d", last.Count)
	}
	prevProgress, prevCount := -1, -1
	seenSteps := make(map[Step]bool)
	for _, ev := range events {
		if ev.Progress < prevProgress {
			t.Fatalf("progress decreased: %d after %d", ev.Progress, prevProgress)
		}
		if ev.Count < prevCount {
			t.Fatalf("count decreased: %d after %d", ev.Count, prevCount)
		}
		prevProgress, prevCount = ev.Progress, ev.Count
		seenSteps[ev.Step] = true
	}
	for _, step := range []Step{StepProfile, StepFilms, StepSeries, StepBooks, StepYouTube, StepSaving, StepDone} {
		if !seenSteps[step] {
			t.Fatalf("missing milestone for step %q", step)
		}
	}
}

func TestGenerateStreamTerminalErrorEvent(t *testing.T) {
	repo := &fakeRepo{mediaErr: errors.New("db gone")}
	e := newTestEngine(repo, &fakeScreen{}, &fakeBooks{}, nil)

	var events []ProgressEvent
	for ev := range e.GenerateStream(context.Background(), 1) {
		events = append(events, ev)
	}
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	last := events[len(events)-1]
	if last.Progress != 100 || last.Step != StepError {
		t.Fatalf("expected terminal error at 100, got %+v", last)
	}
}

func TestCompleteStreamPreservesExisting(t *testing.T) {
	repo := &fakeRepo{}
	screen := &fakeScreen{
		discoverFn: func(kind catalog.ScreenKind, opts catalog.DiscoverOptions) ([]catalog.ScreenCandidate, error) {
			var out []catalog.ScreenCandidate
			for i := int64(0); i < 10; i++ {
				out = append(out, catalog.ScreenCandidate{
					ID:          opts.WithGenres*1000 + i,
					Title:       "candidate " + strconv.Itoa(int(opts.WithGenres*1000+i)),
					Year:        2020,
					VoteAverage: 7.5,
					VoteCount:   500,
					GenreIDs:    []int64{opts.WithGenres},
				})
			}
			return out, nil
		},
	}
	e := newTestEngine(repo, screen, &fakeBooks{}, nil)

	old := e.now().Add(-24 * time.Hour)
	// Drama is full, Comedy has 2 of 5.
	for i := 0; i < 5; i++ {
		repo.recs = append(repo.recs, storedRec(1, TypeFilm, strconv.Itoa(9000+i), "Drama", old))
	}
	repo.recs = append(repo.recs,
		storedRec(1, TypeFilm, "35000", "Comedy", old),
		storedRec(1, TypeFilm, "35001", "Comedy", old))
	for i := range repo.recs {
		repo.recs[i].ID = int64(i + 1)
	}
	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeFilm, Title: "a", ExternalID: "1", Rating: 5, Genres: []string{"Comedy"}},
		{ID: 2, UserID: 1, Type: TypeFilm, Title: "b", ExternalID: "2", Rating: 5, Genres: []string{"Drama"}},
	}

	for range e.CompleteStream(context.Background(), 1) {
	}

	films, err := repo.Recommendations(context.Background(), 1, RecommendationFilter{MediaType: TypeFilm})
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	byGenre := make(map[string]int)
	seen := make(map[string]int)
	for _, rec := range films {
		byGenre[rec.GenreName]++
		seen[rec.ExternalID]++
	}
	if byGenre["Drama"] != 5 {
		t.Fatalf("Drama must stay at 5, got %d", byGenre["Drama"])
	}
	if byGenre["Comedy"] != 5 {
		t.Fatalf("Comedy must be topped to 5, got %d", byGenre["Comedy"])
	}
	for id, n := range seen {
		if n > 1 {
			t.Fatalf("external id %q recommended twice", id)
		}
	}
}

func TestCompleteStreamSkipsSatisfiedTypes(t *testing.T) {
	repo := &fakeRepo{}
	discoverCalls := 0
	screen := &fakeScreen{
		discoverFn: func(catalog.ScreenKind, catalog.DiscoverOptions) ([]catalog.ScreenCandidate, error) {
			discoverCalls++
			return nil, nil
		},
	}
	e := newTestEngine(repo, screen, &fakeBooks{}, nil)

	old := e.now().Add(-24 * time.Hour)
	for i := 0; i < 5; i++ {
		repo.recs = append(repo.recs, storedRec(1, TypeFilm, strconv.Itoa(i), "Drama", old))
		repo.recs = append(repo.recs, storedRec(1, TypeSeries, strconv.Itoa(100+i), "Drama", old))
	}
	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeFilm, Title: "a", ExternalID: "1", Rating: 5, Genres: []string{"Drama"}},
	}

	for range e.CompleteStream(context.Background(), 1) {
	}
	if discoverCalls != 0 {
		t.Fatalf("satisfied types must be skipped, got %d discover calls", discoverCalls)
	}
}

func TestDismissAndMarkAddedIdempotent(t *testing.T) {
	repo := &fakeRepo{}
	repo.recs = []Recommendation{{ID: 1, UserID: 1, MediaType: TypeFilm, ExternalID: "42"}}
	e := newTestEngine(repo, &fakeScreen{}, &fakeBooks{}, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := e.Dismiss(ctx, 1, 1); err != nil {
			t.Fatalf("Dismiss: %v", err)
		}
		if err := e.MarkAdded(ctx, 1, "42", TypeFilm); err != nil {
			t.Fatalf("MarkAdded: %v", err)
		}
	}
	if err := e.Dismiss(ctx, 1, 999); err != nil {
		t.Fatalf("Dismiss of missing row must succeed: %v", err)
	}
	if !repo.recs[0].IsDismissed || !repo.recs[0].AddedToLibrary {
		t.Fatalf("mutations not applied: %+v", repo.recs[0])
	}
}

func TestGenerateStreamPublishesEvent(t *testing.T) {
	repo := &fakeRepo{}
	events := &fakeEvents{}
	e := newTestEngine(repo, &fakeScreen{}, &fakeBooks{}, events)
	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeShortVideo, Title: "clip a", ExternalID: "ya", ChannelName: "X", Rating: 5},
		{ID: 2, UserID: 1, Type: TypeShortVideo, Title: "clip b", ExternalID: "yb", ChannelName: "X", Status: StatusToConsume},
	}

	for range e.GenerateStream(context.Background(), 1) {
	}

	events.mu.Lock()
	defer events.mu.Unlock()
	if len(events.events) != 1 {
		t.Fatalf("expected one generation event, got %d", len(events.events))
	}
	ev := events.events[0]
	if ev.UserID != 1 || ev.RunID == "" {
		t.Fatalf("incomplete event: %+v", ev)
	}
	if ev.Counts[TypeShortVideo] != 1 {
		t.Fatalf("expected short video count 1, got %+v", ev.Counts)
	}
}

func TestScoresStayInBounds(t *testing.T) {
	repo := &fakeRepo{}
	screen := &fakeScreen{
		discoverFn: func(kind catalog.ScreenKind, opts catalog.DiscoverOptions) ([]catalog.ScreenCandidate, error) {
			return []catalog.ScreenCandidate{
				{ID: 1, Title: "maxed", Year: 2021, VoteAverage: 10, VoteCount: 1000000, Popularity: 99999, GenreIDs: []int64{opts.WithGenres}},
				{ID: 2, Title: "floored", Year: 1960, VoteAverage: 0, VoteCount: 0, GenreIDs: []int64{opts.WithGenres}},
			}, nil
		},
		providersFn: func(int64, catalog.ScreenKind) (*catalog.Providers, error) {
			return &catalog.Providers{Flatrate: []string{"Netflix"}}, nil
		},
	}
	e := newTestEngine(repo, screen, &fakeBooks{}, nil)
	repo.media = []MediaItem{
		{ID: 1, UserID: 1, Type: TypeFilm, Title: "a", ExternalID: "1", Rating: 5, Genres: []string{"Drama"}},
	}

	slate, err := e.Generate(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for mt, recs := range slate {
		for _, rec := range recs {
			if rec.Score < 0.05-1e-9 || rec.Score > 0.98+1e-9 {
				t.Fatalf("%s %q: score %.4f out of bounds", mt, rec.Title, rec.Score)
			}
			if rec.ExternalID == "" {
				t.Fatalf("%s %q: empty external id", mt, rec.Title)
			}
			if rec.MediaType != mt {
				t.Fatalf("media type mismatch: %q in %q bucket", rec.MediaType, mt)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	build := func() *Engine {
		repo := &fakeRepo{}
		screen := &fakeScreen{
			similarFn: func(kind catalog.ScreenKind, seedID int64) ([]catalog.ScreenCandidate, error) {
				return []catalog.ScreenCandidate{
					{ID: seedID*10 + 1, Title: "sim a", Year: 2020, VoteAverage: 7, VoteCount: 100, GenreIDs: []int64{18}},
					{ID: seedID*10 + 2, Title: "sim b", Year: 2019, VoteAverage: 8, VoteCount: 300, GenreIDs: []int64{35}},
				}, nil
			},
			discoverFn: func(kind catalog.ScreenKind, opts catalog.DiscoverOptions) ([]catalog.ScreenCandidate, error) {
				var out []catalog.ScreenCandidate
				for i := int64(0); i < 8; i++ {
					out = append(out, catalog.ScreenCandidate{
						ID: opts.WithGenres*100 + i, Title: "disc " + strconv.Itoa(int(opts.WithGenres*100+i)),
						Year: 2018, VoteAverage: 7.2, VoteCount: 250, GenreIDs: []int64{opts.WithGenres},
					})
				}
				return out, nil
			},
		}
		e := newTestEngine(repo, screen, &fakeBooks{}, nil)
		repo.media = []MediaItem{
			{ID: 1, UserID: 1, Type: TypeFilm, Title: "s1", ExternalID: "100", Rating: 5, Genres: []string{"Drama"}},
			{ID: 2, UserID: 1, Type: TypeFilm, Title: "s2", ExternalID: "200", Rating: 4, Genres: []string{"Comedy"}},
		}
		return e
	}

	first, err := build().Generate(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := build().Generate(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, mt := range MediaTypes {
		a, b := first[mt], second[mt]
		if len(a) != len(b) {
			t.Fatalf("%s: run sizes differ: %d vs %d", mt, len(a), len(b))
		}
		for i := range a {
			if a[i].ExternalID != b[i].ExternalID || math.Abs(a[i].Score-b[i].Score) > 1e-12 {
				t.Fatalf("%s[%d]: runs diverge: %+v vs %+v", mt, i, a[i], b[i])
			}
		}
	}
}

