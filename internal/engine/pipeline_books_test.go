// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/tomtom215/curatus/internal/catalog"
)

func newBookGeneration(books *fakeBooks) *generation {
	e := newTestEngine(&fakeRepo{}, &fakeScreen{}, books, nil)
	g := e.newGeneration(1, modeFull, nil)
	g.state.dismissedIDs = map[MediaType]map[string]struct{}{}
	return g
}

func TestBookExternalIDFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		in   catalog.BookResult
		want string
	}{
		{"explicit id", catalog.BookResult{ExternalID: "x1", ISBN: "i1", OpenLibraryKey: "/works/OL1W"}, "x1"},
		{"isbn", catalog.BookResult{ISBN: "9780441013593", OpenLibraryKey: "/works/OL1W"}, "9780441013593"},
		{"open library key", catalog.BookResult{OpenLibraryKey: "/works/OL27448W", Key: "/books/OL99M"}, "OL27448W"},
		{"key", catalog.BookResult{Key: "/books/OL99M"}, "OL99M"},
		{"bare key", catalog.BookResult{Key: "OL99M"}, "OL99M"},
		{"nothing", catalog.BookResult{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bookExternalID(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitleOwned(t *testing.T) {
	owned := ownedBookTitles([]MediaItem{
		{Type: TypeBook, Title: "The Name of the Wind"},
		{Type: TypeFilm, Title: "Dune"}, // wrong type, ignored
	})

	if !titleOwned("the name of the wind", owned) {
		t.Fatal("exact match not detected")
	}
	if !titleOwned("Name of the Wind", owned) {
		t.Fatal("candidate contained in owned title not detected")
	}
	if !titleOwned("The Name of the Wind: Deluxe Edition", owned) {
		t.Fatal("owned title contained in candidate not detected")
	}
	if titleOwned("Dune", owned) {
		t.Fatal("film title must not block a book")
	}
}

func TestPreferredBookGenres(t *testing.T) {
	media := []MediaItem{
		{Type: TypeBook, Rating: 5, Genres: []string{"epic fantasy"}},
		{Type: TypeBook, Rating: 5, Genres: []string{"sci"}},
		{Type: TypeBook, Rating: 3, Genres: []string{"Romance"}}, // below threshold
	}

	preferred := preferredBookGenres(media)
	if !preferred["Fantasy"] {
		t.Fatal("\"epic fantasy\" must mark Fantasy preferred (genre contained in user tag)")
	}
	if !preferred["Science Fiction"] {
		t.Fatal("\"sci\" must mark Science Fiction preferred (user tag contained in genre)")
	}
	if preferred["Romance"] {
		t.Fatal("a 3-star rating must not mark a genre preferred")
	}
}

func TestOrderBookGenresPreferredFirst(t *testing.T) {
	ordered := orderBookGenres(map[string]bool{"Horror": true, "Classics": true}, 12)
	if len(ordered) != 12 {
		t.Fatalf("expected 12 genres, got %d", len(ordered))
	}
	if ordered[0].Name != "Horror" || ordered[1].Name != "Classics" {
		t.Fatalf("preferred genres must lead in curated order, got %q, %q", ordered[0].Name, ordered[1].Name)
	}
}

func TestBookPipelineCuratedScores(t *testing.T) {
	books := &fakeBooks{searchFn: func(query string, limit int) ([]catalog.BookResult, error) {
		if strings.HasPrefix(query, "best ") {
			return nil, nil
		}
		return []catalog.BookResult{{
			Key:      "/works/" + strconv.Itoa(len(query)) + strings.ReplaceAll(query, " ", ""),
			Title:    query,
			CoverURL: "https://covers.example/1-M.jpg",
		}}, nil
	}}
	g := newBookGeneration(books)
	media := []MediaItem{
		{UserID: 1, Type: TypeBook, Rating: 5, Title: "Mistborn", Genres: []string{"Fantasy"}},
	}

	admitted := g.bookPipeline(context.Background(), media)
	if len(admitted) == 0 {
		t.Fatal("expected admissions")
	}

	var sawPreferred, sawOther bool
	for _, c := range admitted {
		switch c.GenreName {
		case "Fantasy":
			sawPreferred = true
			if c.Source != SourceCurated {
				t.Fatalf("preferred genre must use curated source, got %q", c.Source)
			}
			if c.Score != bookPreferredScore+bookCoverBonus {
				t.Fatalf("expected %.2f, got %.4f", bookPreferredScore+bookCoverBonus, c.Score)
			}
			if strings.Contains(strings.ToLower(c.Title), "mistborn") {
				t.Fatalf("owned title admitted: %q", c.Title)
			}
		default:
			sawOther = true
			if c.Source != SourcePopular {
				t.Fatalf("non-preferred genre must use popular source, got %q", c.Source)
			}
			if c.Score != bookOtherScore+bookCoverBonus {
				t.Fatalf("expected %.2f, got %.4f", bookOtherScore+bookCoverBonus, c.Score)
			}
		}
	}
	if !sawPreferred || !sawOther {
		t.Fatalf("expected both preferred and other admissions, got %+v", admitted)
	}
}

func TestBookPipelineSecondPassFill(t *testing.T) {
	books := &fakeBooks{searchFn: func(query string, limit int) ([]catalog.BookResult, error) {
		if !strings.HasPrefix(query, "best ") {
			return nil, nil // curated queries all miss
		}
		var out []catalog.BookResult
		for i := 0; i < limit; i++ {
			out = append(out, catalog.BookResult{
				Key:   "/works/" + query[5:] + strconv.Itoa(i),
				Title: query + " vol " + strconv.Itoa(i),
			})
		}
		return out, nil
	}}
	g := newBookGeneration(books)

	admitted := g.bookPipeline(context.Background(), nil)
	if len(admitted) == 0 {
		t.Fatal("expected fill admissions")
	}
	byGenre := make(map[string]int)
	for _, c := range admitted {
		if c.Score != bookFillScore {
			t.Fatalf("fill admissions use the fixed score, got %.4f", c.Score)
		}
		if c.Source != SourcePopular {
			t.Fatalf("fill admissions use popular source, got %q", c.Source)
		}
		byGenre[c.GenreName]++
	}
	for genre, n := range byGenre {
		if n > 5 {
			t.Fatalf("genre %q over cap: %d", genre, n)
		}
	}
}

func TestBookPipelineDedupesAcrossGenres(t *testing.T) {
	books := &fakeBooks{searchFn: func(query string, limit int) ([]catalog.BookResult, error) {
		// Every query returns the same single book.
		return []catalog.BookResult{{Key: "/works/OLSAME", Title: "The Same Book"}}, nil
	}}
	g := newBookGeneration(books)

	admitted := g.bookPipeline(context.Background(), nil)
	if len(admitted) != 1 {
		t.Fatalf("expected a single admission of the shared book, got %d", len(admitted))
	}
}
