// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/curatus/internal/config"
)

func newTestOpenLibrary(t *testing.T, handler http.HandlerFunc) *OpenLibraryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenLibraryClient(config.OpenLibraryConfig{
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 100,
	})
}

func TestOpenLibrarySearch(t *testing.T) {
	client := newTestOpenLibrary(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("q") != "best fantasy books" {
			t.Errorf("q = %q", r.URL.Query().Get("q"))
		}
		if r.URL.Query().Get("limit") != "3" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		w.Write([]byte(`{"docs":[
			{"key":"/works/OL27448W","title":"The Hobbit","author_name":["J.R.R. Tolkien"],
			 "first_publish_year":1937,"cover_i":6549,"isbn":["9780261102217","0261102214"],
			 "first_sentence":["In a hole in the ground there lived a hobbit."]},
			{"key":"/works/OL1W","title":""}
		]}`))
	})

	got, err := client.Search(context.Background(), "best fantasy books", 3)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (untitled doc dropped)", len(got))
	}

	book := got[0]
	if book.Title != "The Hobbit" || book.FirstPublishYear != 1937 {
		t.Errorf("unexpected book: %+v", book)
	}
	if book.OpenLibraryKey != "/works/OL27448W" {
		t.Errorf("OpenLibraryKey = %q", book.OpenLibraryKey)
	}
	if book.ISBN != "9780261102217" {
		t.Errorf("ISBN = %q, want first entry", book.ISBN)
	}
	if book.CoverURL != "https://covers.openlibrary.org/b/id/6549-M.jpg" {
		t.Errorf("CoverURL = %q", book.CoverURL)
	}
	if book.Description == "" {
		t.Error("first sentence should populate the description")
	}
	if len(book.Authors) != 1 || book.Authors[0] != "J.R.R. Tolkien" {
		t.Errorf("Authors = %v", book.Authors)
	}
}

func TestOpenLibrarySearchErrorStatus(t *testing.T) {
	client := newTestOpenLibrary(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
	})

	if _, err := client.Search(context.Background(), "anything", 5); err == nil {
		t.Fatal("expected error on 503 response")
	}
}

func TestOpenLibrarySearchEmptyDocs(t *testing.T) {
	client := newTestOpenLibrary(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"docs":[]}`))
	})

	got, err := client.Search(context.Background(), "no matches here", 5)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}
