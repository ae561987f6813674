// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package catalog

import "testing"

func TestGenreIDByName(t *testing.T) {
	tests := []struct {
		kind ScreenKind
		name string
		want int64
		ok   bool
	}{
		{KindMovie, "Science Fiction", 878, true},
		{KindMovie, "science fiction", 878, true},
		{KindMovie, "  Drama  ", 18, true},
		{KindMovie, "Nope", 0, false},
		{KindTV, "Drama", 18, true},
		// Movie-style names resolve through TV aliases.
		{KindTV, "Science Fiction", 10765, true},
		{KindTV, "Action", 10759, true},
	}
	for _, tt := range tests {
		got, ok := GenreIDByName(tt.kind, tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("GenreIDByName(%s, %q) = (%d, %v), want (%d, %v)",
				tt.kind, tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFirstGenreName(t *testing.T) {
	name, ok := FirstGenreName(KindMovie, []int64{99999, 18, 35})
	if !ok || name != "Drama" {
		t.Errorf("FirstGenreName = (%q, %v), want (Drama, true)", name, ok)
	}

	if _, ok := FirstGenreName(KindMovie, []int64{99999}); ok {
		t.Error("expected no recognizable genre")
	}
	if _, ok := FirstGenreName(KindMovie, nil); ok {
		t.Error("expected no genre for empty ids")
	}
}

func TestYearFromDate(t *testing.T) {
	if got := yearFromDate("2019-07-20"); got != 2019 {
		t.Errorf("yearFromDate = %d, want 2019", got)
	}
	if got := yearFromDate(""); got != 0 {
		t.Errorf("yearFromDate empty = %d, want 0", got)
	}
	if got := yearFromDate("abc"); got != 0 {
		t.Errorf("yearFromDate malformed = %d, want 0", got)
	}
}
