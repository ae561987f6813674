// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package catalog

import "strings"

// TMDB genre id tables. These ids are stable catalog reference data; the
// pipelines use them to translate between user genre names and discover
// filters, and to derive a genre name from a candidate's genre id list.

var movieGenres = map[int64]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

var tvGenres = map[int64]string{
	10759: "Action & Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	10762: "Kids",
	9648:  "Mystery",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
	37:    "Western",
}

// tvAliases maps common movie-style genre names onto TV catalog genres,
// so a user profile built from films still discovers series.
var tvAliases = map[string]int64{
	"action":          10759,
	"adventure":       10759,
	"science fiction": 10765,
	"fantasy":         10765,
	"war":             10768,
	"thriller":        80, // closest TV namespace fit
}

// genreTable returns the id table for a kind.
func genreTable(kind ScreenKind) map[int64]string {
	if kind == KindTV {
		return tvGenres
	}
	return movieGenres
}

// GenreNameByID returns the display name for a catalog genre id, or
// ("", false) if the id is not recognizable in that kind's namespace.
func GenreNameByID(kind ScreenKind, id int64) (string, bool) {
	name, ok := genreTable(kind)[id]
	return name, ok
}

// FirstGenreName returns the name of the first recognizable genre id,
// or ("", false) if none match.
func FirstGenreName(kind ScreenKind, ids []int64) (string, bool) {
	for _, id := range ids {
		if name, ok := GenreNameByID(kind, id); ok {
			return name, true
		}
	}
	return "", false
}

// GenreIDByName resolves a user genre name (case-insensitive) to a catalog
// genre id for the given kind. TV lookups fall back to movie-style aliases.
func GenreIDByName(kind ScreenKind, name string) (int64, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for id, n := range genreTable(kind) {
		if strings.ToLower(n) == lower {
			return id, true
		}
	}
	if kind == KindTV {
		if id, ok := tvAliases[lower]; ok {
			return id, true
		}
	}
	return 0, false
}
