// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package embedding

import (
	"strconv"
	"strings"
)

// Limits applied by BuildText. Profile vectors and candidate vectors must
// be computed from identically synthesized text, so these are fixed.
const (
	maxKeywords           = 10
	maxDescriptionLength  = 500
	textSeparator         = " | "
	descriptionTruncation = "..."
)

// TextParts carries the metadata fields composed into a canonical
// embedding string.
type TextParts struct {
	Title       string
	Year        int
	Authors     []string
	Genres      []string
	Keywords    []string
	Description string
}

// BuildText composes a single deterministic string from item metadata.
// The same synthesis is used at profile build time and candidate scoring
// time so the resulting vectors are comparable.
func BuildText(p TextParts) string {
	parts := make([]string, 0, 6)

	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.Year > 0 {
		parts = append(parts, strconv.Itoa(p.Year))
	}
	if len(p.Authors) > 0 {
		parts = append(parts, strings.Join(p.Authors, ", "))
	}
	if len(p.Genres) > 0 {
		parts = append(parts, strings.Join(p.Genres, ", "))
	}
	if len(p.Keywords) > 0 {
		keywords := p.Keywords
		if len(keywords) > maxKeywords {
			keywords = keywords[:maxKeywords]
		}
		parts = append(parts, strings.Join(keywords, ", "))
	}
	if p.Description != "" {
		desc := p.Description
		if len(desc) > maxDescriptionLength {
			desc = desc[:maxDescriptionLength] + descriptionTruncation
		}
		parts = append(parts, desc)
	}

	return strings.Join(parts, textSeparator)
}
