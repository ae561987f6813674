// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package embedding wraps a sentence-embedding model behind a small service
// with a CPU-offload worker pool, a persistent vector cache, and the vector
// math the recommendation engine needs.
//
// All vectors handled by this package are L2-normalized, so cosine
// similarity reduces to a dot product.
package embedding

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidDimension indicates two vectors of different lengths were compared.
var ErrInvalidDimension = errors.New("embedding: vectors have different dimensions")

// Normalize scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Similarity returns the dot product of two normalized vectors, which for
// unit vectors equals their cosine similarity.
func Similarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrInvalidDimension, len(a), len(b))
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// IDVector pairs an identifier with a normalized vector.
type IDVector struct {
	ID     string
	Vector []float32
}

// Match is a scored result from TopKSimilar.
type Match struct {
	ID    string
	Score float64
}

// TopKSimilar scores every candidate against the query vector, keeps those
// with score >= minSim, sorts descending (ties broken by ID for
// determinism), and truncates to k.
func TopKSimilar(query []float32, candidates []IDVector, k int, minSim float64) ([]Match, error) {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score, err := Similarity(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		if score >= minSim {
			matches = append(matches, Match{ID: c.ID, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if k >= 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// RatedVector pairs a normalized vector with an optional 1..5 rating.
// Rating 0 means absent.
type RatedVector struct {
	Vector []float32
	Rating int
}

// ProfileCentroid computes the weighted average of the given vectors and
// L2-normalizes the result.
//
// Ratings map to weights spanning [0.2, 1.0]: w = ((r-1)/4)*0.8 + 0.2.
// An absent rating weighs 0.5. Weights are normalized to sum to 1 before
// averaging. Returns nil for an empty input.
func ProfileCentroid(pairs []RatedVector) []float32 {
	if len(pairs) == 0 {
		return nil
	}

	weights := make([]float64, len(pairs))
	var total float64
	for i, p := range pairs {
		w := 0.5
		if p.Rating >= 1 && p.Rating <= 5 {
			w = (float64(p.Rating-1)/4.0)*0.8 + 0.2
		}
		weights[i] = w
		total += w
	}
	if total == 0 {
		return nil
	}

	dim := len(pairs[0].Vector)
	acc := make([]float64, dim)
	for i, p := range pairs {
		w := weights[i] / total
		for j, x := range p.Vector {
			if j < dim {
				acc[j] += w * float64(x)
			}
		}
	}

	out := make([]float32, dim)
	for i, x := range acc {
		out[i] = float32(x)
	}
	return Normalize(out)
}
