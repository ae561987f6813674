// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

// Step identifies a generation milestone for progress consumers.
type Step string

const (
	// StepProfile covers taste-profile construction.
	StepProfile Step = "profile"
	// StepFilms covers the film pipeline.
	StepFilms Step = "films"
	// StepSeries covers the series pipeline.
	StepSeries Step = "series"
	// StepBooks covers the book pipeline.
	StepBooks Step = "books"
	// StepYouTube covers the short-video pipeline.
	StepYouTube Step = "youtube"
	// StepSaving covers the database commit.
	StepSaving Step = "saving"
	// StepDone is the successful terminal milestone.
	StepDone Step = "done"
	// StepError is the failure terminal milestone.
	StepError Step = "error"
)

// ProgressEvent is one milestone in a generation run. Events form a
// finite, non-restartable sequence; progress and count are monotonically
// non-decreasing and the final event always has Progress == 100.
type ProgressEvent struct {
	Progress int    `json:"progress"`
	Status   string `json:"status"`
	Step     Step   `json:"step"`
	Count    int    `json:"count"`
}

// Milestone schedule for a generation run. Declared in one place so the
// streaming contract is auditable at a glance.
const (
	progressProfileStart = 5
	progressProfileEnd   = 10
	progressFilmsStart   = 15
	progressFilmsEnd     = 35
	progressSeriesStart  = 40
	progressSeriesEnd    = 55
	progressBooksStart   = 60
	progressBooksEnd     = 80
	progressShortsStart  = 82
	progressShortsEnd    = 90
	progressSaving       = 92
	progressDone         = 100
)

// stepForType maps a media type to its progress step.
func stepForType(mt MediaType) Step {
	switch mt {
	case TypeFilm:
		return StepFilms
	case TypeSeries:
		return StepSeries
	case TypeBook:
		return StepBooks
	case TypeShortVideo:
		return StepYouTube
	default:
		return StepProfile
	}
}

// milestonesForType returns the start and end progress for a media type.
func milestonesForType(mt MediaType) (start, end int) {
	switch mt {
	case TypeFilm:
		return progressFilmsStart, progressFilmsEnd
	case TypeSeries:
		return progressSeriesStart, progressSeriesEnd
	case TypeBook:
		return progressBooksStart, progressBooksEnd
	case TypeShortVideo:
		return progressShortsStart, progressShortsEnd
	default:
		return progressProfileStart, progressProfileEnd
	}
}
