// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package engine

import (
	"context"
	"math"
	"sort"

	"github.com/tomtom215/curatus/internal/logging"
	"github.com/tomtom215/curatus/internal/metrics"
)

// Short-video pipeline bounds.
const (
	shortsTopChannels    = 10
	shortsPerChannel     = 5
	shortsBaseScore      = 0.70
	shortsRatingWeight   = 0.10
	shortsCountWeight    = 0.02
	shortsMinChannelRate = 4
)

// channelStats aggregates the user's rated videos for one channel.
type channelStats struct {
	name  string
	count int
	sum   float64
}

func (s channelStats) avg() float64 {
	return s.sum / float64(s.count)
}

// engagement ranks channels by how much and how highly the user rates them.
func (s channelStats) engagement() float64 {
	return s.avg() * float64(s.count)
}

// score prices every backlog item surfaced from this channel.
func (s channelStats) score() float64 {
	return math.Min(shortsBaseScore+(s.avg()-4)*shortsRatingWeight+float64(s.count)*shortsCountWeight, maxScore)
}

// shortsPipeline surfaces the user's own to-consume backlog from their
// favorite channels. No external catalog is involved.
func (g *generation) shortsPipeline(ctx context.Context, media []MediaItem) []Candidate {
	excluded := g.excludedIDs(TypeShortVideo, nil)
	channels := favoriteChannels(media)

	var admitted []Candidate
	for _, ch := range channels {
		taken := 0
		for _, m := range media {
			if taken == shortsPerChannel {
				break
			}
			if m.Type != TypeShortVideo || m.Status != StatusToConsume || m.ChannelName != ch.name {
				continue
			}
			if m.ExternalID == "" {
				continue
			}
			if _, ex := excluded[m.ExternalID]; ex {
				continue
			}
			excluded[m.ExternalID] = struct{}{}
			admitted = append(admitted, Candidate{
				ExternalID:  m.ExternalID,
				Title:       m.Title,
				Year:        m.Year,
				Overview:    m.Description,
				PosterURL:   m.CoverURL,
				ExternalURL: m.ExternalURL,
				Source:      SourceFavoriteChannel,
				GenreName:   ch.name,
				Score:       ch.score(),
			})
			taken++
		}
	}

	logging.Ctx(ctx).Debug().
		Int("channels", len(channels)).
		Int("admitted", len(admitted)).
		Msg("short-video pipeline finished")
	metrics.RecommendationsEmitted.WithLabelValues(string(TypeShortVideo)).Add(float64(len(admitted)))
	return admitted
}

// favoriteChannels computes the top channels by engagement from the
// user's rated short videos, ties broken by channel name.
func favoriteChannels(media []MediaItem) []channelStats {
	byName := make(map[string]*channelStats)
	for _, m := range media {
		if m.Type != TypeShortVideo || m.Rating < shortsMinChannelRate || m.ChannelName == "" {
			continue
		}
		s := byName[m.ChannelName]
		if s == nil {
			s = &channelStats{name: m.ChannelName}
			byName[m.ChannelName] = s
		}
		s.count++
		s.sum += float64(m.Rating)
	}

	channels := make([]channelStats, 0, len(byName))
	for _, s := range byName {
		channels = append(channels, *s)
	}
	sort.Slice(channels, func(i, j int) bool {
		ei, ej := channels[i].engagement(), channels[j].engagement()
		if ei != ej {
			return ei > ej
		}
		return channels[i].name < channels[j].name
	})
	if len(channels) > shortsTopChannels {
		channels = channels[:shortsTopChannels]
	}
	return channels
}
