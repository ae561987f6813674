// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

// Package events carries in-process notifications between the engine and
// interested consumers over a Watermill gochannel pub/sub.
package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"

	"github.com/tomtom215/curatus/internal/engine"
	"github.com/tomtom215/curatus/internal/logging"
)

// TopicGenerationCompleted carries one message per committed generation.
const TopicGenerationCompleted = "recommendation.generated"

// Bus is an in-process pub/sub for engine events. Publishing never
// blocks generation; delivery is best effort within the process.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// NewBus creates the in-process event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermillLogger{}),
	}
}

// GenerationCompleted publishes a generation event. Failures are logged,
// never propagated: the slate is already committed by the time this runs.
func (b *Bus) GenerationCompleted(ctx context.Context, ev engine.GenerationEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to encode generation event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicGenerationCompleted, msg); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to publish generation event")
	}
}

// SubscribeGenerated returns a channel of generation-completed messages.
// The subscription ends when ctx is cancelled.
func (b *Bus) SubscribeGenerated(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicGenerationCompleted)
}

// DecodeGenerationEvent unmarshals a bus message payload.
func DecodeGenerationEvent(msg *message.Message) (engine.GenerationEvent, error) {
	var ev engine.GenerationEvent
	err := json.Unmarshal(msg.Payload, &ev)
	return ev, err
}

// Close shuts the bus down, closing all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger routes Watermill's internal logging into zerolog.
type watermillLogger struct {
	fields watermill.LogFields
}

func (l watermillLogger) event(err error, msg string, fields watermill.LogFields, level string) {
	ev := logging.With().Str("component", "events").Logger()
	e := ev.Debug()
	switch level {
	case "error":
		e = ev.Error()
	case "info":
		e = ev.Info()
	}
	if err != nil {
		e = e.Err(err)
	}
	for k, v := range l.fields.Add(fields) {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(err, msg, fields, "error")
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(nil, msg, fields, "info")
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(nil, msg, fields, "debug")
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(nil, msg, fields, "debug")
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{fields: l.fields.Add(fields)}
}
