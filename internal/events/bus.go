// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
)

// Bus is the in-process pub/sub carrying front-change events. All
// subscribers of a topic receive every message.
type Bus struct {
	pubsub *gochannel.GoChannel
	log    zerolog.Logger
}

// NewBus creates the bus. buffer bounds each subscriber's channel;
// publishes block once a subscriber falls that far behind.
func NewBus(buffer int64) *Bus {
	log := logging.With().Str("component", "events").Logger()
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: buffer,
		}, watermillLogger{log: log}),
		log: log,
	}
}

// PublishFrontChanged validates and publishes a front-change event.
func (b *Bus) PublishFrontChanged(e *FrontChanged) error {
	payload, err := e.Marshal()
	if err != nil {
		return fmt.Errorf("marshal front-change event: %w", err)
	}
	msg := message.NewMessage(e.EventID, payload)
	if err := b.pubsub.Publish(TopicFrontChanged, msg); err != nil {
		return fmt.Errorf("publish %s: %w", TopicFrontChanged, err)
	}
	metrics.EventsPublished.WithLabelValues(TopicFrontChanged).Inc()
	return nil
}

// Subscriber exposes the bus for router handler registration.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Close shuts the bus down; pending messages are dropped.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// watermillLogger adapts zerolog onto Watermill's logger interface.
// Watermill logs routine handler chatter at info, so it is demoted.
type watermillLogger struct {
	log zerolog.Logger
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(l.log.Error().Err(err), msg, fields)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), msg, fields)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(l.log.Debug(), msg, fields)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(l.log.Trace(), msg, fields)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	ctx := l.log.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return watermillLogger{log: ctx.Logger()}
}

func (l watermillLogger) event(ev *zerolog.Event, msg string, fields watermill.LogFields) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// Ensure the adapter satisfies the interface.
var _ watermill.LoggerAdapter = watermillLogger{}
