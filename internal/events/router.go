// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
)

// RouterConfig tunes the event router's middleware.
type RouterConfig struct {
	CloseTimeout time.Duration

	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64
}

// DefaultRouterConfig returns production defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: time.Second,
		RetryMaxInterval:     30 * time.Second,
		RetryMultiplier:      2.0,
	}
}

// Router dispatches bus messages to handlers with panic recovery and
// exponential-backoff retry. It runs as a supervised service.
type Router struct {
	router *message.Router
	bus    *Bus
	log    zerolog.Logger
}

// NewRouter builds the router over the given bus.
func NewRouter(cfg RouterConfig, bus *Bus) (*Router, error) {
	log := logging.With().Str("component", "events").Logger()

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, watermillLogger{log: log})
	if err != nil {
		return nil, fmt.Errorf("create event router: %w", err)
	}

	wmRouter.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      cfg.RetryMaxRetries,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		Multiplier:      cfg.RetryMultiplier,
		Logger:          watermillLogger{log: log},
	}
	wmRouter.AddMiddleware(retry.Middleware)

	return &Router{router: wmRouter, bus: bus, log: log}, nil
}

// Handle registers a consumer for a topic. The handler name labels
// metrics and log lines.
func (r *Router) Handle(name, topic string, handler message.NoPublishHandlerFunc) {
	wrapped := func(msg *message.Message) error {
		err := handler(msg)
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.EventsHandled.WithLabelValues(topic, name, result).Inc()
		return err
	}
	r.router.AddConsumerHandler(name, topic, r.bus.Subscriber(), wrapped)
}

// Serve runs the router until ctx is canceled. It satisfies the suture
// service interface.
func (r *Router) Serve(ctx context.Context) error {
	return r.router.Run(ctx)
}

func (r *Router) String() string {
	return "event-router"
}

// Running returns a channel that closes once all handlers are consuming,
// used by tests to avoid publishing into the void.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close stops the router, waiting up to CloseTimeout for in-flight
// handlers.
func (r *Router) Close() error {
	return r.router.Close()
}
