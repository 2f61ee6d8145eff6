// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package notify delivers user-facing notifications. Delivery is fire
// and forget; callers never block on or retry a notification.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
)

// Notifier delivers a notification to one user. Implementations must be
// safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, uid, title, message string) error
}

// LogNotifier writes notifications to the log. It stands in where no
// push transport is configured.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier returns a Notifier backed by the process log.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) Notify(_ context.Context, uid, title, message string) error {
	n.log.Info().Str("uid", uid).Str("title", title).Str("message", message).Msg("notification")
	return nil
}

// Multi fans a notification out to several transports. Errors are
// collected per transport by the caller's logger, not returned.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, uid, title, message string) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, uid, title, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}
