// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pksync

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/models"
)

// passTimeout bounds one debounce-fired reconciliation pass. A pass
// blocked on the dispatcher longer than this leaves its intents queued
// for the next firing.
const passTimeout = 5 * time.Minute

// Controller is the engine's front door. Every component changing a
// FrontHistoryEntry goes through FrontChange, which records the intent
// and arms the debounce timer; nothing else may enqueue.
type Controller struct {
	queue      *Queue
	reconciler *Reconciler
	debouncer  *Debouncer
	log        zerolog.Logger
}

// NewController wires the queue, reconciler, and a debouncer with the
// given quiet window.
func NewController(queue *Queue, reconciler *Reconciler, window time.Duration) *Controller {
	c := &Controller{
		queue:      queue,
		reconciler: reconciler,
		log:        logging.With().Str("component", "pksync").Logger(),
	}
	c.debouncer = NewDebouncer(window, c.fire)
	return c
}

// FrontChange records a sync intent for a local front-history mutation
// and (re)arms the user's debounce timer. The intent type is derived
// from what happened: removed entries delete, changed entries update,
// anything else is an insert.
func (c *Controller) FrontChange(uid, token string, opts models.SyncOptions, live bool, entryID string, old, updated *models.FrontHistoryEntry, changed, removed bool) error {
	intentType := IntentInsert
	if removed {
		intentType = IntentDelete
	} else if changed {
		intentType = IntentUpdate
	}

	in := &Intent{
		UID:     uid,
		Token:   token,
		Options: opts,
		Type:    intentType,
		Live:    live,
		EntryID: entryID,
		Old:     old,
		New:     updated,
	}
	if err := c.queue.Add(in); err != nil {
		return err
	}
	c.debouncer.Schedule(uid)
	return nil
}

// Schedule arms the user's debounce timer without enqueueing anything,
// used to retry intents left queued by a failed pass.
func (c *Controller) Schedule(uid string) {
	c.debouncer.Schedule(uid)
}

func (c *Controller) fire(uid string) {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()
	if err := c.reconciler.Run(ctx, uid); err != nil {
		c.log.Warn().Err(err).Str("uid", uid).Msg("debounced reconciliation failed")
	}
}

// Close stops the debounce timers. Queued intents stay durable and are
// picked up after restart by the next Schedule call for their user.
func (c *Controller) Close() {
	c.debouncer.Close()
}
