// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pksync

import (
	"sync"
	"time"

	"github.com/plurapi/switchboard/internal/metrics"
)

// Debouncer coalesces bursts of local front edits into a single firing
// per user. Schedule re-arms a per-user timer; the callback runs only
// after the quiet window elapses with no further scheduling for that
// user, so N rapid edits cost one reconciliation pass.
type Debouncer struct {
	window time.Duration
	fire   func(uid string)

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// NewDebouncer builds a debouncer with the given quiet window. fire is
// invoked on the timer's goroutine once per elapsed window.
func NewDebouncer(window time.Duration, fire func(uid string)) *Debouncer {
	return &Debouncer{
		window: window,
		fire:   fire,
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms (or re-arms, last call wins) the user's timer.
func (d *Debouncer) Schedule(uid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if t, ok := d.timers[uid]; ok {
		t.Reset(d.window)
		metrics.ReconcileDebounceResets.Inc()
		return
	}
	d.timers[uid] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, uid)
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			d.fire(uid)
		}
	})
}

// Pending reports whether a firing is currently armed for uid.
func (d *Debouncer) Pending(uid string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[uid]
	return ok
}

// Close stops all armed timers. Timers that already fired may still run
// their callback.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for uid, t := range d.timers {
		t.Stop()
		delete(d.timers, uid)
	}
}
