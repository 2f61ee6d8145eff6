// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package pksync implements the PluralKit reconciliation engine: a
// durable per-user queue of sync intents fed by local front-history
// mutations, a debounce controller that coalesces bursts of edits, and
// a reconciler that diffs local state against the remote switch
// timeline and issues the minimal corrective operations.
package pksync

import (
	"errors"
	"fmt"

	"github.com/plurapi/switchboard/internal/models"
)

// IntentType classifies what happened to the local front-history entry.
type IntentType string

const (
	IntentInsert IntentType = "insert"
	IntentUpdate IntentType = "update"
	IntentDelete IntentType = "delete"
)

// Intent is one queued reconciliation unit. Which snapshots are present
// depends on the type: an insert carries only New, an update carries Old
// and New, a delete carries only Old.
type Intent struct {
	ID  string `json:"id"`
	UID string `json:"uid"`

	// Token is the user's PluralKit token at enqueue time. Intents are
	// swept after a retention window so stale tokens are not held
	// indefinitely.
	Token   string             `json:"token"`
	Options models.SyncOptions `json:"options"`

	Type    IntentType `json:"type"`
	Live    bool       `json:"live"`
	EntryID string     `json:"entryId"`

	Old *models.FrontHistoryEntry `json:"old,omitempty"`
	New *models.FrontHistoryEntry `json:"new,omitempty"`

	CreatedAt  int64 `json:"createdAt"`  // Unix millis
	EnqueuedAt int64 `json:"enqueuedAt"` // Unix nanos, orders the queue
}

// Validate checks the intent's shape against its type.
func (in *Intent) Validate() error {
	if in.UID == "" {
		return errors.New("intent missing uid")
	}
	if in.Token == "" {
		return errors.New("intent missing token")
	}
	switch in.Type {
	case IntentInsert:
		if in.New == nil {
			return errors.New("insert intent missing new snapshot")
		}
	case IntentUpdate:
		if in.Old == nil || in.New == nil {
			return errors.New("update intent missing old or new snapshot")
		}
	case IntentDelete:
		if in.Old == nil {
			return errors.New("delete intent missing old snapshot")
		}
	default:
		return fmt.Errorf("unknown intent type %q", in.Type)
	}
	return nil
}

// memberIDs returns the local member ids the intent references, skipping
// custom-front snapshots, which have no remote counterpart.
func (in *Intent) memberIDs() []string {
	seen := make(map[string]bool, 2)
	var out []string
	for _, e := range []*models.FrontHistoryEntry{in.Old, in.New} {
		if e == nil || e.Custom || e.MemberID == "" {
			continue
		}
		if !seen[e.MemberID] {
			seen[e.MemberID] = true
			out = append(out, e.MemberID)
		}
	}
	return out
}

// custom reports whether every snapshot on the intent points at a custom
// front. Custom fronts are tracked locally only and never reconciled.
func (in *Intent) custom() bool {
	for _, e := range []*models.FrontHistoryEntry{in.Old, in.New} {
		if e != nil && !e.Custom {
			return false
		}
	}
	return true
}
