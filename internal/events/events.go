// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package events carries local front-change events over an in-process
// Watermill bus. Every component that mutates a FrontHistoryEntry
// publishes a front.changed message; the subscribers record the
// PluralKit sync intent, recompute the fronter summaries, and fan out
// friend notifications. Publishing is the only way a mutation reaches
// the sync engine.
package events

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/plurapi/switchboard/internal/models"
)

// TopicFrontChanged is the subject front-change events are published on.
const TopicFrontChanged = "front.changed"

// FrontChanged describes one mutation of a front-history entry. Old and
// New are snapshots taken around the mutation: inserts carry New,
// updates carry both, removals carry Old.
type FrontChanged struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`

	UID     string `json:"uid"`
	EntryID string `json:"entry_id"`
	Live    bool   `json:"live"`
	Custom  bool   `json:"custom"`

	Changed bool `json:"changed"`
	Removed bool `json:"removed"`

	Old *models.FrontHistoryEntry `json:"old,omitempty"`
	New *models.FrontHistoryEntry `json:"new,omitempty"`

	// NotifyReminders gates friend notifications for this change.
	// Imports and backfills set it false.
	NotifyReminders bool `json:"notify_reminders"`
}

// NewFrontChanged stamps a front-change event with an id and timestamp.
func NewFrontChanged(uid, entryID string) *FrontChanged {
	return &FrontChanged{
		EventID:         uuid.New().String(),
		Timestamp:       time.Now().UTC(),
		UID:             uid,
		EntryID:         entryID,
		NotifyReminders: true,
	}
}

// Validate checks that the event is well formed for its kind.
func (e *FrontChanged) Validate() error {
	if e.UID == "" {
		return &ValidationError{Field: "uid", Message: "required"}
	}
	if e.EntryID == "" {
		return &ValidationError{Field: "entry_id", Message: "required"}
	}
	switch {
	case e.Removed:
		if e.Old == nil {
			return &ValidationError{Field: "old", Message: "required for removal"}
		}
	case e.Changed:
		if e.Old == nil || e.New == nil {
			return &ValidationError{Field: "old/new", Message: "required for change"}
		}
	default:
		if e.New == nil {
			return &ValidationError{Field: "new", Message: "required for insert"}
		}
	}
	return nil
}

// Marshal encodes the event for the bus, validating it first.
func (e *FrontChanged) Marshal() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// UnmarshalFrontChanged decodes a bus payload.
func UnmarshalFrontChanged(data []byte) (*FrontChanged, error) {
	var e FrontChanged
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ValidationError reports a malformed event field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
