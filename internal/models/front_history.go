// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package models

import "time"

// FrontHistoryEntry records one interval during which a member (or a
// custom front) was fronting. Live entries have no end time yet.
type FrontHistoryEntry struct {
	ID  string `json:"id"`
	UID string `json:"uid"`

	// MemberID references a Member document, or a custom front document
	// when Custom is true.
	MemberID string `json:"member"`
	Custom   bool   `json:"custom"`

	Live      bool  `json:"live"`
	StartTime int64 `json:"startTime"`         // Unix millis
	EndTime   int64 `json:"endTime,omitempty"` // Unix millis, 0 while live

	CustomStatus string `json:"customStatus,omitempty"`

	// LastOperationTime orders concurrent writes to the same entry.
	// Mutations stamped earlier than the stored value are stale and
	// rejected.
	LastOperationTime int64 `json:"lastOperationTime,omitempty"` // Unix millis
}

// Start returns the start of the interval as a time.Time.
func (e *FrontHistoryEntry) Start() time.Time {
	return time.UnixMilli(e.StartTime).UTC()
}

// End returns the end of the interval as a time.Time. For live entries
// the zero time is returned.
func (e *FrontHistoryEntry) End() time.Time {
	if e.EndTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.EndTime).UTC()
}

// Contains reports whether t (Unix millis) falls inside the entry's
// interval. Live entries are open-ended on the right.
func (e *FrontHistoryEntry) Contains(t int64) bool {
	if t < e.StartTime {
		return false
	}
	return e.Live || t <= e.EndTime
}

// Fronter is the public projection of a live front entry, as returned by
// the fronters endpoint and WebSocket updates.
type Fronter struct {
	EntryID      string `json:"entryId"`
	MemberID     string `json:"member"`
	Custom       bool   `json:"custom"`
	StartTime    int64  `json:"startTime"`
	CustomStatus string `json:"customStatus,omitempty"`
}
