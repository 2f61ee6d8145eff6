// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package models

import (
	"testing"
	"time"
)

func TestMemberLinked(t *testing.T) {
	tests := []struct {
		name string
		pkID string
		want bool
	}{
		{"empty", "", false},
		{"valid five chars", "abcde", true},
		{"too short", "abcd", false},
		{"too long", "abcdef", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Member{PkID: tt.pkID}
			if got := m.Linked(); got != tt.want {
				t.Errorf("Linked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFrontHistoryEntryContains(t *testing.T) {
	closed := &FrontHistoryEntry{StartTime: 1000, EndTime: 2000}
	live := &FrontHistoryEntry{StartTime: 1000, Live: true}

	tests := []struct {
		name  string
		entry *FrontHistoryEntry
		t     int64
		want  bool
	}{
		{"before start", closed, 999, false},
		{"at start", closed, 1000, true},
		{"inside", closed, 1500, true},
		{"at end", closed, 2000, true},
		{"after end", closed, 2001, false},
		{"live before start", live, 999, false},
		{"live far future", live, 1 << 50, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestFrontHistoryEntryTimes(t *testing.T) {
	e := &FrontHistoryEntry{StartTime: 1700000000000, EndTime: 1700000100000}
	if got := e.Start(); !got.Equal(time.UnixMilli(1700000000000)) {
		t.Errorf("Start() = %v", got)
	}
	if got := e.End(); !got.Equal(time.UnixMilli(1700000100000)) {
		t.Errorf("End() = %v", got)
	}

	live := &FrontHistoryEntry{StartTime: 1700000000000, Live: true}
	if got := live.End(); !got.IsZero() {
		t.Errorf("live End() = %v, want zero time", got)
	}
}
