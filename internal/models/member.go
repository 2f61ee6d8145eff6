// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package models

// Member represents a system member belonging to a user account.
type Member struct {
	ID          string `json:"id"`
	UID         string `json:"uid"`
	Name        string `json:"name"`
	Description string `json:"desc,omitempty"`
	Pronouns    string `json:"pronouns,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Color       string `json:"color,omitempty"`

	// Private hides the member from non-trusted friends.
	// PreventTrusted additionally hides it from trusted friends.
	Private        bool `json:"private"`
	PreventTrusted bool `json:"preventTrusted"`

	// PreventsFrontNotifs suppresses friend notifications when this
	// member starts or stops fronting.
	PreventsFrontNotifs bool `json:"preventsFrontNotifs"`

	// PkID is the five-character PluralKit member id once the member has
	// been linked, empty otherwise.
	PkID string `json:"pkId,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"` // Unix millis
	UpdatedAt int64 `json:"updatedAt,omitempty"` // Unix millis
}

// Linked reports whether the member has a valid PluralKit id attached.
// PluralKit ids are always five characters.
func (m *Member) Linked() bool {
	return len(m.PkID) == 5
}
