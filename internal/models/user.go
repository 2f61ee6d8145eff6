// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package models

// User represents an account holding a system.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Desc     string `json:"desc,omitempty"`

	// FrontString and CustomFrontString summarize who is currently
	// fronting, recomputed on every front change. The private variants
	// include members hidden from friends.
	FrontString              string `json:"frontString,omitempty"`
	CustomFrontString        string `json:"customFrontString,omitempty"`
	PrivateFrontString       string `json:"privateFrontString,omitempty"`
	PrivateCustomFrontString string `json:"privateCustomFrontString,omitempty"`
}

// Integration holds a user's PluralKit link: the API token and the
// per-field sync options.
type Integration struct {
	UID string `json:"uid"`

	// Token is the raw PluralKit API token, sent as the Authorization
	// header on dispatched requests.
	Token string `json:"token,omitempty"`

	SyncOptions SyncOptions `json:"syncOptions"`
}

// SyncAllOptions controls a bulk member sync run.
type SyncAllOptions struct {
	// Overwrite updates members that already exist on the receiving side.
	Overwrite bool `json:"overwrite"`
	// Add creates members missing on the receiving side.
	Add bool `json:"add"`

	PrivateByDefault bool `json:"privateByDefault"`
}

// SyncOptions selects which member fields are synced with PluralKit and
// how pulled members are created.
type SyncOptions struct {
	Name        bool `json:"name"`
	Avatar      bool `json:"avatar"`
	Pronouns    bool `json:"pronouns"`
	Description bool `json:"description"`
	Color       bool `json:"color"`

	// UseDisplayName prefers a PluralKit member's display_name over its
	// name when pulling members into Switchboard.
	UseDisplayName bool `json:"useDisplayName"`

	// PrivateByDefault marks members created by a pull as private.
	PrivateByDefault bool `json:"privateByDefault"`
}
