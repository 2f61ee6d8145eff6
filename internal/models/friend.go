// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package models

// Friend represents one direction of a friendship: the settings UID has
// granted FriendUID.
type Friend struct {
	UID       string `json:"uid"`
	FriendUID string `json:"friendUid"`

	// SeeMembers and SeeFront control what the friend can read.
	// Trusted additionally exposes members marked Private (but not
	// PreventTrusted).
	SeeMembers bool `json:"seeMembers"`
	SeeFront   bool `json:"seeFront"`
	Trusted    bool `json:"trusted"`

	// GetFrontNotif delivers a notification to the friend whenever this
	// user's fronters change.
	GetFrontNotif bool `json:"getFrontNotif"`
}

// FriendRequest is a pending friendship offer.
type FriendRequest struct {
	ID        string `json:"id"`
	UID       string `json:"uid"`      // sender
	Receiver  string `json:"receiver"` // receiver uid
	Message   string `json:"message,omitempty"`
	CreatedAt int64  `json:"createdAt"` // Unix millis
	Settings  Friend `json:"settings"`  // settings applied on accept
}
