// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package models

// FrontStatus is a custom front: a named state (blurry, co-conscious, a
// non-member headspace state) that can occupy a front slot the way a
// member does. Custom fronts never sync to PluralKit.
type FrontStatus struct {
	ID   string `json:"id"`
	UID  string `json:"uid"`
	Name string `json:"name"`

	Private        bool `json:"private"`
	PreventTrusted bool `json:"preventTrusted"`

	CreatedAt int64 `json:"createdAt"` // Unix millis
	UpdatedAt int64 `json:"updatedAt"` // Unix millis
}

// FrontSummary is the computed fronter roster for one visibility tier,
// recomputed on every front change. The shared tier lists only public
// fronters; the private tier adds fronters visible to trusted friends.
type FrontSummary struct {
	UID     string `json:"uid"`
	Private bool   `json:"private"`

	Fronters       []string `json:"fronters"`       // member names
	CustomFronters []string `json:"customFronters"` // custom front names

	FrontString             string `json:"frontString"`
	CustomFrontString       string `json:"customFrontString"`
	FrontNotificationString string `json:"frontNotificationString"`

	// NotifiedFrontString and NotifiedCustomFrontString hold the strings
	// as of the last friend notification, for change detection.
	NotifiedFrontString       string `json:"notifiedFrontString,omitempty"`
	NotifiedCustomFrontString string `json:"notifiedCustomFrontString,omitempty"`
}

// Changed reports whether the roster differs from what friends were last
// notified about.
func (s *FrontSummary) Changed() bool {
	return s.NotifiedFrontString != s.FrontNotificationString ||
		s.NotifiedCustomFrontString != s.CustomFrontString
}
