// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pluralkit

import "time"

// Switch is one entry in a system's fronting timeline. Timestamp marks
// when the fronters changed to Members; the switch lasts until the next
// (newer) switch's timestamp.
type Switch struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Members   []string  `json:"members"`
}

// HasMember reports whether the switch includes the given member id.
func (s *Switch) HasMember(id string) bool {
	for _, m := range s.Members {
		if m == id {
			return true
		}
	}
	return false
}

// System describes the remote system owning a token.
type System struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Tag         string `json:"tag,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Timezone    string `json:"tz,omitempty"`
}

// Member is a remote system member.
type Member struct {
	ID          string         `json:"id"`
	System      string         `json:"system,omitempty"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Color       string         `json:"color,omitempty"`
	Pronouns    string         `json:"pronouns,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	Description string         `json:"description,omitempty"`
	Privacy     *MemberPrivacy `json:"privacy,omitempty"`
}

// MemberPrivacy mirrors the remote per-field privacy switches.
type MemberPrivacy struct {
	Visibility     string `json:"visibility,omitempty"`
	NamePrivacy    string `json:"name_privacy,omitempty"`
	DescPrivacy    string `json:"description_privacy,omitempty"`
	AvatarPrivacy  string `json:"avatar_privacy,omitempty"`
	PronounPrivacy string `json:"pronoun_privacy,omitempty"`
}

// WriteMember is the payload for member create and update calls. Pointer
// fields distinguish "leave unchanged" (nil) from "clear" (empty string).
type WriteMember struct {
	Name        string  `json:"name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Color       *string `json:"color,omitempty"`
	Pronouns    *string `json:"pronouns,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Description *string `json:"description,omitempty"`
}

// writeSwitch is the payload for switch create calls.
type writeSwitch struct {
	Timestamp time.Time `json:"timestamp"`
	Members   []string  `json:"members"`
}

// switchMembersPatch is the payload for replacing a switch's member list.
type switchMembersPatch []string

// switchTimePatch is the payload for moving a switch's timestamp.
type switchTimePatch struct {
	Timestamp time.Time `json:"timestamp"`
}
