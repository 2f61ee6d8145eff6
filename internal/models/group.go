// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package models

// Group organizes members into a user-defined hierarchy.
type Group struct {
	ID    string `json:"id"`
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Desc  string `json:"desc,omitempty"`
	Color string `json:"color,omitempty"`
	Emoji string `json:"emoji,omitempty"`

	// Parent is the id of the containing group, or "root".
	Parent string `json:"parent"`

	// Members lists member ids contained directly in this group.
	Members []string `json:"members"`

	Private        bool `json:"private"`
	PreventTrusted bool `json:"preventTrusted"`
}

// Comment is a note attached to a front history entry.
type Comment struct {
	ID              string `json:"id"`
	UID             string `json:"uid"`
	DocumentID      string `json:"documentId"`
	Text            string `json:"text"`
	Time            int64  `json:"time"` // Unix millis
	SupportMarkdown bool   `json:"supportMarkdown,omitempty"`
}
