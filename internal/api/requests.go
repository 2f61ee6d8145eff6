// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import "github.com/plurapi/switchboard/internal/models"

// Request bodies for the mutating endpoints. Validation tags mirror the
// limits enforced when pushing to PluralKit so local documents never
// need truncation on sync.

type frontHistoryBody struct {
	MemberID     string `json:"member" validate:"required"`
	Custom       bool   `json:"custom"`
	Live         bool   `json:"live"`
	StartTime    int64  `json:"startTime" validate:"required,min=1"`
	EndTime      int64  `json:"endTime" validate:"omitempty,min=1"`
	CustomStatus string `json:"customStatus" validate:"max=200"`
}

type memberBody struct {
	Name                string `json:"name" validate:"required,max=100"`
	Description         string `json:"desc" validate:"max=1000"`
	Pronouns            string `json:"pronouns" validate:"max=100"`
	AvatarURL           string `json:"avatarUrl" validate:"omitempty,url,max=256"`
	Color               string `json:"color" validate:"omitempty,hexcolor"`
	Private             bool   `json:"private"`
	PreventTrusted      bool   `json:"preventTrusted"`
	PreventsFrontNotifs bool   `json:"preventsFrontNotifs"`
}

type commentBody struct {
	Text            string `json:"text" validate:"required,max=2000"`
	SupportMarkdown bool   `json:"supportMarkdown"`
}

type frontStatusBody struct {
	Name           string `json:"name" validate:"required,max=100"`
	Private        bool   `json:"private"`
	PreventTrusted bool   `json:"preventTrusted"`
}

type groupBody struct {
	Name    string   `json:"name" validate:"required,max=100"`
	Desc    string   `json:"desc" validate:"max=1000"`
	Color   string   `json:"color" validate:"omitempty,hexcolor"`
	Emoji   string   `json:"emoji" validate:"max=16"`
	Parent  string   `json:"parent"`
	Members []string `json:"members"`
}

type friendSettingsBody struct {
	SeeMembers    bool `json:"seeMembers"`
	SeeFront      bool `json:"seeFront"`
	Trusted       bool `json:"trusted"`
	GetFrontNotif bool `json:"getFrontNotif"`
}

type friendRequestBody struct {
	Receiver string             `json:"receiver" validate:"required"`
	Message  string             `json:"message" validate:"max=500"`
	Settings friendSettingsBody `json:"settings"`
}

type integrationBody struct {
	Token       string             `json:"token" validate:"required,min=32"`
	SyncOptions models.SyncOptions `json:"syncOptions"`
}

type syncAllBody struct {
	Overwrite        bool `json:"overwrite"`
	Add              bool `json:"add"`
	PrivateByDefault bool `json:"privateByDefault"`
}
