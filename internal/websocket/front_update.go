// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package websocket

import (
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/plurapi/switchboard/internal/events"
	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/store"
)

// FrontUpdatePusher pushes the current fronter list to a user's open
// connections whenever their front changes.
type FrontUpdatePusher struct {
	hub   *Hub
	store *store.Store
}

// NewFrontUpdatePusher builds the pusher.
func NewFrontUpdatePusher(hub *Hub, st *store.Store) *FrontUpdatePusher {
	return &FrontUpdatePusher{hub: hub, store: st}
}

// Register attaches the pusher to the event router.
func (p *FrontUpdatePusher) Register(r *events.Router) {
	r.Handle("ws-front-update", events.TopicFrontChanged, p.handle)
}

func (p *FrontUpdatePusher) handle(msg *message.Message) error {
	e, err := events.UnmarshalFrontChanged(msg.Payload)
	if err != nil {
		logging.Error().Err(err).Str("msg_id", msg.UUID).Msg("dropping undecodable front-change event")
		return nil
	}
	if p.hub.UserClientCount(e.UID) == 0 {
		return nil
	}

	live, err := p.store.FrontHistory.LiveEntries(e.UID)
	if err != nil {
		return err
	}
	fronters := make([]models.Fronter, 0, len(live))
	for _, entry := range live {
		fronters = append(fronters, models.Fronter{
			EntryID:      entry.ID,
			MemberID:     entry.MemberID,
			Custom:       entry.Custom,
			StartTime:    entry.StartTime,
			CustomStatus: entry.CustomStatus,
		})
	}
	p.hub.SendToUser(e.UID, MessageTypeFrontUpdate, fronters)
	return nil
}
