// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package events

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/pksync"
	"github.com/plurapi/switchboard/internal/store"
)

// Intake feeds front-change events into the PluralKit sync engine. It is
// the sole caller of the sync controller: users without a stored token
// are filtered here, so nothing downstream needs to know whether a user
// linked PluralKit.
type Intake struct {
	store      *store.Store
	controller *pksync.Controller
	log        zerolog.Logger
}

// NewIntake builds the intake handler.
func NewIntake(st *store.Store, controller *pksync.Controller) *Intake {
	return &Intake{
		store:      st,
		controller: controller,
		log:        logging.With().Str("component", "events").Str("handler", "pksync-intake").Logger(),
	}
}

// Register attaches the handler to the router.
func (h *Intake) Register(r *Router) {
	r.Handle("pksync-intake", TopicFrontChanged, h.handle)
}

func (h *Intake) handle(msg *message.Message) error {
	e, err := UnmarshalFrontChanged(msg.Payload)
	if err != nil {
		// Malformed payloads never become valid on retry.
		h.log.Error().Err(err).Str("msg_id", msg.UUID).Msg("dropping undecodable front-change event")
		return nil
	}
	if err := e.Validate(); err != nil {
		h.log.Error().Err(err).Str("msg_id", msg.UUID).Msg("dropping malformed front-change event")
		return nil
	}

	integ, err := h.store.Integrations.Get(e.UID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if integ.Token == "" {
		return nil
	}

	return h.controller.FrontChange(e.UID, integ.Token, integ.SyncOptions,
		e.Live, e.EntryID, e.Old, e.New, e.Changed, e.Removed)
}
