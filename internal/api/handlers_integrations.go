// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"errors"
	"net/http"

	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/pluralkit"
	"github.com/plurapi/switchboard/internal/store"
)

// integrationView is the integration document with the token redacted.
type integrationView struct {
	Linked      bool               `json:"linked"`
	SyncOptions models.SyncOptions `json:"syncOptions"`
}

// GetIntegration returns the user's PluralKit link state. The token is
// never echoed back.
func (h *Handler) GetIntegration(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	integ, err := h.store.Integrations.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		rw.Success(integrationView{})
		return
	}
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(integrationView{
		Linked:      integ.Token != "",
		SyncOptions: integ.SyncOptions,
	})
}

// SetIntegration stores a PluralKit token and sync options. The token
// is verified against PluralKit before being accepted.
func (h *Handler) SetIntegration(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	var body integrationBody
	if !decode(w, r, &body) {
		return
	}

	sess := h.pk.Session(body.Token)
	if _, err := sess.SystemID(r.Context()); err != nil {
		if errors.Is(err, pluralkit.ErrInvalidCredential) {
			rw.BadRequest("PluralKit rejected the token")
			return
		}
		if errors.Is(err, pluralkit.ErrRemoteUnavailable) || errors.Is(err, pluralkit.ErrDispatchTimeout) {
			rw.Error(http.StatusBadGateway, ErrCodeInternalError, "unable to reach PluralKit")
			return
		}
		rw.Internal(err)
		return
	}

	integ := &models.Integration{
		UID:         id,
		Token:       body.Token,
		SyncOptions: body.SyncOptions,
	}
	if err := h.store.Integrations.Upsert(integ); err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(integrationView{Linked: true, SyncOptions: integ.SyncOptions})
}

// DeleteIntegration unlinks PluralKit, dropping the stored token.
func (h *Handler) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	if err := h.store.Integrations.Delete(id); err != nil && !errors.Is(err, store.ErrNotFound) {
		rw.Internal(err)
		return
	}
	rw.NoContent()
}

// SyncMembersToPk pushes all local members to PluralKit synchronously,
// streaming progress over the websocket and returning the final result.
func (h *Handler) SyncMembersToPk(w http.ResponseWriter, r *http.Request) {
	h.syncMembers(w, r, "push")
}

// SyncMembersFromPk pulls PluralKit members into Switchboard.
func (h *Handler) SyncMembersFromPk(w http.ResponseWriter, r *http.Request) {
	h.syncMembers(w, r, "pull")
}

func (h *Handler) syncMembers(w http.ResponseWriter, r *http.Request, direction string) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	integ, err := h.store.Integrations.Get(id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && integ.Token == "") {
		rw.BadRequest("no PluralKit token is linked")
		return
	}
	if err != nil {
		rw.Internal(err)
		return
	}

	var body syncAllBody
	if !decode(w, r, &body) {
		return
	}

	sess := h.pk.Session(integ.Token)
	var result models.OperationResult
	switch direction {
	case "push":
		result = h.memberSync.SyncAllToPk(r.Context(), sess, id, integ.SyncOptions)
	default:
		result = h.memberSync.SyncAllFromPk(r.Context(), sess, id, integ.SyncOptions, models.SyncAllOptions{
			Overwrite:        body.Overwrite,
			Add:              body.Add,
			PrivateByDefault: body.PrivateByDefault,
		})
	}
	rw.Success(result)
}
