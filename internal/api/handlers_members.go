// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plurapi/switchboard/internal/models"
)

// ListMembers returns all of the user's members.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	members, err := h.store.Members.ListByUser(id)
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(members)
}

// GetMember returns a single member.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	m, err := h.store.Members.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "member")
		return
	}
	rw.Success(m)
}

// CreateMember inserts a new member document.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	var body memberBody
	if !decode(w, r, &body) {
		return
	}

	now := time.Now().UnixMilli()
	m := &models.Member{
		ID:                  uuid.New().String(),
		UID:                 id,
		Name:                body.Name,
		Description:         body.Description,
		Pronouns:            body.Pronouns,
		AvatarURL:           body.AvatarURL,
		Color:               body.Color,
		Private:             body.Private,
		PreventTrusted:      body.PreventTrusted,
		PreventsFrontNotifs: body.PreventsFrontNotifs,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := h.store.Members.Insert(m); err != nil {
		rw.Internal(err)
		return
	}
	rw.Created(m)
}

// UpdateMember applies a full-body update. The PluralKit link and
// timestamps are preserved.
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	m, err := h.store.Members.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "member")
		return
	}

	var body memberBody
	if !decode(w, r, &body) {
		return
	}

	m.Name = body.Name
	m.Description = body.Description
	m.Pronouns = body.Pronouns
	m.AvatarURL = body.AvatarURL
	m.Color = body.Color
	m.Private = body.Private
	m.PreventTrusted = body.PreventTrusted
	m.PreventsFrontNotifs = body.PreventsFrontNotifs
	m.UpdatedAt = time.Now().UnixMilli()

	if err := h.store.Members.Update(m); err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(m)
}

// DeleteMember removes a member and its group references.
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	memberID := chi.URLParam(r, "id")
	if _, err := h.store.Members.Get(id, memberID); err != nil {
		notFoundOr(rw, err, "member")
		return
	}
	if err := h.store.Members.Delete(id, memberID); err != nil {
		rw.Internal(err)
		return
	}
	if err := h.store.Groups.RemoveMember(id, memberID); err != nil {
		rw.Internal(err)
		return
	}
	rw.NoContent()
}

// ListCustomFronts returns the user's custom front documents.
func (h *Handler) ListCustomFronts(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	fronts, err := h.store.FrontStatuses.ListByUser(id)
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(fronts)
}

// CreateCustomFront inserts a custom front document.
func (h *Handler) CreateCustomFront(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	var body frontStatusBody
	if !decode(w, r, &body) {
		return
	}

	now := time.Now().UnixMilli()
	fs := &models.FrontStatus{
		ID:             uuid.New().String(),
		UID:            id,
		Name:           body.Name,
		Private:        body.Private,
		PreventTrusted: body.PreventTrusted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.store.FrontStatuses.Insert(fs); err != nil {
		rw.Internal(err)
		return
	}
	rw.Created(fs)
}

// UpdateCustomFront applies a full-body update.
func (h *Handler) UpdateCustomFront(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	fs, err := h.store.FrontStatuses.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "custom front")
		return
	}

	var body frontStatusBody
	if !decode(w, r, &body) {
		return
	}

	fs.Name = body.Name
	fs.Private = body.Private
	fs.PreventTrusted = body.PreventTrusted
	fs.UpdatedAt = time.Now().UnixMilli()

	if err := h.store.FrontStatuses.Update(fs); err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(fs)
}

// DeleteCustomFront removes a custom front document.
func (h *Handler) DeleteCustomFront(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	frontID := chi.URLParam(r, "id")
	if _, err := h.store.FrontStatuses.Get(id, frontID); err != nil {
		notFoundOr(rw, err, "custom front")
		return
	}
	if err := h.store.FrontStatuses.Delete(id, frontID); err != nil {
		rw.Internal(err)
		return
	}
	rw.NoContent()
}
