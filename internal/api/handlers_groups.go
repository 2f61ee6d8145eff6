// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plurapi/switchboard/internal/models"
)

// ListGroups returns all of the user's groups.
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	groups, err := h.store.Groups.ListByUser(id)
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(groups)
}

// GetGroup returns a single group.
func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	g, err := h.store.Groups.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "group")
		return
	}
	rw.Success(g)
}

// CreateGroup inserts a new group. Member ids must reference existing
// members.
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	var body groupBody
	if !decode(w, r, &body) {
		return
	}
	if !h.checkGroupMembers(rw, id, body.Members) {
		return
	}

	g := &models.Group{
		ID:      uuid.New().String(),
		UID:     id,
		Name:    body.Name,
		Desc:    body.Desc,
		Color:   body.Color,
		Emoji:   body.Emoji,
		Parent:  parentOrRoot(body.Parent),
		Members: body.Members,
	}
	if err := h.store.Groups.Insert(g); err != nil {
		rw.Internal(err)
		return
	}
	rw.Created(g)
}

// UpdateGroup applies a full-body update.
func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	g, err := h.store.Groups.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "group")
		return
	}

	var body groupBody
	if !decode(w, r, &body) {
		return
	}
	if body.Parent == g.ID {
		rw.BadRequest("a group cannot be its own parent")
		return
	}
	if !h.checkGroupMembers(rw, id, body.Members) {
		return
	}

	g.Name = body.Name
	g.Desc = body.Desc
	g.Color = body.Color
	g.Emoji = body.Emoji
	g.Parent = parentOrRoot(body.Parent)
	g.Members = body.Members

	if err := h.store.Groups.Update(g); err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(g)
}

// DeleteGroup removes a group. Children are reparented to root rather
// than deleted.
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	groupID := chi.URLParam(r, "id")
	if _, err := h.store.Groups.Get(id, groupID); err != nil {
		notFoundOr(rw, err, "group")
		return
	}

	groups, err := h.store.Groups.ListByUser(id)
	if err != nil {
		rw.Internal(err)
		return
	}
	for _, g := range groups {
		if g.Parent != groupID {
			continue
		}
		g.Parent = "root"
		if err := h.store.Groups.Update(g); err != nil {
			rw.Internal(err)
			return
		}
	}

	if err := h.store.Groups.Delete(id, groupID); err != nil {
		rw.Internal(err)
		return
	}
	rw.NoContent()
}

func (h *Handler) checkGroupMembers(rw *responseWriter, uid string, memberIDs []string) bool {
	for _, memberID := range memberIDs {
		if _, err := h.store.Members.Get(uid, memberID); err != nil {
			notFoundOr(rw, err, "member "+memberID)
			return false
		}
	}
	return true
}

func parentOrRoot(parent string) string {
	if parent == "" {
		return "root"
	}
	return parent
}
