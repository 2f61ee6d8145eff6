// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/store"
)

// ListFriends returns the friendships the user has granted.
func (h *Handler) ListFriends(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	friends, err := h.store.Friends.ListByUser(id)
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(friends)
}

// UpdateFriendSettings updates what an existing friend may see.
func (h *Handler) UpdateFriendSettings(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	friendUID := chi.URLParam(r, "uid")
	f, err := h.store.Friends.Get(id, friendUID)
	if err != nil {
		notFoundOr(rw, err, "friend")
		return
	}

	var body friendSettingsBody
	if !decode(w, r, &body) {
		return
	}

	f.SeeMembers = body.SeeMembers
	f.SeeFront = body.SeeFront
	f.Trusted = body.Trusted
	f.GetFrontNotif = body.GetFrontNotif

	if err := h.store.Friends.Upsert(f); err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(f)
}

// RemoveFriend deletes both directions of a friendship.
func (h *Handler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	friendUID := chi.URLParam(r, "uid")
	if _, err := h.store.Friends.Get(id, friendUID); err != nil {
		notFoundOr(rw, err, "friend")
		return
	}
	if err := h.store.Friends.Delete(id, friendUID); err != nil {
		rw.Internal(err)
		return
	}
	rw.NoContent()
}

// ListFriendRequests returns the pending requests addressed to the user.
func (h *Handler) ListFriendRequests(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	requests, err := h.store.Friends.ListRequests(id)
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(requests)
}

// SendFriendRequest creates a pending request for another user.
func (h *Handler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	var body friendRequestBody
	if !decode(w, r, &body) {
		return
	}
	if body.Receiver == id {
		rw.BadRequest("cannot send a friend request to yourself")
		return
	}
	if _, err := h.store.Users.Get(body.Receiver); err != nil {
		notFoundOr(rw, err, "receiver")
		return
	}
	if _, err := h.store.Friends.Get(id, body.Receiver); err == nil {
		rw.Error(http.StatusConflict, ErrCodeConflict, "already friends")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		rw.Internal(err)
		return
	}

	req := &models.FriendRequest{
		ID:        uuid.New().String(),
		UID:       id,
		Receiver:  body.Receiver,
		Message:   body.Message,
		CreatedAt: time.Now().UnixMilli(),
		Settings: models.Friend{
			UID:           id,
			FriendUID:     body.Receiver,
			SeeMembers:    body.Settings.SeeMembers,
			SeeFront:      body.Settings.SeeFront,
			Trusted:       body.Settings.Trusted,
			GetFrontNotif: body.Settings.GetFrontNotif,
		},
	}
	if err := h.store.Friends.InsertRequest(req); err != nil {
		rw.Internal(err)
		return
	}
	rw.Created(req)
}

// AcceptFriendRequest turns a pending request into a two-way
// friendship. The sender's settings come from the request; the
// accepter's direction starts from the submitted body.
func (h *Handler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	req, err := h.store.Friends.GetRequest(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "friend request")
		return
	}

	var body friendSettingsBody
	if !decode(w, r, &body) {
		return
	}

	sender := req.Settings
	accepter := models.Friend{
		UID:           id,
		FriendUID:     req.UID,
		SeeMembers:    body.SeeMembers,
		SeeFront:      body.SeeFront,
		Trusted:       body.Trusted,
		GetFrontNotif: body.GetFrontNotif,
	}

	if err := h.store.Friends.Upsert(&sender); err != nil {
		rw.Internal(err)
		return
	}
	if err := h.store.Friends.Upsert(&accepter); err != nil {
		rw.Internal(err)
		return
	}
	if err := h.store.Friends.DeleteRequest(id, req.ID); err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(accepter)
}

// DeclineFriendRequest drops a pending request.
func (h *Handler) DeclineFriendRequest(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	reqID := chi.URLParam(r, "id")
	if _, err := h.store.Friends.GetRequest(id, reqID); err != nil {
		notFoundOr(rw, err, "friend request")
		return
	}
	if err := h.store.Friends.DeleteRequest(id, reqID); err != nil {
		rw.Internal(err)
		return
	}
	rw.NoContent()
}
