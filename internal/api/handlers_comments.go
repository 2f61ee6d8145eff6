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

// ListComments returns the comments on a front history entry in
// insertion order.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	entryID := chi.URLParam(r, "id")
	if _, err := h.store.FrontHistory.Get(id, entryID); err != nil {
		notFoundOr(rw, err, "front history entry")
		return
	}

	comments, err := h.store.Comments.ListByDocument(id, entryID)
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(comments)
}

// CreateComment attaches a comment to a front history entry.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	entryID := chi.URLParam(r, "id")
	if _, err := h.store.FrontHistory.Get(id, entryID); err != nil {
		notFoundOr(rw, err, "front history entry")
		return
	}

	var body commentBody
	if !decode(w, r, &body) {
		return
	}

	comment := &models.Comment{
		ID:              uuid.New().String(),
		UID:             id,
		DocumentID:      entryID,
		Text:            body.Text,
		Time:            time.Now().UnixMilli(),
		SupportMarkdown: body.SupportMarkdown,
	}
	if err := h.store.Comments.Insert(comment); err != nil {
		rw.Internal(err)
		return
	}
	rw.Created(comment)
}

// DeleteComment removes one comment from an entry. Deleting a comment
// that is already gone is a no-op.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	entryID := chi.URLParam(r, "id")
	commentID := chi.URLParam(r, "commentId")
	if err := h.store.Comments.Delete(id, entryID, commentID); err != nil {
		rw.Internal(err)
		return
	}
	rw.NoContent()
}
