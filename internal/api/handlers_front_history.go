// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/plurapi/switchboard/internal/events"
	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/models"
)

// publishFrontChange hands a mutation to the event bus. The document
// write already succeeded, so a publish failure is logged rather than
// surfaced to the client.
func (h *Handler) publishFrontChange(e *events.FrontChanged) {
	if err := h.bus.PublishFrontChanged(e); err != nil {
		logging.Err(err).Str("uid", e.UID).Str("entry", e.EntryID).
			Msg("failed to publish front change")
	}
}

// ListFrontHistory returns a user's entries, optionally bounded to a
// time range with ?start=<ms>&end=<ms>.
func (h *Handler) ListFrontHistory(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	if q.Has("start") || q.Has("end") {
		start, err1 := strconv.ParseInt(q.Get("start"), 10, 64)
		end, err2 := strconv.ParseInt(q.Get("end"), 10, 64)
		if err1 != nil || err2 != nil || end < start {
			rw.BadRequest("start and end must be millisecond timestamps with start <= end")
			return
		}
		entries, err := h.store.FrontHistory.ListRange(id, start, end)
		if err != nil {
			rw.Internal(err)
			return
		}
		rw.Success(entries)
		return
	}

	entries, err := h.store.FrontHistory.ListByUser(id)
	if err != nil {
		rw.Internal(err)
		return
	}
	rw.Success(entries)
}

// GetFronters returns the live entries as Fronter projections.
func (h *Handler) GetFronters(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	live, err := h.store.FrontHistory.LiveEntries(id)
	if err != nil {
		rw.Internal(err)
		return
	}

	fronters := make([]models.Fronter, 0, len(live))
	for _, e := range live {
		fronters = append(fronters, models.Fronter{
			EntryID:      e.ID,
			MemberID:     e.MemberID,
			Custom:       e.Custom,
			StartTime:    e.StartTime,
			CustomStatus: e.CustomStatus,
		})
	}
	rw.Success(fronters)
}

// GetFrontHistoryEntry returns a single entry.
func (h *Handler) GetFrontHistoryEntry(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	entry, err := h.store.FrontHistory.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "front history entry")
		return
	}
	rw.Success(entry)
}

// CreateFrontHistoryEntry inserts an entry and publishes the change.
func (h *Handler) CreateFrontHistoryEntry(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	var body frontHistoryBody
	if !decode(w, r, &body) {
		return
	}
	if body.Live && body.EndTime != 0 {
		rw.BadRequest("live entries must not carry an end time")
		return
	}
	if !body.Live && body.EndTime < body.StartTime {
		rw.BadRequest("end time must not precede start time")
		return
	}
	if err := h.checkFrontedDocument(id, body.MemberID, body.Custom); err != nil {
		notFoundOr(rw, err, "fronted member")
		return
	}

	entry := &models.FrontHistoryEntry{
		ID:                uuid.New().String(),
		UID:               id,
		MemberID:          body.MemberID,
		Custom:            body.Custom,
		Live:              body.Live,
		StartTime:         body.StartTime,
		EndTime:           body.EndTime,
		CustomStatus:      body.CustomStatus,
		LastOperationTime: time.Now().UnixMilli(),
	}
	if err := h.store.FrontHistory.Insert(entry); err != nil {
		rw.Internal(err)
		return
	}

	e := events.NewFrontChanged(id, entry.ID)
	e.Live = entry.Live
	e.Custom = entry.Custom
	e.New = entry
	h.publishFrontChange(e)

	rw.Created(entry)
}

// UpdateFrontHistoryEntry applies a full-body update to an entry.
func (h *Handler) UpdateFrontHistoryEntry(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	old, err := h.store.FrontHistory.Get(id, chi.URLParam(r, "id"))
	if err != nil {
		notFoundOr(rw, err, "front history entry")
		return
	}

	var body frontHistoryBody
	if !decode(w, r, &body) {
		return
	}
	if body.Live && body.EndTime != 0 {
		rw.BadRequest("live entries must not carry an end time")
		return
	}
	if !body.Live && body.EndTime < body.StartTime {
		rw.BadRequest("end time must not precede start time")
		return
	}

	now := time.Now().UnixMilli()
	if now < old.LastOperationTime {
		rw.Error(http.StatusConflict, ErrCodeConflict, "a newer operation already modified this entry")
		return
	}

	prev := *old
	updated := &models.FrontHistoryEntry{
		ID:                old.ID,
		UID:               old.UID,
		MemberID:          body.MemberID,
		Custom:            body.Custom,
		Live:              body.Live,
		StartTime:         body.StartTime,
		EndTime:           body.EndTime,
		CustomStatus:      body.CustomStatus,
		LastOperationTime: now,
	}
	if err := h.store.FrontHistory.Update(updated); err != nil {
		rw.Internal(err)
		return
	}

	e := events.NewFrontChanged(id, updated.ID)
	e.Live = updated.Live
	e.Custom = updated.Custom
	e.Changed = true
	e.Old = &prev
	e.New = updated
	h.publishFrontChange(e)

	rw.Success(updated)
}

// DeleteFrontHistoryEntry removes an entry and publishes the removal.
func (h *Handler) DeleteFrontHistoryEntry(w http.ResponseWriter, r *http.Request) {
	rw := respond(w)
	id, ok := uid(w, r)
	if !ok {
		return
	}

	entryID := chi.URLParam(r, "id")
	old, err := h.store.FrontHistory.Get(id, entryID)
	if err != nil {
		notFoundOr(rw, err, "front history entry")
		return
	}
	if err := h.store.FrontHistory.Delete(id, entryID); err != nil {
		rw.Internal(err)
		return
	}
	if _, err := h.store.Comments.DeleteByDocument(id, entryID); err != nil {
		logging.Err(err).Str("uid", id).Str("entry", entryID).
			Msg("failed to delete comments for removed entry")
	}

	e := events.NewFrontChanged(id, entryID)
	e.Live = old.Live
	e.Custom = old.Custom
	e.Removed = true
	e.Old = old
	h.publishFrontChange(e)

	rw.NoContent()
}

// checkFrontedDocument verifies the fronted member or custom front
// exists before recording an entry for it.
func (h *Handler) checkFrontedDocument(uid, memberID string, custom bool) error {
	if custom {
		_, err := h.store.FrontStatuses.Get(uid, memberID)
		return err
	}
	_, err := h.store.Members.Get(uid, memberID)
	return err
}
