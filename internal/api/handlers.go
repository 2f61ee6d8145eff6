// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/plurapi/switchboard/internal/auth"
	"github.com/plurapi/switchboard/internal/config"
	"github.com/plurapi/switchboard/internal/events"
	"github.com/plurapi/switchboard/internal/pksync"
	"github.com/plurapi/switchboard/internal/pluralkit"
	"github.com/plurapi/switchboard/internal/store"
	"github.com/plurapi/switchboard/internal/validation"
	"github.com/plurapi/switchboard/internal/websocket"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// Handler bundles the dependencies the HTTP endpoints need.
type Handler struct {
	cfg        *config.Config
	store      *store.Store
	bus        *events.Bus
	pk         *pluralkit.Client
	memberSync *pksync.MemberSync
	hub        *websocket.Hub
}

// NewHandler wires the endpoint dependencies.
func NewHandler(cfg *config.Config, st *store.Store, bus *events.Bus, pk *pluralkit.Client, ms *pksync.MemberSync, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:        cfg,
		store:      st,
		bus:        bus,
		pk:         pk,
		memberSync: ms,
		hub:        hub,
	}
}

// uid returns the authenticated user id. Routes behind RequireAuth
// always have one; the fallback 401 covers misconfigured routing.
func uid(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UIDFromContext(r.Context())
	if !ok {
		respond(w).Error(http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return "", false
	}
	return id, true
}

// decode parses and validates a JSON request body into dst. On failure
// it writes the error response and returns false.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := respond(w)

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest(fmt.Sprintf("invalid request body: %v", err))
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.APIError(http.StatusBadRequest, verr.ToAPIError())
		return false
	}
	return true
}

// notFoundOr writes 404 for missing documents and 500 otherwise.
func notFoundOr(rw *responseWriter, err error, what string) {
	if errors.Is(err, store.ErrNotFound) {
		rw.NotFound(what + " not found")
		return
	}
	rw.Internal(err)
}

// Health reports liveness. No auth so load balancers can probe it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respond(w).Success(map[string]string{"status": "ok"})
}
