// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"net/http"
	"time"

	gorilla "github.com/gorilla/websocket"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/websocket"
)

// upgrader builds the websocket upgrader with origin checking against
// the configured CORS origins.
func (h *Handler) upgrader() gorilla.Upgrader {
	return gorilla.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.checkWebSocketOrigin,
	}
}

// checkWebSocketOrigin rejects browser connections from origins not in
// the CORS allow list. Requests without an Origin header come from
// non-browser clients and pass; the bearer token already gates them.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", origin).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and attaches it to the hub. Auth
// ran in middleware; the token arrives in the `token` query parameter.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	id, ok := uid(w, r)
	if !ok {
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		logging.Err(err).Str("uid", id).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, id)
	h.hub.Register <- client
	client.Start()
}
