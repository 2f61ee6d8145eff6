// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"net/http"

	"github.com/plurapi/switchboard/internal/auth"
	"github.com/plurapi/switchboard/internal/logging"
)

type mintTokenBody struct {
	UID string `json:"uid" validate:"required"`
}

type mintTokenView struct {
	UID   string `json:"uid"`
	Token string `json:"token"`
}

// MintToken issues a bearer token for an existing user. The route is
// gated by the operator's Basic credentials rather than RequireAuth,
// since it is how users obtain their first token.
func (h *Handler) MintToken(manager *auth.JWTManager, admin *auth.BasicAuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := respond(w)

		if err := admin.ValidateCredentials(r.Header.Get("Authorization")); err != nil {
			w.Header().Set("WWW-Authenticate", admin.WWWAuthenticate())
			rw.Error(http.StatusUnauthorized, ErrCodeUnauthorized, "invalid operator credentials")
			return
		}

		var body mintTokenBody
		if !decode(w, r, &body) {
			return
		}

		user, err := h.store.Users.Get(body.UID)
		if err != nil {
			notFoundOr(rw, err, "user")
			return
		}

		token, err := manager.GenerateToken(user.ID, user.Username)
		if err != nil {
			rw.Internal(err)
			return
		}

		logging.Info().Str("uid", user.ID).Msg("operator minted user token")
		rw.Created(mintTokenView{UID: user.ID, Token: token})
	}
}
