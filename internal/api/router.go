// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plurapi/switchboard/internal/auth"
	"github.com/plurapi/switchboard/internal/middleware"
)

// NewRouter assembles the chi router: ambient middleware, the public
// probes, and the authenticated /v1 surface. admin may be nil, in
// which case the operator token-minting route is not mounted.
func NewRouter(h *Handler, manager *auth.JWTManager, admin *auth.BasicAuthManager) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if h.cfg.Security.RateLimitReqs > 0 {
		r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
	}

	r.Get("/v1/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	if admin != nil {
		r.Post("/v1/auth/token", h.MintToken(manager, admin))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(manager))

		r.Route("/v1/front-history", func(r chi.Router) {
			r.Get("/", h.ListFrontHistory)
			r.Post("/", h.CreateFrontHistoryEntry)
			r.Get("/fronters", h.GetFronters)
			r.Get("/{id}", h.GetFrontHistoryEntry)
			r.Put("/{id}", h.UpdateFrontHistoryEntry)
			r.Delete("/{id}", h.DeleteFrontHistoryEntry)
			r.Get("/{id}/comments", h.ListComments)
			r.Post("/{id}/comments", h.CreateComment)
			r.Delete("/{id}/comments/{commentId}", h.DeleteComment)
		})

		r.Route("/v1/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.CreateMember)
			r.Get("/{id}", h.GetMember)
			r.Put("/{id}", h.UpdateMember)
			r.Delete("/{id}", h.DeleteMember)
		})

		r.Route("/v1/custom-fronts", func(r chi.Router) {
			r.Get("/", h.ListCustomFronts)
			r.Post("/", h.CreateCustomFront)
			r.Put("/{id}", h.UpdateCustomFront)
			r.Delete("/{id}", h.DeleteCustomFront)
		})

		r.Route("/v1/friends", func(r chi.Router) {
			r.Get("/", h.ListFriends)
			r.Get("/requests", h.ListFriendRequests)
			r.Post("/requests", h.SendFriendRequest)
			r.Post("/requests/{id}/accept", h.AcceptFriendRequest)
			r.Delete("/requests/{id}", h.DeclineFriendRequest)
			r.Put("/{uid}", h.UpdateFriendSettings)
			r.Delete("/{uid}", h.RemoveFriend)
		})

		r.Route("/v1/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
			r.Get("/{id}", h.GetGroup)
			r.Put("/{id}", h.UpdateGroup)
			r.Delete("/{id}", h.DeleteGroup)
		})

		r.Route("/v1/integrations/pluralkit", func(r chi.Router) {
			r.Get("/", h.GetIntegration)
			r.Put("/", h.SetIntegration)
			r.Delete("/", h.DeleteIntegration)
			r.Post("/sync-members/push", h.SyncMembersToPk)
			r.Post("/sync-members/pull", h.SyncMembersFromPk)
		})

		r.Get("/v1/ws", h.WebSocket)
	})

	return r
}
