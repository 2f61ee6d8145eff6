// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package middleware provides HTTP middleware for the API server.
//
// RequestID tags every request with an X-Request-ID (honoring one set
// by an upstream proxy) and puts it on the request context for log
// correlation. PrometheusMetrics instruments request counts, latency,
// and in-flight gauge per method and route pattern.
//
// Cross-cutting concerns not implemented here come from the chi
// ecosystem: compression (chi middleware.Compress), panic recovery
// (middleware.Recoverer), CORS (go-chi/cors), and rate limiting
// (go-chi/httprate). Authentication lives in internal/auth.
package middleware
