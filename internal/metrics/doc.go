// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments the main operational surfaces of the server:

  - PluralKit dispatcher lanes: completed requests per lane labeled by
    method and status code, queue depth, queue wait time, dispatch
    timeouts, and transport failures
  - Sync intent queue: enqueued/processed/expired intents and pending depth
  - Reconciliation passes: duration, outcome, debounce resets
  - Member syncs: push and pull outcomes
  - Document store: per-collection operation latency and errors
  - HTTP API: request counts, latency, in-flight gauge
  - Event bus and WebSocket fan-out
  - Circuit breaker state and transitions

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:3210/metrics

All metrics are registered via promauto at package init, so importing the
package is enough; there is no Init call. Recording helpers such as
RecordPKRequest and RecordReconcilePass are thread-safe.

Cardinality is kept bounded: lanes are a fixed set of two, endpoint labels
use chi route patterns rather than raw paths, and user identifiers never
appear as label values.
*/
package metrics
