// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - PluralKit dispatcher lanes (throughput, queue depth, wait time)
// - Reconciliation passes and sync intents
// - Document store operations (BadgerDB)
// - API endpoint latency and throughput
// - WebSocket connections

var (
	// Dispatcher Lane Metrics
	PKRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pluralkit_requests_total",
			Help: "Total number of PluralKit API requests completed per lane",
		},
		[]string{"lane", "method", "status_code"},
	)

	PKRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pluralkit_request_duration_seconds",
			Help:    "Duration of PluralKit API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"lane", "method"},
	)

	PKQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pluralkit_queue_depth",
			Help: "Current number of queued requests per dispatcher lane",
		},
		[]string{"lane"},
	)

	PKQueueWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pluralkit_queue_wait_seconds",
			Help:    "Time requests spend queued before dispatch, in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"lane"},
	)

	PKDispatchTimeouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pluralkit_dispatch_timeouts_total",
			Help: "Total number of requests that timed out waiting for dispatch",
		},
		[]string{"lane"},
	)

	PKTransportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pluralkit_transport_errors_total",
			Help: "Total number of PluralKit requests that failed at the transport level",
		},
		[]string{"lane"},
	)

	// Sync Intent Queue Metrics
	SyncIntentsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_intents_enqueued_total",
			Help: "Total number of sync intents enqueued",
		},
		[]string{"type"}, // "insert", "update", "delete"
	)

	SyncIntentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_intents_processed_total",
			Help: "Total number of sync intents drained by reconciliation passes",
		},
		[]string{"type", "result"}, // result: "success", "error"
	)

	SyncIntentsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_intents_expired_total",
			Help: "Total number of sync intents dropped by the retention sweep",
		},
	)

	SyncIntentQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_intent_queue_depth",
			Help: "Current number of pending sync intents across all users",
		},
	)

	// Reconciliation Metrics
	ReconcilePassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_pass_duration_seconds",
			Help:    "Duration of reconciliation passes in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	ReconcilePassesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_passes_total",
			Help: "Total number of reconciliation passes",
		},
		[]string{"result"}, // "success", "error"
	)

	ReconcileDebounceResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reconcile_debounce_resets_total",
			Help: "Total number of times a pending pass was pushed back by new activity",
		},
	)

	MemberSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "member_syncs_total",
			Help: "Total number of member profile syncs",
		},
		[]string{"direction", "result"}, // direction: "push", "pull"
	)

	// Document Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of document store operation errors",
		},
		[]string{"operation", "collection"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Total number of events handled per topic",
		},
		[]string{"topic", "handler", "result"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordPKRequest records a completed PluralKit API request on a lane.
func RecordPKRequest(lane, method string, statusCode int, duration time.Duration) {
	PKRequestsTotal.WithLabelValues(lane, method, strconv.Itoa(statusCode)).Inc()
	PKRequestDuration.WithLabelValues(lane, method).Observe(duration.Seconds())
}

// RecordPKQueueWait records how long a request waited in the lane queue.
func RecordPKQueueWait(lane string, wait time.Duration) {
	PKQueueWaitDuration.WithLabelValues(lane).Observe(wait.Seconds())
}

// RecordSyncIntent records an intent being enqueued.
func RecordSyncIntent(intentType string) {
	SyncIntentsEnqueued.WithLabelValues(intentType).Inc()
}

// RecordIntentProcessed records an intent drained by a reconciliation pass.
func RecordIntentProcessed(intentType string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SyncIntentsProcessed.WithLabelValues(intentType, result).Inc()
}

// RecordReconcilePass records the outcome and duration of a reconciliation pass.
func RecordReconcilePass(duration time.Duration, err error) {
	ReconcilePassDuration.Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "error"
	}
	ReconcilePassesTotal.WithLabelValues(result).Inc()
}

// RecordMemberSync records a member profile sync in either direction.
func RecordMemberSync(direction string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	MemberSyncsTotal.WithLabelValues(direction, result).Inc()
}

// RecordStoreOperation records a document store operation.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the active API request gauge.
func TrackActiveRequest(start bool) {
	if start {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
