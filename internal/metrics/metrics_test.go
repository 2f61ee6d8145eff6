// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package metrics

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordPKRequest verifies lane request counters and labels
func TestRecordPKRequest(t *testing.T) {
	tests := []struct {
		name       string
		lane       string
		method     string
		statusCode int
		duration   time.Duration
	}{
		{"member lane GET ok", "member", "GET", 200, 120 * time.Millisecond},
		{"front sync lane POST created", "front_sync", "POST", 201, 250 * time.Millisecond},
		{"member lane PATCH forbidden", "member", "PATCH", 403, 80 * time.Millisecond},
		{"front sync lane DELETE gateway error", "front_sync", "DELETE", 502, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := strconv.Itoa(tt.statusCode)
			before := testutil.ToFloat64(PKRequestsTotal.WithLabelValues(tt.lane, tt.method, code))
			RecordPKRequest(tt.lane, tt.method, tt.statusCode, tt.duration)
			after := testutil.ToFloat64(PKRequestsTotal.WithLabelValues(tt.lane, tt.method, code))
			if after != before+1 {
				t.Errorf("counter for %s/%s/%d = %v, want %v", tt.lane, tt.method, tt.statusCode, after, before+1)
			}
		})
	}
}

// TestRecordIntentProcessed verifies success/error result labeling
func TestRecordIntentProcessed(t *testing.T) {
	beforeOK := testutil.ToFloat64(SyncIntentsProcessed.WithLabelValues("insert", "success"))
	beforeErr := testutil.ToFloat64(SyncIntentsProcessed.WithLabelValues("update", "error"))

	RecordIntentProcessed("insert", nil)
	RecordIntentProcessed("update", errors.New("remote unavailable"))

	if got := testutil.ToFloat64(SyncIntentsProcessed.WithLabelValues("insert", "success")); got != beforeOK+1 {
		t.Errorf("insert/success = %v, want %v", got, beforeOK+1)
	}
	if got := testutil.ToFloat64(SyncIntentsProcessed.WithLabelValues("update", "error")); got != beforeErr+1 {
		t.Errorf("update/error = %v, want %v", got, beforeErr+1)
	}
}

// TestRecordReconcilePass verifies pass outcome counters
func TestRecordReconcilePass(t *testing.T) {
	beforeOK := testutil.ToFloat64(ReconcilePassesTotal.WithLabelValues("success"))
	beforeErr := testutil.ToFloat64(ReconcilePassesTotal.WithLabelValues("error"))

	RecordReconcilePass(2*time.Second, nil)
	RecordReconcilePass(5*time.Second, errors.New("invalid token"))

	if got := testutil.ToFloat64(ReconcilePassesTotal.WithLabelValues("success")); got != beforeOK+1 {
		t.Errorf("success passes = %v, want %v", got, beforeOK+1)
	}
	if got := testutil.ToFloat64(ReconcilePassesTotal.WithLabelValues("error")); got != beforeErr+1 {
		t.Errorf("error passes = %v, want %v", got, beforeErr+1)
	}
}

// TestQueueDepthGauge verifies gauge set/inc/dec behavior per lane
func TestQueueDepthGauge(t *testing.T) {
	PKQueueDepth.WithLabelValues("member").Set(0)
	PKQueueDepth.WithLabelValues("member").Inc()
	PKQueueDepth.WithLabelValues("member").Inc()
	PKQueueDepth.WithLabelValues("member").Dec()

	if got := testutil.ToFloat64(PKQueueDepth.WithLabelValues("member")); got != 1 {
		t.Errorf("queue depth = %v, want 1", got)
	}
}

// TestRecordMemberSync verifies direction/result labeling
func TestRecordMemberSync(t *testing.T) {
	before := testutil.ToFloat64(MemberSyncsTotal.WithLabelValues("push", "error"))
	RecordMemberSync("push", errors.New("name too long"))
	if got := testutil.ToFloat64(MemberSyncsTotal.WithLabelValues("push", "error")); got != before+1 {
		t.Errorf("push/error = %v, want %v", got, before+1)
	}
}
