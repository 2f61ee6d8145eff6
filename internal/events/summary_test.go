// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/store"
)

type capturedNotification struct {
	uid     string
	title   string
	message string
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []capturedNotification
}

func (n *captureNotifier) Notify(_ context.Context, uid, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, capturedNotification{uid, title, message})
	return nil
}

func (n *captureNotifier) all() []capturedNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]capturedNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

func newSummaryFixture(t *testing.T, window time.Duration) (*store.Store, *Summarizer, *captureNotifier) {
	t.Helper()
	st, err := store.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	notifier := &captureNotifier{}
	s := NewSummarizer(st, notifier, window)
	t.Cleanup(s.Close)
	return st, s, notifier
}

func seedFronters(t *testing.T, st *store.Store, uid string) {
	t.Helper()
	members := []*models.Member{
		{ID: "m-public", UID: uid, Name: "Zoe"},
		{ID: "m-quiet", UID: uid, Name: "Ash", PreventsFrontNotifs: true},
		{ID: "m-private", UID: uid, Name: "Ivy", Private: true},
		{ID: "m-hidden", UID: uid, Name: "Rook", Private: true, PreventTrusted: true},
	}
	for _, m := range members {
		if err := st.Members.Insert(m); err != nil {
			t.Fatalf("insert member: %v", err)
		}
	}
	statuses := []*models.FrontStatus{
		{ID: "cf-public", UID: uid, Name: "Blurry"},
		{ID: "cf-private", UID: uid, Name: "Deep", Private: true},
	}
	for _, fs := range statuses {
		if err := st.FrontStatuses.Insert(fs); err != nil {
			t.Fatalf("insert front status: %v", err)
		}
	}
	entries := []*models.FrontHistoryEntry{
		{ID: "e1", UID: uid, MemberID: "m-public", Live: true, StartTime: 1000},
		{ID: "e2", UID: uid, MemberID: "m-quiet", Live: true, StartTime: 2000},
		{ID: "e3", UID: uid, MemberID: "m-private", Live: true, StartTime: 3000},
		{ID: "e4", UID: uid, MemberID: "m-hidden", Live: true, StartTime: 4000},
		{ID: "e5", UID: uid, MemberID: "cf-public", Custom: true, Live: true, StartTime: 5000},
		{ID: "e6", UID: uid, MemberID: "cf-private", Custom: true, Live: true, StartTime: 6000},
	}
	for _, e := range entries {
		if err := st.FrontHistory.Insert(e); err != nil {
			t.Fatalf("insert entry: %v", err)
		}
	}
}

func TestRecomputeTiers(t *testing.T) {
	st, s, _ := newSummaryFixture(t, time.Hour)
	uid := "u1"
	seedFronters(t, st, uid)
	if err := st.Users.Upsert(&models.User{ID: uid, Username: "ferns"}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}

	if err := s.Recompute(uid, false); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	shared, err := st.Summaries.Get(uid, false)
	if err != nil {
		t.Fatalf("get shared summary: %v", err)
	}
	// Public members only, sorted case-insensitively.
	if shared.FrontString != "Ash, Zoe" {
		t.Errorf("shared FrontString = %q", shared.FrontString)
	}
	// Ash suppresses notifications.
	if shared.FrontNotificationString != "Zoe" {
		t.Errorf("shared FrontNotificationString = %q", shared.FrontNotificationString)
	}
	if shared.CustomFrontString != "Blurry" {
		t.Errorf("shared CustomFrontString = %q", shared.CustomFrontString)
	}

	private, err := st.Summaries.Get(uid, true)
	if err != nil {
		t.Fatalf("get private summary: %v", err)
	}
	// Ivy is private but visible to trusted friends; Rook prevents even that.
	if private.FrontString != "Ash, Ivy, Zoe" {
		t.Errorf("private FrontString = %q", private.FrontString)
	}
	if private.CustomFrontString != "Blurry, Deep" {
		t.Errorf("private CustomFrontString = %q", private.CustomFrontString)
	}

	u, err := st.Users.Get(uid)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.FrontString != "Ash, Zoe" || u.PrivateFrontString != "Ash, Ivy, Zoe" {
		t.Errorf("user strings = %q / %q", u.FrontString, u.PrivateFrontString)
	}
	if u.CustomFrontString != "Blurry" || u.PrivateCustomFrontString != "Blurry, Deep" {
		t.Errorf("user custom strings = %q / %q", u.CustomFrontString, u.PrivateCustomFrontString)
	}
}

func TestRecomputeSkipsMissingMember(t *testing.T) {
	st, s, _ := newSummaryFixture(t, time.Hour)
	uid := "u1"
	if err := st.FrontHistory.Insert(&models.FrontHistoryEntry{
		ID: "e1", UID: uid, MemberID: "gone", Live: true, StartTime: 1000,
	}); err != nil {
		t.Fatalf("insert entry: %v", err)
	}

	if err := s.Recompute(uid, false); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	shared, err := st.Summaries.Get(uid, false)
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if shared.FrontString != "" {
		t.Errorf("FrontString = %q, want empty", shared.FrontString)
	}
}

func TestNotifyFriendsOnChange(t *testing.T) {
	st, s, notifier := newSummaryFixture(t, 30*time.Millisecond)
	uid := "u1"
	seedFronters(t, st, uid)
	if err := st.Users.Upsert(&models.User{ID: uid, Username: "ferns"}); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	friends := []*models.Friend{
		{UID: uid, FriendUID: "pal", GetFrontNotif: true},
		{UID: uid, FriendUID: "bestie", GetFrontNotif: true, Trusted: true},
		{UID: uid, FriendUID: "lurker"},
	}
	for _, f := range friends {
		if err := st.Friends.Upsert(f); err != nil {
			t.Fatalf("upsert friend: %v", err)
		}
	}

	if err := s.Recompute(uid, true); err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(notifier.all()) < 2 {
		time.Sleep(10 * time.Millisecond)
	}

	sent := notifier.all()
	if len(sent) != 2 {
		t.Fatalf("got %d notifications, want 2: %+v", len(sent), sent)
	}
	byUID := map[string]capturedNotification{}
	for _, n := range sent {
		byUID[n.uid] = n
	}
	pal, ok := byUID["pal"]
	if !ok {
		t.Fatalf("shared friend not notified: %+v", sent)
	}
	if pal.title != "ferns" {
		t.Errorf("title = %q", pal.title)
	}
	if pal.message != "Fronting: Zoe \nCustom fronting: Blurry" {
		t.Errorf("shared message = %q", pal.message)
	}
	bestie, ok := byUID["bestie"]
	if !ok {
		t.Fatalf("trusted friend not notified: %+v", sent)
	}
	if bestie.message != "Fronting: Ivy, Zoe \nCustom fronting: Blurry, Deep" {
		t.Errorf("private message = %q", bestie.message)
	}

	// A recompute with an unchanged roster must not notify again.
	if err := s.Recompute(uid, true); err != nil {
		t.Fatalf("second Recompute: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := len(notifier.all()); got != 2 {
		t.Errorf("got %d notifications after unchanged recompute, want 2", got)
	}
}

func TestNotifySkippedWhenRemindersOff(t *testing.T) {
	st, s, notifier := newSummaryFixture(t, 20*time.Millisecond)
	uid := "u1"
	seedFronters(t, st, uid)
	if err := st.Friends.Upsert(&models.Friend{UID: uid, FriendUID: "pal", GetFrontNotif: true}); err != nil {
		t.Fatalf("upsert friend: %v", err)
	}

	if err := s.Recompute(uid, false); err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := len(notifier.all()); got != 0 {
		t.Errorf("got %d notifications with reminders off, want 0", got)
	}
}

func TestFrontMessage(t *testing.T) {
	cases := []struct {
		front, custom, want string
	}{
		{"Zoe", "Blurry", "Fronting: Zoe \nCustom fronting: Blurry"},
		{"Zoe", "", "Fronting: Zoe"},
		{"", "Blurry", "Custom fronting: Blurry"},
		{"", "", ""},
	}
	for _, tc := range cases {
		if got := frontMessage(tc.front, tc.custom); got != tc.want {
			t.Errorf("frontMessage(%q, %q) = %q, want %q", tc.front, tc.custom, got, tc.want)
		}
	}
}
