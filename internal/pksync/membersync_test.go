// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pksync

import (
	"context"
	"strings"
	"testing"

	"github.com/plurapi/switchboard/internal/models"
)

func TestLocalColorToPk(t *testing.T) {
	cases := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"#aabbcc", "aabbcc", true},
		{"aabbcc", "aabbcc", true},
		{"#aabbccff", "aabbcc", true},
		{"#AABBCC", "AABBCC", true},
		{"", "", false},
		{"#abc", "", false},
		{"#gghhii", "", false},
		{"zzzzzz", "", false},
	}
	for _, tc := range cases {
		got, ok := localColorToPk(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("localColorToPk(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestBuildWritePayload(t *testing.T) {
	m := &models.Member{
		Name:        strings.Repeat("n", 150),
		Pronouns:    "they/them",
		Description: strings.Repeat("d", 1200),
		AvatarURL:   "https://example.com/a.png",
		Color:       "#aabbcc",
	}

	t.Run("all options", func(t *testing.T) {
		w := buildWritePayload(m, models.SyncOptions{
			Name: true, Avatar: true, Pronouns: true, Description: true, Color: true,
		})
		if len(w.Name) != maxNameLength {
			t.Errorf("name length = %d, want capped at %d", len(w.Name), maxNameLength)
		}
		if w.Description == nil || len(*w.Description) != maxDescriptionLength {
			t.Errorf("description not capped at %d", maxDescriptionLength)
		}
		if w.Pronouns == nil || *w.Pronouns != "they/them" {
			t.Errorf("pronouns = %v", w.Pronouns)
		}
		if w.AvatarURL == nil || *w.AvatarURL != m.AvatarURL {
			t.Errorf("avatar = %v", w.AvatarURL)
		}
		if w.Color == nil || *w.Color != "aabbcc" {
			t.Errorf("color = %v", w.Color)
		}
	})

	t.Run("display name option", func(t *testing.T) {
		w := buildWritePayload(m, models.SyncOptions{Name: true, UseDisplayName: true})
		if w.Name != "" || w.DisplayName == nil {
			t.Errorf("want display_name set instead of name, got %+v", w)
		}
	})

	t.Run("options off", func(t *testing.T) {
		w := buildWritePayload(m, models.SyncOptions{})
		if w.Name != "" || w.Pronouns != nil || w.Description != nil || w.AvatarURL != nil || w.Color != nil {
			t.Errorf("payload should be empty with all options off, got %+v", w)
		}
	})

	t.Run("invalid avatar dropped", func(t *testing.T) {
		bad := *m
		bad.AvatarURL = "not a url"
		w := buildWritePayload(&bad, models.SyncOptions{Avatar: true})
		if w.AvatarURL != nil {
			t.Errorf("invalid avatar URL kept: %v", *w.AvatarURL)
		}
	})
}

func TestSyncMemberToPkCreatesLink(t *testing.T) {
	e := newTestEngine(t)
	uid := "u1"
	if err := e.store.Members.Insert(&models.Member{ID: "m1", UID: uid, Name: "Alice", Pronouns: "she/her"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	msg, err := e.members.SyncMemberToPk(context.Background(), e.sess, uid, "m1", models.SyncOptions{Name: true, Pronouns: true}, nil, "")
	if err != nil {
		t.Fatalf("SyncMemberToPk: %v", err)
	}
	if !strings.Contains(msg, "added to PluralKit") {
		t.Errorf("msg = %q", msg)
	}

	m, _ := e.store.Members.Get(uid, "m1")
	if !m.Linked() {
		t.Fatalf("member not linked, pkId=%q", m.PkID)
	}
	e.fake.mu.Lock()
	remote := e.fake.members[m.PkID]
	e.fake.mu.Unlock()
	if remote == nil || remote.Name != "Alice" || remote.Pronouns != "she/her" {
		t.Errorf("remote member = %+v", remote)
	}
}

func TestSyncMemberToPkUpdatesExisting(t *testing.T) {
	e := newTestEngine(t)
	uid := "u1"
	pkID := e.addLinkedMember(t, uid, "m1", "Alice")

	m, _ := e.store.Members.Get(uid, "m1")
	m.Pronouns = "fae/faer"
	if err := e.store.Members.Update(m); err != nil {
		t.Fatalf("update: %v", err)
	}

	msg, err := e.members.SyncMemberToPk(context.Background(), e.sess, uid, "m1", models.SyncOptions{Name: true, Pronouns: true}, nil, "")
	if err != nil {
		t.Fatalf("SyncMemberToPk: %v", err)
	}
	if !strings.Contains(msg, "updated on PluralKit") {
		t.Errorf("msg = %q", msg)
	}
	if n := e.fake.memberCount(); n != 1 {
		t.Errorf("remote has %d members, want 1 (no duplicate created)", n)
	}
	e.fake.mu.Lock()
	remote := e.fake.members[pkID]
	e.fake.mu.Unlock()
	if remote.Pronouns != "fae/faer" {
		t.Errorf("remote pronouns = %q", remote.Pronouns)
	}
}

func TestSyncMemberFromPkCreatesLocal(t *testing.T) {
	e := newTestEngine(t)
	uid := "u1"
	pkID := e.fake.addMember("Blair")
	e.fake.mu.Lock()
	e.fake.members[pkID].Pronouns = "he/him"
	e.fake.mu.Unlock()

	msg, err := e.members.SyncMemberFromPk(context.Background(), e.sess, uid, pkID, models.SyncOptions{}, nil, true)
	if err != nil {
		t.Fatalf("SyncMemberFromPk: %v", err)
	}
	if !strings.Contains(msg, "added to Switchboard") {
		t.Errorf("msg = %q", msg)
	}

	local, err := e.store.Members.GetByPkID(uid, pkID)
	if err != nil {
		t.Fatalf("local member missing: %v", err)
	}
	// A brand-new local member gets every field regardless of options.
	if local.Name != "Blair" || local.Pronouns != "he/him" {
		t.Errorf("local member = %+v", local)
	}
	if !local.Private || !local.PreventTrusted {
		t.Errorf("privateByDefault not applied: %+v", local)
	}
}

func TestSyncAllToPk(t *testing.T) {
	e := newTestEngine(t)
	uid := "u1"
	e.addLinkedMember(t, uid, "m1", "Alice")
	if err := e.store.Members.Insert(&models.Member{ID: "m2", UID: uid, Name: "Blair"}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	res := e.members.SyncAllToPk(context.Background(), e.sess, uid, models.SyncOptions{Name: true})
	if !res.Success {
		t.Fatalf("SyncAllToPk failed: %s", res.Message)
	}

	if n := e.fake.memberCount(); n != 2 {
		t.Errorf("remote has %d members, want 2", n)
	}
	m2, _ := e.store.Members.Get(uid, "m2")
	if !m2.Linked() {
		t.Errorf("m2 not linked after bulk push")
	}
}

func TestSyncAllFromPk(t *testing.T) {
	e := newTestEngine(t)
	uid := "u1"
	linked := e.addLinkedMember(t, uid, "m1", "Alice")
	added := e.fake.addMember("Blair")

	t.Run("add only", func(t *testing.T) {
		res := e.members.SyncAllFromPk(context.Background(), e.sess, uid, models.SyncOptions{Name: true},
			models.SyncAllOptions{Add: true})
		if !res.Success {
			t.Fatalf("SyncAllFromPk failed: %s", res.Message)
		}
		if _, err := e.store.Members.GetByPkID(uid, added); err != nil {
			t.Errorf("pulled member missing locally: %v", err)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		e.fake.mu.Lock()
		e.fake.members[linked].Name = "Alicia"
		e.fake.mu.Unlock()

		res := e.members.SyncAllFromPk(context.Background(), e.sess, uid, models.SyncOptions{Name: true},
			models.SyncAllOptions{Overwrite: true})
		if !res.Success {
			t.Fatalf("SyncAllFromPk failed: %s", res.Message)
		}
		local, _ := e.store.Members.GetByPkID(uid, linked)
		if local.Name != "Alicia" {
			t.Errorf("local name = %q, want overwritten", local.Name)
		}
	})
}

func TestResultForErrors(t *testing.T) {
	if res := resultFor(nil); !res.Success {
		t.Error("nil error should be success")
	}
}
