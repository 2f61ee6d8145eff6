// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/pluralkit"
)

const validPkToken = "pk-token-0123456789abcdefghijklmnop"

// fakePluralKit is a minimal remote for the integration endpoints:
// system lookup, member list, member create.
type fakePluralKit struct {
	mu      sync.Mutex
	members []pluralkit.Member
	nextID  int
}

func (f *fakePluralKit) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != validPkToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/systems/@me":
			json.NewEncoder(w).Encode(pluralkit.System{ID: "exmpl", Name: "Example System"})
		case r.Method == http.MethodGet && r.URL.Path == "/systems/exmpl/members":
			json.NewEncoder(w).Encode(f.members)
		case r.Method == http.MethodPost && r.URL.Path == "/members":
			var wm pluralkit.WriteMember
			json.NewDecoder(r.Body).Decode(&wm)
			f.nextID++
			m := pluralkit.Member{ID: fmt.Sprintf("pk%03d", f.nextID), Name: wm.Name}
			if wm.Pronouns != nil {
				m.Pronouns = *wm.Pronouns
			}
			f.members = append(f.members, m)
			json.NewEncoder(w).Encode(m)
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/members/"):
			json.NewEncoder(w).Encode(pluralkit.Member{ID: strings.TrimPrefix(r.URL.Path, "/members/")})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newIntegrationFixture(t *testing.T) (*apiFixture, *fakePluralKit) {
	t.Helper()
	fake := &fakePluralKit{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return newAPIFixture(t, srv.URL), fake
}

func TestSetIntegrationVerifiesToken(t *testing.T) {
	f, _ := newIntegrationFixture(t)

	rec, env := f.do(t, http.MethodPut, "/v1/integrations/pluralkit", integrationBody{
		Token:       validPkToken,
		SyncOptions: models.SyncOptions{Name: true, Pronouns: true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set: status %d body %s", rec.Code, rec.Body.String())
	}
	var view integrationView
	dataAs(t, env, &view)
	if !view.Linked || !view.SyncOptions.Name {
		t.Errorf("view = %+v", view)
	}

	// Token never readable back.
	rec, env = f.do(t, http.MethodGet, "/v1/integrations/pluralkit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), validPkToken) {
		t.Error("token echoed back in response")
	}
}

func TestSetIntegrationRejectsBadToken(t *testing.T) {
	f, _ := newIntegrationFixture(t)

	rec, _ := f.do(t, http.MethodPut, "/v1/integrations/pluralkit", integrationBody{
		Token: "pk-wrong-0123456789abcdefghijklmnop",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteIntegration(t *testing.T) {
	f, _ := newIntegrationFixture(t)

	rec, _ := f.do(t, http.MethodPut, "/v1/integrations/pluralkit", integrationBody{Token: validPkToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("set: status %d", rec.Code)
	}

	rec, _ = f.do(t, http.MethodDelete, "/v1/integrations/pluralkit", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}

	rec, env := f.do(t, http.MethodGet, "/v1/integrations/pluralkit", nil)
	var view integrationView
	dataAs(t, env, &view)
	if view.Linked {
		t.Error("integration still linked after delete")
	}
}

func TestSyncMembersPush(t *testing.T) {
	f, fake := newIntegrationFixture(t)
	seedMember(t, f, "Alice")
	seedMember(t, f, "Bob")

	rec, _ := f.do(t, http.MethodPut, "/v1/integrations/pluralkit", integrationBody{
		Token:       validPkToken,
		SyncOptions: models.SyncOptions{Name: true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set integration: status %d", rec.Code)
	}

	rec, env := f.do(t, http.MethodPost, "/v1/integrations/pluralkit/sync-members/push", syncAllBody{})
	if rec.Code != http.StatusOK {
		t.Fatalf("push: status %d body %s", rec.Code, rec.Body.String())
	}
	var result models.OperationResult
	dataAs(t, env, &result)
	if !result.Success {
		t.Fatalf("push failed: %+v", result)
	}

	fake.mu.Lock()
	remoteCount := len(fake.members)
	fake.mu.Unlock()
	if remoteCount != 2 {
		t.Errorf("remote has %d members, want 2", remoteCount)
	}

	// Local members are now linked.
	members, err := f.store.Members.ListByUser(f.uid)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	for _, m := range members {
		if !m.Linked() {
			t.Errorf("member %s not linked after push", m.Name)
		}
	}
}

func TestSyncMembersPull(t *testing.T) {
	f, fake := newIntegrationFixture(t)
	fake.members = []pluralkit.Member{
		{ID: "pkaaa", Name: "Remote Alice", Pronouns: "she/her"},
	}

	rec, _ := f.do(t, http.MethodPut, "/v1/integrations/pluralkit", integrationBody{
		Token:       validPkToken,
		SyncOptions: models.SyncOptions{Name: true, Pronouns: true},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set integration: status %d", rec.Code)
	}

	rec, env := f.do(t, http.MethodPost, "/v1/integrations/pluralkit/sync-members/pull", syncAllBody{Add: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("pull: status %d body %s", rec.Code, rec.Body.String())
	}
	var result models.OperationResult
	dataAs(t, env, &result)
	if !result.Success {
		t.Fatalf("pull failed: %+v", result)
	}

	m, err := f.store.Members.GetByPkID(f.uid, "pkaaa")
	if err != nil {
		t.Fatalf("pulled member missing: %v", err)
	}
	if m.Name != "Remote Alice" || m.Pronouns != "she/her" {
		t.Errorf("pulled member = %+v", m)
	}
}

func TestSyncMembersWithoutLink(t *testing.T) {
	f, _ := newIntegrationFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/v1/integrations/pluralkit/sync-members/push", syncAllBody{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
