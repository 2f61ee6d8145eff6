// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/plurapi/switchboard/internal/models"
)

func TestMemberCRUD(t *testing.T) {
	f := newAPIFixture(t, "")

	rec, env := f.do(t, http.MethodPost, "/v1/members", memberBody{
		Name:     "Alice",
		Pronouns: "she/her",
		Color:    "#aabbcc",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var m models.Member
	dataAs(t, env, &m)
	if m.ID == "" || m.UID != f.uid || m.CreatedAt == 0 {
		t.Fatalf("unexpected member: %+v", m)
	}

	rec, env = f.do(t, http.MethodPut, "/v1/members/"+m.ID, memberBody{
		Name:    "Alice",
		Private: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	var updated models.Member
	dataAs(t, env, &updated)
	if !updated.Private || updated.Pronouns != "" {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.CreatedAt != m.CreatedAt {
		t.Errorf("CreatedAt changed on update")
	}

	rec, env = f.do(t, http.MethodGet, "/v1/members", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var members []models.Member
	dataAs(t, env, &members)
	if len(members) != 1 {
		t.Fatalf("got %d members, want 1", len(members))
	}

	rec, _ = f.do(t, http.MethodDelete, "/v1/members/"+m.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec, _ = f.do(t, http.MethodGet, "/v1/members/"+m.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestMemberValidation(t *testing.T) {
	f := newAPIFixture(t, "")

	tests := []struct {
		name string
		body memberBody
	}{
		{"missing name", memberBody{}},
		{"long name", memberBody{Name: strings.Repeat("a", 101)}},
		{"bad color", memberBody{Name: "A", Color: "chartreuse"}},
		{"bad avatar", memberBody{Name: "A", AvatarURL: "not-a-url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := f.do(t, http.MethodPost, "/v1/members", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
		})
	}
}

func TestDeleteMemberRemovesGroupReferences(t *testing.T) {
	f := newAPIFixture(t, "")
	m := seedMember(t, f, "Alice")

	rec, env := f.do(t, http.MethodPost, "/v1/groups", groupBody{
		Name:    "Inner circle",
		Members: []string{m.ID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create group: status %d body %s", rec.Code, rec.Body.String())
	}
	var g models.Group
	dataAs(t, env, &g)

	rec, _ = f.do(t, http.MethodDelete, "/v1/members/"+m.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete member: status %d", rec.Code)
	}

	rec, env = f.do(t, http.MethodGet, "/v1/groups/"+g.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get group: status %d", rec.Code)
	}
	var after models.Group
	dataAs(t, env, &after)
	if len(after.Members) != 0 {
		t.Errorf("group still references deleted member: %v", after.Members)
	}
}

func TestCustomFrontCRUD(t *testing.T) {
	f := newAPIFixture(t, "")

	rec, env := f.do(t, http.MethodPost, "/v1/custom-fronts", frontStatusBody{
		Name:    "Blurry",
		Private: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", rec.Code, rec.Body.String())
	}
	var fs models.FrontStatus
	dataAs(t, env, &fs)

	rec, env = f.do(t, http.MethodPut, "/v1/custom-fronts/"+fs.ID, frontStatusBody{
		Name: "Deep blur",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d", rec.Code)
	}
	var updated models.FrontStatus
	dataAs(t, env, &updated)
	if updated.Name != "Deep blur" || updated.Private {
		t.Errorf("update not applied: %+v", updated)
	}

	rec, env = f.do(t, http.MethodGet, "/v1/custom-fronts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	var fronts []models.FrontStatus
	dataAs(t, env, &fronts)
	if len(fronts) != 1 {
		t.Fatalf("got %d custom fronts, want 1", len(fronts))
	}

	rec, _ = f.do(t, http.MethodDelete, "/v1/custom-fronts/"+fs.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
}
