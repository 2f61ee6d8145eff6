// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/plurapi/switchboard/internal/models"
)

func seedEntry(t *testing.T, f *apiFixture) *models.FrontHistoryEntry {
	t.Helper()
	m := seedMember(t, f, "Alice")
	rec, env := f.do(t, http.MethodPost, "/v1/front-history", frontHistoryBody{
		MemberID:  m.ID,
		Live:      true,
		StartTime: 1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create entry: status %d body %s", rec.Code, rec.Body.String())
	}
	var entry models.FrontHistoryEntry
	dataAs(t, env, &entry)
	return &entry
}

func TestCommentCRUD(t *testing.T) {
	f := newAPIFixture(t, "")
	entry := seedEntry(t, f)
	base := "/v1/front-history/" + entry.ID + "/comments"

	rec, env := f.do(t, http.MethodPost, base, commentBody{Text: "went shopping", SupportMarkdown: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create comment: status %d body %s", rec.Code, rec.Body.String())
	}
	var created models.Comment
	dataAs(t, env, &created)
	if created.Text != "went shopping" || !created.SupportMarkdown || created.Time == 0 {
		t.Fatalf("unexpected comment %+v", created)
	}

	rec, env = f.do(t, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list comments: status %d", rec.Code)
	}
	var listed []models.Comment
	dataAs(t, env, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("listed %d comments, want the created one", len(listed))
	}

	rec, _ = f.do(t, http.MethodDelete, base+"/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete comment: status %d", rec.Code)
	}
	_, env = f.do(t, http.MethodGet, base, nil)
	listed = nil
	dataAs(t, env, &listed)
	if len(listed) != 0 {
		t.Fatalf("comment still listed after delete")
	}
}

func TestCommentRequiresEntry(t *testing.T) {
	f := newAPIFixture(t, "")

	rec, _ := f.do(t, http.MethodPost, "/v1/front-history/ghost/comments", commentBody{Text: "hi"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteEntryRemovesComments(t *testing.T) {
	f := newAPIFixture(t, "")
	entry := seedEntry(t, f)
	base := "/v1/front-history/" + entry.ID + "/comments"

	for i := 0; i < 3; i++ {
		rec, _ := f.do(t, http.MethodPost, base, commentBody{Text: fmt.Sprintf("note %d", i)})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create comment %d: status %d", i, rec.Code)
		}
	}

	rec, _ := f.do(t, http.MethodDelete, "/v1/front-history/"+entry.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete entry: status %d", rec.Code)
	}

	left, err := f.store.Comments.ListByDocument(f.uid, entry.ID)
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("%d comments left after entry delete", len(left))
	}
}
