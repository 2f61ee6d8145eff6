// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pksync

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/pluralkit"
	"github.com/plurapi/switchboard/internal/store"
)

const testSystemID = "syszz"

type pkSwitch struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Members   []string  `json:"members"`
}

type pkMember struct {
	ID          string `json:"id"`
	System      string `json:"system,omitempty"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Color       string `json:"color,omitempty"`
	Pronouns    string `json:"pronouns,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// fakePK is an in-memory PluralKit standing in for the real API.
type fakePK struct {
	mu       sync.Mutex
	switches map[string]*pkSwitch
	members  map[string]*pkMember
	nextID   int

	// failStatus, when set, answers matching requests with that status
	// instead of serving them. A nil failOn matches every request.
	failStatus int
	failOn     func(path string) bool
}

func newFakePK() *fakePK {
	return &fakePK{
		switches: make(map[string]*pkSwitch),
		members:  make(map[string]*pkMember),
	}
}

func (f *fakePK) addSwitch(ts time.Time, members ...string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("sw%03d", f.nextID)
	if members == nil {
		members = []string{}
	}
	f.switches[id] = &pkSwitch{ID: id, Timestamp: ts.UTC(), Members: members}
	return id
}

func (f *fakePK) addMember(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("pkm%02d", f.nextID)
	f.members[id] = &pkMember{ID: id, System: testSystemID, Name: name}
	return id
}

// switchAt returns the switch at exactly ts, or nil.
func (f *fakePK) switchAt(ts time.Time) *pkSwitch {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sw := range f.switches {
		if sw.Timestamp.Equal(ts.UTC()) {
			return sw
		}
	}
	return nil
}

func (f *fakePK) sortedSwitches() []*pkSwitch {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*pkSwitch, 0, len(f.switches))
	for _, sw := range f.switches {
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

func (f *fakePK) memberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members)
}

// failWith makes matching requests answer status instead of serving
// them. A nil match fails every request.
func (f *fakePK) failWith(status int, match func(path string) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus = status
	f.failOn = match
}

func (f *fakePK) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	if f.failStatus != 0 && (f.failOn == nil || f.failOn(path)) {
		w.WriteHeader(f.failStatus)
		return
	}
	switch {
	case r.Method == "GET" && path == "systems/@me":
		writeBody(w, map[string]string{"id": testSystemID})

	case r.Method == "GET" && path == "systems/"+testSystemID+"/switches":
		before, err := time.Parse(time.RFC3339, r.URL.Query().Get("before"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 100
		}
		list := make([]*pkSwitch, 0)
		for _, sw := range f.switches {
			if sw.Timestamp.Before(before) {
				list = append(list, sw)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
		if len(list) > limit {
			list = list[:limit]
		}
		writeBody(w, list)

	case r.Method == "POST" && path == "systems/@me/switches":
		var body struct {
			Timestamp time.Time `json:"timestamp"`
			Members   []string  `json:"members"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextID++
		id := fmt.Sprintf("sw%03d", f.nextID)
		if body.Members == nil {
			body.Members = []string{}
		}
		f.switches[id] = &pkSwitch{ID: id, Timestamp: body.Timestamp.UTC(), Members: body.Members}
		writeBody(w, f.switches[id])

	case r.Method == "PATCH" && strings.HasPrefix(path, "switches/") && strings.HasSuffix(path, "/members"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "switches/"), "/members")
		sw, ok := f.switches[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var members []string
		if err := json.NewDecoder(r.Body).Decode(&members); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sw.Members = members
		writeBody(w, sw)

	case r.Method == "PATCH" && strings.HasPrefix(path, "switches/"):
		id := strings.TrimPrefix(path, "switches/")
		sw, ok := f.switches[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body struct {
			Timestamp time.Time `json:"timestamp"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sw.Timestamp = body.Timestamp.UTC()
		writeBody(w, sw)

	case r.Method == "DELETE" && strings.HasPrefix(path, "switches/"):
		delete(f.switches, strings.TrimPrefix(path, "switches/"))
		w.WriteHeader(http.StatusNoContent)

	case r.Method == "GET" && path == "systems/"+testSystemID+"/members":
		list := make([]*pkMember, 0, len(f.members))
		for _, m := range f.members {
			list = append(list, m)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		writeBody(w, list)

	case r.Method == "GET" && strings.HasPrefix(path, "members/"):
		m, ok := f.members[strings.TrimPrefix(path, "members/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeBody(w, m)

	case r.Method == "POST" && path == "members":
		var m pkMember
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextID++
		m.ID = fmt.Sprintf("pkm%02d", f.nextID)
		m.System = testSystemID
		f.members[m.ID] = &m
		writeBody(w, &m)

	case r.Method == "PATCH" && strings.HasPrefix(path, "members/"):
		id := strings.TrimPrefix(path, "members/")
		m, ok := f.members[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var patch pkMember
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if patch.Name != "" {
			m.Name = patch.Name
		}
		if patch.DisplayName != "" {
			m.DisplayName = patch.DisplayName
		}
		if patch.Pronouns != "" {
			m.Pronouns = patch.Pronouns
		}
		if patch.AvatarURL != "" {
			m.AvatarURL = patch.AvatarURL
		}
		if patch.Description != "" {
			m.Description = patch.Description
		}
		if patch.Color != "" {
			m.Color = patch.Color
		}
		writeBody(w, m)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeBody(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// engine bundles everything a reconciliation test needs.
type engine struct {
	fake    *fakePK
	store   *store.Store
	queue   *Queue
	client  *pluralkit.Client
	members *MemberSync
	rec     *Reconciler
	sess    *pluralkit.Session
}

func newTestEngine(t *testing.T) *engine {
	t.Helper()

	fake := newFakePK()
	srv := httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(srv.Close)

	st, err := store.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	d := pluralkit.NewDispatcher(pluralkit.DispatcherConfig{
		BaseURL:            srv.URL,
		MemberRateLimit:    100,
		FrontSyncRateLimit: 100,
		DispatchTimeout:    10 * time.Second,
		RequestTimeout:     5 * time.Second,
	}, st.DB())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go d.Serve(ctx) //nolint:errcheck

	client := pluralkit.NewClient(d)
	queue := NewQueue(st.DB())
	members := NewMemberSync(st, nil)
	return &engine{
		fake:    fake,
		store:   st,
		queue:   queue,
		client:  client,
		members: members,
		rec:     NewReconciler(queue, client, members),
		sess:    client.Session("test-token"),
	}
}

// addLinkedMember stores a local member already linked to a remote one.
func (e *engine) addLinkedMember(t *testing.T, uid, id, name string) string {
	t.Helper()
	pkID := e.fake.addMember(name)
	m := &models.Member{ID: id, UID: uid, Name: name, PkID: pkID}
	if err := e.store.Members.Insert(m); err != nil {
		t.Fatalf("insert member: %v", err)
	}
	return pkID
}

func (e *engine) enqueue(t *testing.T, in *Intent) {
	t.Helper()
	in.Token = "test-token"
	if err := e.queue.Add(in); err != nil {
		t.Fatalf("enqueue intent: %v", err)
	}
}

func (e *engine) run(t *testing.T, uid string) {
	t.Helper()
	if err := e.rec.Run(context.Background(), uid); err != nil {
		t.Fatalf("reconciliation pass: %v", err)
	}
}
