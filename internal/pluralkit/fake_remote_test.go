// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pluralkit

import (
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
)

const fakeSystemID = "sysaa"

// fakeRemote is an in-memory stand-in for the remote API, serving the
// subset of endpoints the client uses.
type fakeRemote struct {
	mu       sync.Mutex
	switches map[string]*Switch
	members  map[string]*Member
	nextID   int

	// memberPatches records member-list PATCHes per switch id.
	memberPatches map[string][][]string
	inserts       []writeSwitch
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		switches:      make(map[string]*Switch),
		members:       make(map[string]*Member),
		memberPatches: make(map[string][][]string),
	}
}

func (f *fakeRemote) addSwitch(id string, ts time.Time, members ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if members == nil {
		members = []string{}
	}
	f.switches[id] = &Switch{ID: id, Timestamp: ts.UTC(), Members: members}
}

func (f *fakeRemote) serve(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return srv
}

func (f *fakeRemote) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case r.Method == "GET" && path == "systems/@me":
		writeJSON(w, System{ID: fakeSystemID})

	case r.Method == "GET" && path == "systems/"+fakeSystemID+"/switches":
		before, err := time.Parse(time.RFC3339, r.URL.Query().Get("before"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = switchPageSize
		}
		var list []Switch
		for _, sw := range f.switches {
			if sw.Timestamp.Before(before) {
				list = append(list, *sw)
			}
		}
		sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
		if len(list) > limit {
			list = list[:limit]
		}
		if list == nil {
			list = []Switch{}
		}
		writeJSON(w, list)

	case r.Method == "POST" && path == "systems/@me/switches":
		var ws writeSwitch
		if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.inserts = append(f.inserts, ws)
		f.nextID++
		id := fmt.Sprintf("sw%03d", f.nextID)
		f.switches[id] = &Switch{ID: id, Timestamp: ws.Timestamp, Members: ws.Members}
		writeJSON(w, f.switches[id])

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
		f.memberPatches[id] = append(f.memberPatches[id], members)
		writeJSON(w, sw)

	case r.Method == "PATCH" && strings.HasPrefix(path, "switches/"):
		id := strings.TrimPrefix(path, "switches/")
		sw, ok := f.switches[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var patch switchTimePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sw.Timestamp = patch.Timestamp
		writeJSON(w, sw)

	case r.Method == "DELETE" && strings.HasPrefix(path, "switches/"):
		delete(f.switches, strings.TrimPrefix(path, "switches/"))
		w.WriteHeader(http.StatusNoContent)

	case r.Method == "GET" && path == "systems/"+fakeSystemID+"/members":
		list := make([]Member, 0, len(f.members))
		for _, m := range f.members {
			list = append(list, *m)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		writeJSON(w, list)

	case r.Method == "POST" && path == "members":
		var wm WriteMember
		if err := json.NewDecoder(r.Body).Decode(&wm); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextID++
		id := fmt.Sprintf("mem%02d", f.nextID)
		m := &Member{ID: id, System: fakeSystemID, Name: wm.Name}
		if wm.Pronouns != nil {
			m.Pronouns = *wm.Pronouns
		}
		f.members[id] = m
		writeJSON(w, m)

	case r.Method == "GET" && strings.HasPrefix(path, "members/"):
		m, ok := f.members[strings.TrimPrefix(path, "members/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, m)

	case r.Method == "PATCH" && strings.HasPrefix(path, "members/"):
		id := strings.TrimPrefix(path, "members/")
		m, ok := f.members[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var wm WriteMember
		if err := json.NewDecoder(r.Body).Decode(&wm); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if wm.Name != "" {
			m.Name = wm.Name
		}
		if wm.Pronouns != nil {
			m.Pronouns = *wm.Pronouns
		}
		writeJSON(w, m)

	case r.Method == "DELETE" && strings.HasPrefix(path, "members/"):
		delete(f.members, strings.TrimPrefix(path, "members/"))
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// newTestSession wires a fake remote, dispatcher, and session together.
// Lane limits are high so tests are not paced by quota windows.
func newTestSession(t *testing.T, f *fakeRemote) *Session {
	t.Helper()
	srv := f.serve(t)
	d := startDispatcher(t, srv.URL, 100, 100)
	return NewClient(d).Session("test-token")
}
