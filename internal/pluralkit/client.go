// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pluralkit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// isoMillis matches the wire format the remote API uses for timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Client issues remote calls through the dispatcher. It is stateless;
// per-user state (token, resolved system id) lives in Session.
type Client struct {
	d *Dispatcher
}

// NewClient wraps a dispatcher.
func NewClient(d *Dispatcher) *Client {
	return &Client{d: d}
}

// Session binds a user's token. The owning system's id is resolved
// lazily on first use and cached for the session's lifetime.
type Session struct {
	c     *Client
	token string

	mu       sync.Mutex
	systemID string
}

// Session creates a session for the given token.
func (c *Client) Session(token string) *Session {
	return &Session{c: c, token: token}
}

// do dispatches one call and decodes a 2xx body into out (when non-nil).
func (s *Session) do(ctx context.Context, lane Lane, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	resp, err := s.c.d.Dispatch(ctx, &Request{
		Lane:   lane,
		Method: method,
		Path:   path,
		Body:   payload,
		Token:  s.token,
	})
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// SystemID returns the id of the system owning the session token,
// resolving it on first call via `systems/@me`.
func (s *Session) SystemID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.systemID != "" {
		return s.systemID, nil
	}

	var sys System
	if err := s.do(ctx, LaneFrontSync, "GET", "systems/@me", nil, &sys); err != nil {
		return "", err
	}
	s.systemID = sys.ID
	return s.systemID, nil
}

// GetSystem returns the system owning the session token.
func (s *Session) GetSystem(ctx context.Context) (*System, error) {
	var sys System
	if err := s.do(ctx, LaneFrontSync, "GET", "systems/@me", nil, &sys); err != nil {
		return nil, err
	}
	return &sys, nil
}

// GetSwitches returns up to limit switches strictly before the given
// instant, newest first.
func (s *Session) GetSwitches(ctx context.Context, before time.Time, limit int) ([]Switch, error) {
	sysID, err := s.SystemID(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("before", before.UTC().Format(isoMillis))
	q.Set("limit", strconv.Itoa(limit))

	var switches []Switch
	if err := s.do(ctx, LaneFrontSync, "GET", "systems/"+sysID+"/switches?"+q.Encode(), nil, &switches); err != nil {
		return nil, err
	}
	return switches, nil
}

// InsertSwitch creates a switch at ts with the given members.
func (s *Session) InsertSwitch(ctx context.Context, ts time.Time, members []string) error {
	if members == nil {
		members = []string{}
	}
	return s.do(ctx, LaneFrontSync, "POST", "systems/@me/switches", writeSwitch{
		Timestamp: ts.UTC(),
		Members:   members,
	}, nil)
}

// UpdateSwitchMembers replaces the member list of a switch.
func (s *Session) UpdateSwitchMembers(ctx context.Context, switchID string, members []string) error {
	if members == nil {
		members = []string{}
	}
	return s.do(ctx, LaneFrontSync, "PATCH", "switches/"+switchID+"/members", switchMembersPatch(members), nil)
}

// UpdateSwitchTime moves a switch's timestamp.
func (s *Session) UpdateSwitchTime(ctx context.Context, switchID string, ts time.Time) error {
	return s.do(ctx, LaneFrontSync, "PATCH", "switches/"+switchID, switchTimePatch{Timestamp: ts.UTC()}, nil)
}

// DeleteSwitch removes a switch from the timeline.
func (s *Session) DeleteSwitch(ctx context.Context, switchID string) error {
	return s.do(ctx, LaneFrontSync, "DELETE", "switches/"+switchID, nil, nil)
}

// GetMembers returns all members of the session's system.
func (s *Session) GetMembers(ctx context.Context) ([]Member, error) {
	sysID, err := s.SystemID(ctx)
	if err != nil {
		return nil, err
	}
	var members []Member
	if err := s.do(ctx, LaneMember, "GET", "systems/"+sysID+"/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetMember returns one member by id.
func (s *Session) GetMember(ctx context.Context, id string) (*Member, error) {
	var m Member
	if err := s.do(ctx, LaneMember, "GET", "members/"+id, nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMember creates a member and returns the remote document,
// including its assigned id.
func (s *Session) InsertMember(ctx context.Context, w *WriteMember) (*Member, error) {
	var m Member
	if err := s.do(ctx, LaneMember, "POST", "members", w, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMember patches a member's fields.
func (s *Session) UpdateMember(ctx context.Context, id string, w *WriteMember) (*Member, error) {
	var m Member
	if err := s.do(ctx, LaneMember, "PATCH", "members/"+id, w, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMember removes a member.
func (s *Session) DeleteMember(ctx context.Context, id string) error {
	return s.do(ctx, LaneMember, "DELETE", "members/"+id, nil, nil)
}
