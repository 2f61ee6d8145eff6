// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pluralkit

import (
	"context"
	"sort"
	"time"
)

const (
	// switchPageSize is the page size for timeline pagination, the
	// remote API's maximum.
	switchPageSize = 100

	// windowLookahead extends a window query past its end so switches
	// that close the last interval are always captured.
	windowLookahead = 3 * time.Hour
)

// maxWindowPages bounds backward pagination. A window needing more pages
// than this is denser than the sync model supports.
var maxWindowPages = 1000

// GetSwitchAtExactTimestamp returns the switch whose timestamp equals t,
// or nil when no switch starts at exactly that instant.
func (s *Session) GetSwitchAtExactTimestamp(ctx context.Context, t time.Time) (*Switch, error) {
	// Query strictly-before t+1ms so a switch at exactly t is included.
	switches, err := s.GetSwitches(ctx, t.Add(time.Millisecond), 1)
	if err != nil {
		return nil, err
	}
	if len(switches) == 0 {
		return nil, nil
	}
	if !switches[0].Timestamp.Equal(t) {
		return nil, nil
	}
	return &switches[0], nil
}

// GetSwitchesBetween returns, oldest first, every switch relevant to the
// interval [start, end]: the switch active at start (the bookend), all
// switches starting inside the interval, and switches shortly after end
// within the lookahead. Pagination walks backward from end+lookahead in
// fixed pages; a window that cannot be traversed within the page bound
// fails with ErrWindowTooDense rather than returning a silently
// incomplete timeline.
func (s *Session) GetSwitchesBetween(ctx context.Context, start, end time.Time) ([]Switch, error) {
	// Bookend: the newest switch at or before start.
	bookend, err := s.GetSwitches(ctx, start.Add(time.Millisecond), 1)
	if err != nil {
		return nil, err
	}

	collected := make(map[string]Switch)
	for _, sw := range bookend {
		collected[sw.ID] = sw
	}

	before := end.Add(windowLookahead)
	for page := 0; ; page++ {
		if page >= maxWindowPages {
			return nil, ErrWindowTooDense
		}

		switches, err := s.GetSwitches(ctx, before, switchPageSize)
		if err != nil {
			return nil, err
		}
		for _, sw := range switches {
			collected[sw.ID] = sw
		}
		if len(switches) < switchPageSize {
			break
		}

		oldest := switches[len(switches)-1].Timestamp
		if !oldest.After(start) {
			break
		}
		if !oldest.Before(before) {
			// A full page that makes no backward progress means more
			// than a page of switches share one timestamp.
			return nil, ErrWindowTooDense
		}
		before = oldest
	}

	var floor time.Time
	if len(bookend) > 0 {
		floor = bookend[0].Timestamp
	} else {
		floor = start
	}

	out := make([]Switch, 0, len(collected))
	for _, sw := range collected {
		if sw.Timestamp.Before(floor) {
			continue
		}
		out = append(out, sw)
	}
	sortSwitches(out)
	return out, nil
}

// AddMemberToSwitches adds memberID to every given switch that does not
// already include it.
func (s *Session) AddMemberToSwitches(ctx context.Context, switches []Switch, memberID string) error {
	return s.AddMembersToSwitches(ctx, switches, []string{memberID})
}

// AddMembersToSwitches adds each member id to every given switch,
// skipping switches already containing all of them.
func (s *Session) AddMembersToSwitches(ctx context.Context, switches []Switch, memberIDs []string) error {
	for _, sw := range switches {
		members := append([]string(nil), sw.Members...)
		changed := false
		for _, id := range memberIDs {
			if !contains(members, id) {
				members = append(members, id)
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := s.UpdateSwitchMembers(ctx, sw.ID, members); err != nil {
			return err
		}
	}
	return nil
}

// RemoveMemberFromSwitches removes memberID from every given switch that
// includes it.
func (s *Session) RemoveMemberFromSwitches(ctx context.Context, switches []Switch, memberID string) error {
	for _, sw := range switches {
		if !sw.HasMember(memberID) {
			continue
		}
		members := make([]string, 0, len(sw.Members))
		for _, m := range sw.Members {
			if m != memberID {
				members = append(members, m)
			}
		}
		if err := s.UpdateSwitchMembers(ctx, sw.ID, members); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceMemberInSwitches swaps oldID for newID in every given switch
// containing oldID. Switches already holding newID just drop oldID.
func (s *Session) ReplaceMemberInSwitches(ctx context.Context, switches []Switch, oldID, newID string) error {
	for _, sw := range switches {
		if !sw.HasMember(oldID) {
			continue
		}
		members := make([]string, 0, len(sw.Members))
		for _, m := range sw.Members {
			if m == oldID {
				continue
			}
			members = append(members, m)
		}
		if !contains(members, newID) {
			members = append(members, newID)
		}
		if err := s.UpdateSwitchMembers(ctx, sw.ID, members); err != nil {
			return err
		}
	}
	return nil
}

// SwitchesInInterval filters switches to those with timestamps inside
// [start, end], inclusive.
func SwitchesInInterval(switches []Switch, start, end time.Time) []Switch {
	var out []Switch
	for _, sw := range switches {
		if sw.Timestamp.Before(start) || sw.Timestamp.After(end) {
			continue
		}
		out = append(out, sw)
	}
	return out
}

func sortSwitches(switches []Switch) {
	sort.Slice(switches, func(i, j int) bool {
		return switches[i].Timestamp.Before(switches[j].Timestamp)
	})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
