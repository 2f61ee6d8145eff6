// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package store

import (
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/plurapi/switchboard/internal/models"
)

const frontHistoryKeyPrefix = "fronthistory:"

// FrontHistoryStore persists front history entries under
// `fronthistory:<uid>:<id>`.
type FrontHistoryStore struct {
	db *badger.DB
}

func frontHistoryKey(uid, id string) []byte {
	return []byte(frontHistoryKeyPrefix + uid + ":" + id)
}

// Insert stores a new front history entry.
func (s *FrontHistoryStore) Insert(e *models.FrontHistoryEntry) error {
	return putDoc(s.db, "front_history", frontHistoryKey(e.UID, e.ID), e)
}

// Get returns the entry with the given id, or ErrNotFound.
func (s *FrontHistoryStore) Get(uid, id string) (*models.FrontHistoryEntry, error) {
	var e models.FrontHistoryEntry
	if err := getDoc(s.db, "front_history", frontHistoryKey(uid, id), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update overwrites an existing entry.
func (s *FrontHistoryStore) Update(e *models.FrontHistoryEntry) error {
	return putDoc(s.db, "front_history", frontHistoryKey(e.UID, e.ID), e)
}

// Delete removes an entry.
func (s *FrontHistoryStore) Delete(uid, id string) error {
	return deleteDoc(s.db, "front_history", frontHistoryKey(uid, id))
}

// ListByUser returns all entries for uid ordered by start time ascending.
func (s *FrontHistoryStore) ListByUser(uid string) ([]*models.FrontHistoryEntry, error) {
	entries, err := scanPrefix[models.FrontHistoryEntry](s.db, "front_history", []byte(frontHistoryKeyPrefix+uid+":"), nil)
	if err != nil {
		return nil, err
	}
	sortByStart(entries)
	return entries, nil
}

// ListRange returns entries overlapping [start, end] (Unix millis),
// ordered by start time ascending. Live entries overlap every range that
// is not entirely before their start.
func (s *FrontHistoryStore) ListRange(uid string, start, end int64) ([]*models.FrontHistoryEntry, error) {
	entries, err := scanPrefix[models.FrontHistoryEntry](s.db, "front_history", []byte(frontHistoryKeyPrefix+uid+":"), func(e *models.FrontHistoryEntry) bool {
		if e.StartTime > end {
			return false
		}
		return e.Live || e.EndTime >= start
	})
	if err != nil {
		return nil, err
	}
	sortByStart(entries)
	return entries, nil
}

// LiveEntries returns the entries currently fronting for uid.
func (s *FrontHistoryStore) LiveEntries(uid string) ([]*models.FrontHistoryEntry, error) {
	entries, err := scanPrefix[models.FrontHistoryEntry](s.db, "front_history", []byte(frontHistoryKeyPrefix+uid+":"), func(e *models.FrontHistoryEntry) bool {
		return e.Live
	})
	if err != nil {
		return nil, err
	}
	sortByStart(entries)
	return entries, nil
}

// LiveEntryForMember returns the live entry for a specific member, or
// ErrNotFound when the member is not fronting.
func (s *FrontHistoryStore) LiveEntryForMember(uid, memberID string) (*models.FrontHistoryEntry, error) {
	entries, err := scanPrefix[models.FrontHistoryEntry](s.db, "front_history", []byte(frontHistoryKeyPrefix+uid+":"), func(e *models.FrontHistoryEntry) bool {
		return e.Live && e.MemberID == memberID
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries[0], nil
}

func sortByStart(entries []*models.FrontHistoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].ID < entries[j].ID
	})
}
