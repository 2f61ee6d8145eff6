// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package store

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/plurapi/switchboard/internal/models"
)

const memberKeyPrefix = "member:"

// MemberStore persists members under `member:<uid>:<id>`.
type MemberStore struct {
	db *badger.DB
}

func memberKey(uid, id string) []byte {
	return []byte(memberKeyPrefix + uid + ":" + id)
}

// Insert stores a new member document.
func (s *MemberStore) Insert(m *models.Member) error {
	return putDoc(s.db, "members", memberKey(m.UID, m.ID), m)
}

// Get returns the member with the given id, or ErrNotFound.
func (s *MemberStore) Get(uid, id string) (*models.Member, error) {
	var m models.Member
	if err := getDoc(s.db, "members", memberKey(uid, id), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update overwrites an existing member document.
func (s *MemberStore) Update(m *models.Member) error {
	return putDoc(s.db, "members", memberKey(m.UID, m.ID), m)
}

// Delete removes a member document.
func (s *MemberStore) Delete(uid, id string) error {
	return deleteDoc(s.db, "members", memberKey(uid, id))
}

// ListByUser returns all members belonging to uid.
func (s *MemberStore) ListByUser(uid string) ([]*models.Member, error) {
	return scanPrefix[models.Member](s.db, "members", []byte(memberKeyPrefix+uid+":"), nil)
}

// GetByPkID returns the member of uid linked to the given PluralKit id,
// or ErrNotFound when no member carries that link.
func (s *MemberStore) GetByPkID(uid, pkID string) (*models.Member, error) {
	members, err := scanPrefix[models.Member](s.db, "members", []byte(memberKeyPrefix+uid+":"), func(m *models.Member) bool {
		return m.PkID == pkID
	})
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, ErrNotFound
	}
	return members[0], nil
}

// Count returns the number of members belonging to uid.
func (s *MemberStore) Count(uid string) (int, error) {
	return countPrefix(s.db, []byte(memberKeyPrefix+uid+":"))
}
