// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package store

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/plurapi/switchboard/internal/models"
)

const (
	groupKeyPrefix   = "group:"
	commentKeyPrefix = "comment:"
)

// GroupStore persists groups under `group:<uid>:<id>`.
type GroupStore struct {
	db *badger.DB
}

func groupKey(uid, id string) []byte {
	return []byte(groupKeyPrefix + uid + ":" + id)
}

// Insert stores a new group.
func (s *GroupStore) Insert(g *models.Group) error {
	return putDoc(s.db, "groups", groupKey(g.UID, g.ID), g)
}

// Get returns the group with the given id, or ErrNotFound.
func (s *GroupStore) Get(uid, id string) (*models.Group, error) {
	var g models.Group
	if err := getDoc(s.db, "groups", groupKey(uid, id), &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Update overwrites an existing group.
func (s *GroupStore) Update(g *models.Group) error {
	return putDoc(s.db, "groups", groupKey(g.UID, g.ID), g)
}

// Delete removes a group.
func (s *GroupStore) Delete(uid, id string) error {
	return deleteDoc(s.db, "groups", groupKey(uid, id))
}

// ListByUser returns all groups belonging to uid.
func (s *GroupStore) ListByUser(uid string) ([]*models.Group, error) {
	return scanPrefix[models.Group](s.db, "groups", []byte(groupKeyPrefix+uid+":"), nil)
}

// RemoveMember strips memberID from every group of uid that contains it.
// Used when a member is deleted.
func (s *GroupStore) RemoveMember(uid, memberID string) error {
	groups, err := s.ListByUser(uid)
	if err != nil {
		return err
	}
	for _, g := range groups {
		kept := g.Members[:0]
		removed := false
		for _, m := range g.Members {
			if m == memberID {
				removed = true
				continue
			}
			kept = append(kept, m)
		}
		if removed {
			g.Members = kept
			if err := s.Update(g); err != nil {
				return err
			}
		}
	}
	return nil
}

// CommentStore persists comments under `comment:<uid>:<documentId>:<id>`.
type CommentStore struct {
	db *badger.DB
}

func commentKey(uid, documentID, id string) []byte {
	return []byte(commentKeyPrefix + uid + ":" + documentID + ":" + id)
}

// Insert stores a new comment.
func (s *CommentStore) Insert(c *models.Comment) error {
	return putDoc(s.db, "comments", commentKey(c.UID, c.DocumentID, c.ID), c)
}

// ListByDocument returns all comments on a document.
func (s *CommentStore) ListByDocument(uid, documentID string) ([]*models.Comment, error) {
	return scanPrefix[models.Comment](s.db, "comments", []byte(commentKeyPrefix+uid+":"+documentID+":"), nil)
}

// Delete removes a single comment.
func (s *CommentStore) Delete(uid, documentID, id string) error {
	return deleteDoc(s.db, "comments", commentKey(uid, documentID, id))
}

// DeleteByDocument removes all comments attached to a document, returning
// how many were removed. Called when a front history entry is deleted.
func (s *CommentStore) DeleteByDocument(uid, documentID string) (int, error) {
	return deletePrefix(s.db, "comments", []byte(commentKeyPrefix+uid+":"+documentID+":"))
}
