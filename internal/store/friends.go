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
	friendKeyPrefix        = "friend:"
	friendRequestKeyPrefix = "friendreq:"
)

// FriendStore persists friendship settings under `friend:<uid>:<friendUid>`
// and pending requests under `friendreq:<receiver>:<id>`.
type FriendStore struct {
	db *badger.DB
}

func friendKey(uid, friendUID string) []byte {
	return []byte(friendKeyPrefix + uid + ":" + friendUID)
}

// Upsert stores one direction of a friendship.
func (s *FriendStore) Upsert(f *models.Friend) error {
	return putDoc(s.db, "friends", friendKey(f.UID, f.FriendUID), f)
}

// Get returns the settings uid has granted friendUID, or ErrNotFound.
func (s *FriendStore) Get(uid, friendUID string) (*models.Friend, error) {
	var f models.Friend
	if err := getDoc(s.db, "friends", friendKey(uid, friendUID), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListByUser returns all friendships granted by uid.
func (s *FriendStore) ListByUser(uid string) ([]*models.Friend, error) {
	return scanPrefix[models.Friend](s.db, "friends", []byte(friendKeyPrefix+uid+":"), nil)
}

// Delete removes both directions of a friendship between a and b.
func (s *FriendStore) Delete(a, b string) error {
	if err := deleteDoc(s.db, "friends", friendKey(a, b)); err != nil {
		return err
	}
	return deleteDoc(s.db, "friends", friendKey(b, a))
}

// InsertRequest stores a pending friend request addressed to its receiver.
func (s *FriendStore) InsertRequest(r *models.FriendRequest) error {
	return putDoc(s.db, "friend_requests", []byte(friendRequestKeyPrefix+r.Receiver+":"+r.ID), r)
}

// GetRequest returns a pending request by receiver and id, or ErrNotFound.
func (s *FriendStore) GetRequest(receiver, id string) (*models.FriendRequest, error) {
	var r models.FriendRequest
	if err := getDoc(s.db, "friend_requests", []byte(friendRequestKeyPrefix+receiver+":"+id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRequests returns all pending requests addressed to receiver.
func (s *FriendStore) ListRequests(receiver string) ([]*models.FriendRequest, error) {
	return scanPrefix[models.FriendRequest](s.db, "friend_requests", []byte(friendRequestKeyPrefix+receiver+":"), nil)
}

// DeleteRequest removes a pending request.
func (s *FriendStore) DeleteRequest(receiver, id string) error {
	return deleteDoc(s.db, "friend_requests", []byte(friendRequestKeyPrefix+receiver+":"+id))
}
