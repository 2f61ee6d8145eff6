// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package store

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/plurapi/switchboard/internal/models"
)

const (
	frontStatusKeyPrefix = "frontstatus:"
	summaryKeyPrefix     = "summary:"
)

// FrontStatusStore persists custom front documents under
// `frontstatus:<uid>:<id>`.
type FrontStatusStore struct {
	db *badger.DB
}

func frontStatusKey(uid, id string) []byte {
	return []byte(frontStatusKeyPrefix + uid + ":" + id)
}

// Insert stores a new custom front document.
func (s *FrontStatusStore) Insert(fs *models.FrontStatus) error {
	return putDoc(s.db, "front_statuses", frontStatusKey(fs.UID, fs.ID), fs)
}

// Get returns the custom front with the given id, or ErrNotFound.
func (s *FrontStatusStore) Get(uid, id string) (*models.FrontStatus, error) {
	var fs models.FrontStatus
	if err := getDoc(s.db, "front_statuses", frontStatusKey(uid, id), &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// Update replaces an existing custom front document.
func (s *FrontStatusStore) Update(fs *models.FrontStatus) error {
	return putDoc(s.db, "front_statuses", frontStatusKey(fs.UID, fs.ID), fs)
}

// Delete removes a custom front document.
func (s *FrontStatusStore) Delete(uid, id string) error {
	return deleteDoc(s.db, "front_statuses", frontStatusKey(uid, id))
}

// ListByUser returns all of a user's custom fronts.
func (s *FrontStatusStore) ListByUser(uid string) ([]*models.FrontStatus, error) {
	return scanPrefix[models.FrontStatus](s.db, "front_statuses", []byte(frontStatusKeyPrefix+uid+":"), nil)
}

// SummaryStore persists the two per-user front summaries under
// `summary:<uid>:shared` and `summary:<uid>:private`.
type SummaryStore struct {
	db *badger.DB
}

func summaryKey(uid string, private bool) []byte {
	tier := "shared"
	if private {
		tier = "private"
	}
	return []byte(summaryKeyPrefix + uid + ":" + tier)
}

// Get returns the summary for one visibility tier. A user who has never
// fronted gets an empty summary rather than ErrNotFound.
func (s *SummaryStore) Get(uid string, private bool) (*models.FrontSummary, error) {
	var sum models.FrontSummary
	err := getDoc(s.db, "summaries", summaryKey(uid, private), &sum)
	if errors.Is(err, ErrNotFound) {
		return &models.FrontSummary{UID: uid, Private: private}, nil
	}
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// Upsert stores a summary, creating or replacing it.
func (s *SummaryStore) Upsert(sum *models.FrontSummary) error {
	return putDoc(s.db, "summaries", summaryKey(sum.UID, sum.Private), sum)
}
