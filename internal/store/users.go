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
	userKeyPrefix        = "user:"
	integrationKeyPrefix = "integration:"
)

// UserStore persists user documents under `user:<id>`.
type UserStore struct {
	db *badger.DB
}

// Get returns the user with the given id, or ErrNotFound.
func (s *UserStore) Get(id string) (*models.User, error) {
	var u models.User
	if err := getDoc(s.db, "users", []byte(userKeyPrefix+id), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert stores a user document, creating or replacing it.
func (s *UserStore) Upsert(u *models.User) error {
	return putDoc(s.db, "users", []byte(userKeyPrefix+u.ID), u)
}

// Delete removes a user document.
func (s *UserStore) Delete(id string) error {
	return deleteDoc(s.db, "users", []byte(userKeyPrefix+id))
}

// IntegrationStore persists per-user PluralKit link settings under
// `integration:<uid>`.
type IntegrationStore struct {
	db *badger.DB
}

// Get returns the integration settings for uid, or ErrNotFound when the
// user has never linked PluralKit.
func (s *IntegrationStore) Get(uid string) (*models.Integration, error) {
	var in models.Integration
	if err := getDoc(s.db, "integrations", []byte(integrationKeyPrefix+uid), &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Upsert stores integration settings for a user.
func (s *IntegrationStore) Upsert(in *models.Integration) error {
	return putDoc(s.db, "integrations", []byte(integrationKeyPrefix+in.UID), in)
}

// Delete removes a user's integration settings, revoking the stored token.
func (s *IntegrationStore) Delete(uid string) error {
	return deleteDoc(s.db, "integrations", []byte(integrationKeyPrefix+uid))
}
