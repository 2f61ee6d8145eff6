// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// BasicAuthManager verifies HTTP Basic credentials against a single
// operator account. The password is bcrypt-hashed at construction so
// the plaintext is not retained and per-request checks are timing-safe.
type BasicAuthManager struct {
	username     string
	passwordHash []byte
}

// NewBasicAuthManager hashes the operator password and returns a
// manager for it. Both fields are required.
func NewBasicAuthManager(username, password string) (*BasicAuthManager, error) {
	if username == "" {
		return nil, fmt.Errorf("admin username is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("admin password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &BasicAuthManager{username: username, passwordHash: hash}, nil
}

// ValidateCredentials checks an Authorization header carrying Basic
// credentials. Comparison is constant time for both fields.
func (m *BasicAuthManager) ValidateCredentials(authHeader string) error {
	const prefix = "Basic "
	if !strings.HasPrefix(authHeader, prefix) {
		return fmt.Errorf("authorization header is not Basic")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, prefix))
	if err != nil {
		return fmt.Errorf("malformed Basic credentials")
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok {
		return fmt.Errorf("malformed Basic credentials")
	}

	// Evaluate both comparisons unconditionally so a wrong username
	// costs the same as a wrong password.
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil
	if !usernameMatch || !passwordMatch {
		return fmt.Errorf("invalid username or password")
	}
	return nil
}

// WWWAuthenticate returns the challenge header value sent alongside
// 401 responses.
func (m *BasicAuthManager) WWWAuthenticate() string {
	return `Basic realm="Switchboard", charset="UTF-8"`
}
