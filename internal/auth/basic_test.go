// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package auth

import (
	"encoding/base64"
	"strings"
	"testing"
)

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestBasicAuthValidCredentials(t *testing.T) {
	m, err := NewBasicAuthManager("operator", "hunter2hunter2")
	if err != nil {
		t.Fatalf("NewBasicAuthManager: %v", err)
	}
	if err := m.ValidateCredentials(basicHeader("operator", "hunter2hunter2")); err != nil {
		t.Fatalf("valid credentials rejected: %v", err)
	}
}

func TestBasicAuthRejections(t *testing.T) {
	m, err := NewBasicAuthManager("operator", "hunter2hunter2")
	if err != nil {
		t.Fatalf("NewBasicAuthManager: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"empty header", ""},
		{"bearer scheme", "Bearer sometoken"},
		{"bad base64", "Basic !!!"},
		{"missing colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("operator"))},
		{"wrong username", basicHeader("intruder", "hunter2hunter2")},
		{"wrong password", basicHeader("operator", "wrong-password")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.ValidateCredentials(tt.header); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}
}

func TestBasicAuthConstructorValidation(t *testing.T) {
	if _, err := NewBasicAuthManager("", "hunter2hunter2"); err == nil {
		t.Fatal("expected error for empty username")
	}
	if _, err := NewBasicAuthManager("operator", "short"); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestBasicAuthChallengeHeader(t *testing.T) {
	m, err := NewBasicAuthManager("operator", "hunter2hunter2")
	if err != nil {
		t.Fatalf("NewBasicAuthManager: %v", err)
	}
	if got := m.WWWAuthenticate(); !strings.HasPrefix(got, "Basic realm=") {
		t.Fatalf("unexpected challenge header %q", got)
	}
}
