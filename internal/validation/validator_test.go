// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package validation

import (
	"strings"
	"testing"
)

type memberBody struct {
	Name      string `validate:"required,max=100"`
	Color     string `validate:"omitempty,hexcolor"`
	AvatarURL string `validate:"omitempty,url,max=256"`
}

func TestValidateStructPasses(t *testing.T) {
	body := memberBody{Name: "Alice", Color: "#aabbcc", AvatarURL: "https://example.com/a.png"}
	if err := ValidateStruct(&body); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  memberBody
		field string
		tag   string
	}{
		{"missing name", memberBody{}, "Name", "required"},
		{"long name", memberBody{Name: strings.Repeat("a", 101)}, "Name", "max"},
		{"bad color", memberBody{Name: "A", Color: "red"}, "Color", "hexcolor"},
		{"bad avatar", memberBody{Name: "A", AvatarURL: "not a url"}, "AvatarURL", "url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.body)
			if err == nil {
				t.Fatal("expected validation error")
			}
			fields := err.Fields()
			if len(fields) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(fields), err)
			}
			if fields[0].Field != tt.field || fields[0].Tag != tt.tag {
				t.Errorf("failed field = %s/%s, want %s/%s",
					fields[0].Field, fields[0].Tag, tt.field, tt.tag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	err := ValidateStruct(&memberBody{Color: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if apiErr.Message == "" {
		t.Error("empty message")
	}
	details, ok := apiErr.Details.([]map[string]string)
	if !ok {
		t.Fatalf("details type %T", apiErr.Details)
	}
	if len(details) != 2 {
		t.Errorf("got %d detail entries, want 2", len(details))
	}
}
