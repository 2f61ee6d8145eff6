// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package models defines the domain documents stored in the document
// store and the shared API response types.
//
// Times are carried as Unix milliseconds in stored documents so that
// interval arithmetic in the reconciliation engine stays integer-based;
// helpers convert to time.Time at the edges.
package models
