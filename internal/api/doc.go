// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package api serves the HTTP surface: front history, members, friends,
// groups, the PluralKit integration endpoints, and the websocket
// upgrade. All /v1 routes except /v1/health require a bearer token;
// handlers scope every read and write to the authenticated uid.
//
// Front-history mutations publish a front.changed event on the
// in-process bus. That event is the only path into the PluralKit sync
// queue and the front summary recompute, so handlers never talk to
// PluralKit directly except for the synchronous bulk member sync
// endpoints.
package api
