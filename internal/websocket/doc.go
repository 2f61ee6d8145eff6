// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

/*
Package websocket pushes realtime updates to connected clients.

The Hub owns every connection and routes three kinds of traffic:

  - sync_progress: bulk member-sync progress, addressed to the user
    driving the sync (the Hub implements the sync engine's progress
    reporter)
  - front_update: the current fronter list, pushed to a user's
    connections whenever their front changes (FrontUpdatePusher
    subscribes to the front-change event bus)
  - notification: user notifications (the Hub implements notify.Notifier)

Connections are authenticated at upgrade time; each Client carries its
user id, so per-user routing is an index lookup. Delivery is best
effort: a client whose send buffer is full is disconnected rather than
allowed to stall the hub loop, and a user with no open connection simply
misses the message.

The Hub runs as a suture-supervised service. On shutdown every client's
send channel is closed, which unwinds its write pump and closes the
underlying connection.
*/
package websocket
