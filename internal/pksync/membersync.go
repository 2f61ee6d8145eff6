// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pksync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/pluralkit"
	"github.com/plurapi/switchboard/internal/store"
)

// Remote field length limits.
const (
	maxNameLength        = 100
	maxAvatarURLLength   = 256
	maxPronounsLength    = 100
	maxDescriptionLength = 1000
)

var hexColor = regexp.MustCompile(`^[a-fA-F0-9]{6}$`)

// ProgressReporter pushes bulk-sync progress to a connected client.
// Delivery is best effort; reconciliation never depends on it.
type ProgressReporter interface {
	SyncProgress(uid string, p models.SyncProgress)
}

// NopProgress discards progress updates.
type NopProgress struct{}

func (NopProgress) SyncProgress(string, models.SyncProgress) {}

// MemberSync mirrors member profiles between the local store and
// PluralKit, in either direction.
type MemberSync struct {
	store    *store.Store
	progress ProgressReporter
	log      zerolog.Logger
}

// NewMemberSync builds the member syncer. progress may be nil.
func NewMemberSync(st *store.Store, progress ProgressReporter) *MemberSync {
	if progress == nil {
		progress = NopProgress{}
	}
	return &MemberSync{
		store:    st,
		progress: progress,
		log:      logging.With().Str("component", "membersync").Logger(),
	}
}

// localColorToPk normalizes a locally stored color (#ffffff, ffffff or
// #ffffffff) to the six-hex-digit form the remote accepts.
func localColorToPk(color string) (string, bool) {
	var out string
	switch len(color) {
	case 7, 9:
		out = color[1:7]
	case 6:
		out = color
	default:
		return "", false
	}
	if !hexColor.MatchString(out) {
		return "", false
	}
	return out, true
}

func limitLength(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func validAvatarURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// buildWritePayload assembles the remote write body for a local member,
// honoring the per-field sync options and remote length limits.
func buildWritePayload(m *models.Member, opts models.SyncOptions) *pluralkit.WriteMember {
	name := limitLength(m.Name, maxNameLength)
	avatar := limitLength(m.AvatarURL, maxAvatarURLLength)
	pronouns := limitLength(m.Pronouns, maxPronounsLength)
	desc := limitLength(m.Description, maxDescriptionLength)

	w := &pluralkit.WriteMember{}
	if opts.Name {
		if opts.UseDisplayName {
			w.DisplayName = &name
		} else {
			w.Name = name
		}
	}
	if opts.Avatar && avatar != "" && validAvatarURL(avatar) {
		w.AvatarURL = &avatar
	}
	if opts.Pronouns && pronouns != "" {
		w.Pronouns = &pronouns
	}
	if opts.Description && desc != "" {
		w.Description = &desc
	}
	if opts.Color && m.Color != "" {
		if c, ok := localColorToPk(m.Color); ok {
			w.Color = &c
		}
	}
	return w
}

// resultFor turns a sync error into the structured result surfaced to
// interactive callers.
func resultFor(err error) models.OperationResult {
	switch {
	case err == nil:
		return models.OperationResult{Success: true}
	case errors.Is(err, pluralkit.ErrInvalidCredential):
		return models.OperationResult{Message: "Failed to sync. PluralKit token is invalid."}
	case errors.Is(err, pluralkit.ErrAccessDenied):
		return models.OperationResult{Message: "Failed to sync. You do not have access to this member."}
	case errors.Is(err, pluralkit.ErrRemoteUnavailable):
		return models.OperationResult{Message: "Failed to sync. We're unable to reach PluralKit."}
	default:
		var re *pluralkit.RemoteError
		if errors.As(err, &re) {
			return models.OperationResult{Message: fmt.Sprintf("Failed to sync. PluralKit returned %d.", re.Code)}
		}
		return models.OperationResult{Message: "Unable to reach PluralKit's servers"}
	}
}

// SyncMemberToPk pushes one local member's profile to the remote system,
// creating the remote member (and storing the returned id) when the
// member is not linked yet or its link turns out to be stale. known, if
// non-nil, is the already-fetched remote member, sparing a lookup during
// bulk syncs; knownSystemID guards against a token that resolves to a
// different system than the link was made under.
func (ms *MemberSync) SyncMemberToPk(ctx context.Context, sess *pluralkit.Session, uid, memberID string, opts models.SyncOptions, known *pluralkit.Member, knownSystemID string) (msg string, err error) {
	defer func() { metrics.RecordMemberSync("push", err) }()

	m, err := ms.store.Members.Get(uid, memberID)
	if errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("member %s: %w", memberID, store.ErrNotFound)
	}
	if err != nil {
		return "", err
	}

	payload := buildWritePayload(m, opts)
	name := limitLength(m.Name, maxNameLength)

	if m.Linked() {
		remote := known
		if remote == nil {
			remote, err = sess.GetMember(ctx, m.PkID)
			switch {
			case errors.Is(err, pluralkit.ErrNotFound), errors.Is(err, pluralkit.ErrAccessDenied):
				// Stale link; fall through and recreate.
				remote = nil
				err = nil
			case err != nil:
				return "", err
			}
		}
		// A member fetched under a different system than the session's
		// belongs to someone else's old link.
		if remote != nil && knownSystemID != "" && remote.System != "" && remote.System != knownSystemID {
			remote = nil
		}

		if remote != nil {
			if _, err = sess.UpdateMember(ctx, m.PkID, payload); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s updated on PluralKit", name), nil
		}
	}

	payload.Name = name
	inserted, err := sess.InsertMember(ctx, payload)
	if err != nil {
		return "", err
	}
	m.PkID = inserted.ID
	m.UpdatedAt = time.Now().UnixMilli()
	if err = ms.store.Members.Update(m); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s added to PluralKit", name), nil
}

// SyncMemberFromPk pulls one remote member's profile into the local
// store, creating a local member when none is linked to the remote id.
// data, if non-nil, is the already-fetched remote member.
func (ms *MemberSync) SyncMemberFromPk(ctx context.Context, sess *pluralkit.Session, uid, pkID string, opts models.SyncOptions, data *pluralkit.Member, privateByDefault bool) (msg string, err error) {
	defer func() { metrics.RecordMemberSync("pull", err) }()

	if data == nil {
		data, err = sess.GetMember(ctx, pkID)
		if err != nil {
			return "", err
		}
	}

	local, err := ms.store.Members.GetByPkID(uid, pkID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	// A member with no local counterpart gets every field regardless of
	// the per-field options.
	force := local == nil

	if local == nil {
		local = &models.Member{UID: uid, PkID: pkID}
		if privateByDefault || (data.Privacy != nil && data.Privacy.Visibility == "private") {
			local.Private = true
			local.PreventTrusted = true
		}
	}

	if opts.Name || force {
		if opts.UseDisplayName && data.DisplayName != "" {
			local.Name = data.DisplayName
		} else {
			local.Name = data.Name
		}
	}
	if (opts.Avatar || force) && data.AvatarURL != "" {
		local.AvatarURL = data.AvatarURL
	}
	if (opts.Pronouns || force) && data.Pronouns != "" {
		local.Pronouns = data.Pronouns
	}
	if (opts.Description || force) && data.Description != "" {
		local.Description = data.Description
	}
	if (opts.Color || force) && data.Color != "" {
		local.Color = data.Color
	}

	now := time.Now().UnixMilli()
	local.UpdatedAt = now
	if force {
		local.CreatedAt = now
		if err = ms.store.Members.Insert(local); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s added to Switchboard", local.Name), nil
	}
	if err = ms.store.Members.Update(local); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s updated on Switchboard", local.Name), nil
}

// SyncAllToPk pushes every local member to PluralKit, reporting progress
// at most once per second.
func (ms *MemberSync) SyncAllToPk(ctx context.Context, sess *pluralkit.Session, uid string, opts models.SyncOptions) models.OperationResult {
	locals, err := ms.store.Members.ListByUser(uid)
	if err != nil {
		return models.OperationResult{Message: "Failed to load members."}
	}

	ms.report(uid, "push", 0, len(locals), false)

	systemID, err := sess.SystemID(ctx)
	if err != nil {
		return resultFor(err)
	}
	remotes, err := sess.GetMembers(ctx)
	if err != nil {
		return resultFor(err)
	}
	byPkID := make(map[string]*pluralkit.Member, len(remotes))
	for i := range remotes {
		byPkID[remotes[i].ID] = &remotes[i]
	}

	var lastUpdate time.Time
	for i, m := range locals {
		if time.Since(lastUpdate) > time.Second {
			ms.report(uid, "push", i+1, len(locals), false)
			lastUpdate = time.Now()
		}
		if _, err := ms.SyncMemberToPk(ctx, sess, uid, m.ID, opts, byPkID[m.PkID], systemID); err != nil {
			ms.log.Warn().Err(err).Str("uid", uid).Str("member", m.ID).Msg("push sync failed for member")
		}
	}

	ms.report(uid, "push", len(locals), len(locals), true)
	return models.OperationResult{Success: true, Message: "Sync completed"}
}

// SyncAllFromPk pulls remote members into the local store per the bulk
// options: Overwrite updates already-linked members, Add creates members
// with no local counterpart.
func (ms *MemberSync) SyncAllFromPk(ctx context.Context, sess *pluralkit.Session, uid string, opts models.SyncOptions, all models.SyncAllOptions) models.OperationResult {
	ms.report(uid, "pull", 0, 0, false)

	remotes, err := sess.GetMembers(ctx)
	if err != nil {
		return resultFor(err)
	}

	var lastUpdate time.Time
	for i := range remotes {
		remote := &remotes[i]
		if time.Since(lastUpdate) > time.Second {
			ms.report(uid, "pull", i+1, len(remotes), false)
			lastUpdate = time.Now()
		}

		_, err := ms.store.Members.GetByPkID(uid, remote.ID)
		exists := err == nil
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			ms.log.Warn().Err(err).Str("uid", uid).Msg("pull sync lookup failed")
			continue
		}
		if (exists && all.Overwrite) || (!exists && all.Add) {
			if _, err := ms.SyncMemberFromPk(ctx, sess, uid, remote.ID, opts, remote, all.PrivateByDefault); err != nil {
				ms.log.Warn().Err(err).Str("uid", uid).Str("pk_member", remote.ID).Msg("pull sync failed for member")
			}
		}
	}

	ms.report(uid, "pull", len(remotes), len(remotes), true)
	return models.OperationResult{Success: true, Message: "Sync completed"}
}

// EnsureMembersLinked makes sure every given local member exists on the
// remote system, creating the missing ones. Idempotent: the remote
// member list is re-queried, so a second invocation creates nothing.
func (ms *MemberSync) EnsureMembersLinked(ctx context.Context, sess *pluralkit.Session, uid string, memberIDs []string, opts models.SyncOptions) error {
	if len(memberIDs) == 0 {
		return nil
	}

	systemID, err := sess.SystemID(ctx)
	if err != nil {
		return err
	}
	remotes, err := sess.GetMembers(ctx)
	if err != nil {
		return err
	}
	remoteIDs := make(map[string]bool, len(remotes))
	for _, r := range remotes {
		remoteIDs[r.ID] = true
	}

	for _, id := range memberIDs {
		m, err := ms.store.Members.Get(uid, id)
		if errors.Is(err, store.ErrNotFound) {
			ms.log.Warn().Str("uid", uid).Str("member", id).Msg("queued intent references missing member")
			continue
		}
		if err != nil {
			return err
		}
		if m.Linked() && remoteIDs[m.PkID] {
			continue
		}
		if _, err := ms.SyncMemberToPk(ctx, sess, uid, id, opts, nil, systemID); err != nil {
			return fmt.Errorf("link member %s: %w", id, err)
		}
	}
	return nil
}

func (ms *MemberSync) report(uid, direction string, current, total int, done bool) {
	percent := 0.0
	if total > 0 {
		percent = float64(current) / float64(total) * 100
	}
	ms.progress.SyncProgress(uid, models.SyncProgress{
		UID:       uid,
		Direction: direction,
		Current:   current,
		Total:     total,
		Percent:   percent,
		Done:      done,
	})
}
