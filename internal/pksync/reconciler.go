// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pksync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
	"github.com/plurapi/switchboard/internal/models"
	"github.com/plurapi/switchboard/internal/pluralkit"
)

// errMemberNotLinked marks an intent whose member has no remote id even
// after the link gate ran. The intent stays queued for the next pass.
var errMemberNotLinked = errors.New("member not linked to a remote id")

// Reconciler drains a user's queued intents and issues the corrective
// remote operations that bring the PluralKit switch timeline in line
// with local front history. One pass handles all of a user's intents:
// batched inserts first, then updates, then deletes, so the commit
// order is deterministic.
type Reconciler struct {
	queue   *Queue
	client  *pluralkit.Client
	members *MemberSync
	log     zerolog.Logger

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

// NewReconciler wires the engine's collaborators.
func NewReconciler(queue *Queue, client *pluralkit.Client, members *MemberSync) *Reconciler {
	return &Reconciler{
		queue:     queue,
		client:    client,
		members:   members,
		log:       logging.With().Str("component", "reconciler").Logger(),
		userLocks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the per-user mutex guarding intake through commit, so
// a slow pass and a freshly debounced one cannot interleave writes.
func (r *Reconciler) userLock(uid string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.userLocks[uid]
	if !ok {
		l = &sync.Mutex{}
		r.userLocks[uid] = l
	}
	return l
}

// Run executes one reconciliation pass for uid.
func (r *Reconciler) Run(ctx context.Context, uid string) error {
	lock := r.userLock(uid)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	err := r.pass(ctx, uid)
	metrics.RecordReconcilePass(time.Since(start), err)
	if err != nil {
		r.log.Error().Err(err).Str("uid", uid).Msg("reconciliation pass failed")
	}
	return err
}

func (r *Reconciler) pass(ctx context.Context, uid string) error {
	queued, err := r.queue.ListForUser(uid)
	if err != nil {
		return err
	}
	if len(queued) == 0 {
		return nil
	}

	// Weed out malformed intents and custom-front intents up front;
	// neither has remote work attached.
	intents := queued[:0]
	for _, in := range queued {
		if err := in.Validate(); err != nil {
			r.log.Warn().Err(err).Str("uid", uid).Str("intent", in.ID).Msg("dropping malformed intent")
			if err := r.queue.Remove(in); err != nil {
				return err
			}
			continue
		}
		if in.custom() {
			if err := r.queue.Remove(in); err != nil {
				return err
			}
			continue
		}
		intents = append(intents, in)
	}
	if len(intents) == 0 {
		return nil
	}

	// A user can re-link mid-queue, so intents may carry more than one
	// token. Each token group gets its own session.
	groups := make(map[string][]*Intent)
	var tokens []string
	for _, in := range intents {
		if _, ok := groups[in.Token]; !ok {
			tokens = append(tokens, in.Token)
		}
		groups[in.Token] = append(groups[in.Token], in)
	}

	var firstErr error
	for _, token := range tokens {
		if err := r.processGroup(ctx, uid, token, groups[token]); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Reconciler) processGroup(ctx context.Context, uid, token string, intents []*Intent) error {
	sess := r.client.Session(token)
	opts := intents[len(intents)-1].Options

	// Member gate: every referenced member must exist remotely before
	// any switch references its id.
	var memberIDs []string
	seen := make(map[string]bool)
	for _, in := range intents {
		for _, id := range in.memberIDs() {
			if !seen[id] {
				seen[id] = true
				memberIDs = append(memberIDs, id)
			}
		}
	}
	if err := r.members.EnsureMembersLinked(ctx, sess, uid, memberIDs, opts); err != nil {
		if terminal(err) {
			// The token is dead; none of these intents can ever apply.
			r.log.Warn().Err(err).Str("uid", uid).Int("intents", len(intents)).Msg("dropping intents for rejected token")
			for _, in := range intents {
				metrics.RecordIntentProcessed(string(in.Type), err)
			}
			return r.queue.RemoveMany(intents)
		}
		return fmt.Errorf("member gate: %w", err)
	}

	var inserts, updates, deletes []*Intent
	for _, in := range intents {
		switch in.Type {
		case IntentInsert:
			inserts = append(inserts, in)
		case IntentUpdate:
			updates = append(updates, in)
		case IntentDelete:
			deletes = append(deletes, in)
		}
	}

	for _, b := range batchInserts(inserts) {
		err := r.applyInsertBatch(ctx, sess, uid, b)
		for _, in := range b.intents {
			if err := r.settle(in, err); err != nil {
				return err
			}
		}
	}
	for _, in := range updates {
		if err := r.settle(in, r.applyUpdate(ctx, sess, uid, in)); err != nil {
			return err
		}
	}
	for _, in := range deletes {
		if err := r.settle(in, r.applyDelete(ctx, sess, uid, in)); err != nil {
			return err
		}
	}
	return nil
}

// settle removes an applied intent, drops a terminally failed one, and
// leaves a retriable one queued for the next debounce firing. The
// returned error is a queue failure, never the apply error.
func (r *Reconciler) settle(in *Intent, applyErr error) error {
	metrics.RecordIntentProcessed(string(in.Type), applyErr)
	switch {
	case applyErr == nil:
		return r.queue.Remove(in)
	case terminal(applyErr):
		r.log.Warn().Err(applyErr).Str("uid", in.UID).Str("intent", in.ID).Msg("dropping intent with terminal error")
		return r.queue.Remove(in)
	default:
		r.log.Warn().Err(applyErr).Str("uid", in.UID).Str("intent", in.ID).Msg("intent left queued for retry")
		return nil
	}
}

// terminal reports whether an error cannot be fixed by retrying: the
// token will not become valid by waiting.
func terminal(err error) bool {
	return errors.Is(err, pluralkit.ErrInvalidCredential) || errors.Is(err, pluralkit.ErrAccessDenied)
}

// insertBatch groups insert intents whose entries started (and, for
// historical entries, ended) at the same instant with the same live
// flag. Members that began fronting together become one remote switch.
type insertBatch struct {
	live       bool
	start, end int64
	intents    []*Intent
}

func batchInserts(intents []*Intent) []*insertBatch {
	var batches []*insertBatch
	for _, in := range intents {
		var b *insertBatch
		for _, cand := range batches {
			if cand.live == in.Live && cand.start == in.New.StartTime && (cand.live || cand.end == in.New.EndTime) {
				b = cand
				break
			}
		}
		if b == nil {
			b = &insertBatch{live: in.Live, start: in.New.StartTime, end: in.New.EndTime}
			batches = append(batches, b)
		}
		b.intents = append(b.intents, in)
	}
	return batches
}

// memberPkIDs resolves the remote ids for a batch's members. A member
// still missing its link fails the batch with errMemberNotLinked.
func (r *Reconciler) memberPkIDs(uid string, intents []*Intent) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, in := range intents {
		for _, id := range in.memberIDs() {
			pkID, err := r.memberPkID(uid, id)
			if err != nil {
				return nil, err
			}
			if !seen[pkID] {
				seen[pkID] = true
				out = append(out, pkID)
			}
		}
	}
	return out, nil
}

func (r *Reconciler) memberPkID(uid, memberID string) (string, error) {
	m, err := r.members.store.Members.Get(uid, memberID)
	if err != nil {
		return "", fmt.Errorf("member %s: %w", memberID, err)
	}
	if !m.Linked() {
		return "", fmt.Errorf("member %s: %w", memberID, errMemberNotLinked)
	}
	return m.PkID, nil
}

// ensureSwitchAt guarantees a switch exists at exactly t containing
// pkIDs. An exact-timestamp match merges rather than duplicating, so
// the remote timeline's instants stay unique.
func (r *Reconciler) ensureSwitchAt(ctx context.Context, sess *pluralkit.Session, t time.Time, pkIDs []string) error {
	exact, err := sess.GetSwitchAtExactTimestamp(ctx, t)
	if err != nil {
		return err
	}
	if exact == nil {
		return sess.InsertSwitch(ctx, t, pkIDs)
	}

	merged := append([]string(nil), exact.Members...)
	changed := false
	for _, id := range pkIDs {
		if !exact.HasMember(id) {
			merged = append(merged, id)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return sess.UpdateSwitchMembers(ctx, exact.ID, merged)
}

// clearSwitchBoundaryAt makes sure the members stop fronting at exactly
// t: an exact-timestamp switch is stripped of them, otherwise a new
// switch at t carries forward the preceding switch's membership minus
// them.
func (r *Reconciler) clearSwitchBoundaryAt(ctx context.Context, sess *pluralkit.Session, t time.Time, pkIDs []string) error {
	exact, err := sess.GetSwitchAtExactTimestamp(ctx, t)
	if err != nil {
		return err
	}
	if exact != nil {
		stripped := without(exact.Members, pkIDs)
		if len(stripped) == len(exact.Members) {
			return nil
		}
		return sess.UpdateSwitchMembers(ctx, exact.ID, stripped)
	}

	preceding, err := sess.GetSwitches(ctx, t.Add(time.Millisecond), 1)
	if err != nil {
		return err
	}
	var carried []string
	if len(preceding) > 0 {
		carried = without(preceding[0].Members, pkIDs)
	}
	return sess.InsertSwitch(ctx, t, carried)
}

func (r *Reconciler) applyInsertBatch(ctx context.Context, sess *pluralkit.Session, uid string, b *insertBatch) error {
	pkIDs, err := r.memberPkIDs(uid, b.intents)
	if err != nil {
		return err
	}

	start := time.UnixMilli(b.start).UTC()
	if err := r.ensureSwitchAt(ctx, sess, start, pkIDs); err != nil {
		return err
	}

	if b.live {
		now := time.Now()
		switches, err := sess.GetSwitchesBetween(ctx, start, now)
		if err != nil {
			return err
		}
		// The window's bookends lie outside the entry's interval and must
		// not change.
		inWindow := pluralkit.SwitchesInInterval(switches, start, now)
		return sess.AddMembersToSwitches(ctx, inWindow, pkIDs)
	}

	end := time.UnixMilli(b.end).UTC()
	switches, err := sess.GetSwitchesBetween(ctx, start, end)
	if err != nil {
		return err
	}
	inWindow := pluralkit.SwitchesInInterval(switches, start, end)
	if err := sess.AddMembersToSwitches(ctx, inWindow, pkIDs); err != nil {
		return err
	}
	return r.clearSwitchBoundaryAt(ctx, sess, end, pkIDs)
}

func (r *Reconciler) applyUpdate(ctx context.Context, sess *pluralkit.Session, uid string, in *Intent) error {
	old, upd := in.Old, in.New

	// An entry toggled between a custom front and a real member only has
	// remote work on the member side.
	if old.Custom && !upd.Custom {
		b := &insertBatch{live: in.Live, start: upd.StartTime, end: upd.EndTime, intents: []*Intent{in}}
		return r.applyInsertBatch(ctx, sess, uid, b)
	}
	if !old.Custom && upd.Custom {
		return r.applyDelete(ctx, sess, uid, in)
	}

	oldPk, err := r.memberPkID(uid, old.MemberID)
	if err != nil {
		return err
	}
	newPk, err := r.memberPkID(uid, upd.MemberID)
	if err != nil {
		return err
	}

	now := time.Now()
	windowStart := time.UnixMilli(minInt64(old.StartTime, upd.StartTime)).UTC()
	oldEnd := endOr(old, now)
	newEnd := endOr(upd, now)
	windowEnd := maxTime(oldEnd, newEnd)
	if in.Live {
		windowEnd = now
	}

	all, err := sess.GetSwitchesBetween(ctx, windowStart, windowEnd)
	if err != nil {
		return err
	}
	// Bookends outside the window give context only; mutations stay
	// inside it.
	scope := pluralkit.SwitchesInInterval(all, windowStart, windowEnd)

	timesChanged := old.StartTime != upd.StartTime || (!in.Live && old.EndTime != upd.EndTime)
	newStart := upd.Start()

	if old.MemberID != upd.MemberID {
		// A pure member swap rewrites the whole old interval. When the
		// times moved too, only the part of the old interval still inside
		// the new one is rewritten, so the timeline before the new start
		// keeps the old member.
		lower := old.Start()
		upper := oldEnd
		if timesChanged {
			if newStart.After(lower) {
				lower = newStart
			}
			if !in.Live && newEnd.Before(upper) {
				upper = newEnd
			}
		}
		targets := filterSwitches(scope, func(sw pluralkit.Switch) bool {
			if sw.Timestamp.Before(lower) {
				return false
			}
			return in.Live || !sw.Timestamp.After(upper)
		})
		if err := sess.ReplaceMemberInSwitches(ctx, targets, oldPk, newPk); err != nil {
			return err
		}
	}

	if !timesChanged {
		return nil
	}

	// Push the member out of switches outside the new interval.
	outside := filterSwitches(scope, func(sw pluralkit.Switch) bool {
		if sw.Timestamp.Before(newStart) {
			return true
		}
		return !in.Live && sw.Timestamp.After(newEnd)
	})
	if err := sess.RemoveMemberFromSwitches(ctx, outside, newPk); err != nil {
		return err
	}

	if err := r.ensureSwitchAt(ctx, sess, newStart, []string{newPk}); err != nil {
		return err
	}

	if !in.Live {
		if err := r.clearSwitchBoundaryAt(ctx, sess, newEnd, []string{newPk}); err != nil {
			return err
		}
	}

	// Pull the member into switches newly inside the interval.
	inside := filterSwitches(scope, func(sw pluralkit.Switch) bool {
		if !sw.Timestamp.After(newStart) {
			return false
		}
		return in.Live || sw.Timestamp.Before(newEnd)
	})
	return sess.AddMemberToSwitches(ctx, inside, newPk)
}

func (r *Reconciler) applyDelete(ctx context.Context, sess *pluralkit.Session, uid string, in *Intent) error {
	old := in.Old
	pkID, err := r.memberPkID(uid, old.MemberID)
	if err != nil {
		return err
	}

	end := endOr(old, time.Now())
	if in.Live {
		end = time.Now()
	}
	switches, err := sess.GetSwitchesBetween(ctx, old.Start(), end)
	if err != nil {
		return err
	}
	inWindow := pluralkit.SwitchesInInterval(switches, old.Start(), end)
	return sess.RemoveMemberFromSwitches(ctx, inWindow, pkID)
}

func filterSwitches(switches []pluralkit.Switch, keep func(pluralkit.Switch) bool) []pluralkit.Switch {
	var out []pluralkit.Switch
	for _, sw := range switches {
		if keep(sw) {
			out = append(out, sw)
		}
	}
	return out
}

func without(members, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	out := make([]string, 0, len(members))
	for _, m := range members {
		if !drop[m] {
			out = append(out, m)
		}
	}
	return out
}

func endOr(e *models.FrontHistoryEntry, fallback time.Time) time.Time {
	if e.EndTime == 0 {
		return fallback
	}
	return e.End()
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
