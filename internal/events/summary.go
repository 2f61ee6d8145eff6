// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package events

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/notify"
	"github.com/plurapi/switchboard/internal/pksync"
	"github.com/plurapi/switchboard/internal/store"
)

// notifyTimeout bounds the fan-out to one user's friends.
const notifyTimeout = 30 * time.Second

// Summarizer recomputes the per-user fronter summaries on every front
// change and notifies friends when the visible roster actually changed.
// Notifications are debounced so a burst of edits produces one message
// per quiet period.
type Summarizer struct {
	store    *store.Store
	notifier notify.Notifier
	log      zerolog.Logger

	sharedNotify  *pksync.Debouncer
	privateNotify *pksync.Debouncer
}

// NewSummarizer builds the summary handler. window is the notification
// quiet period.
func NewSummarizer(st *store.Store, notifier notify.Notifier, window time.Duration) *Summarizer {
	s := &Summarizer{
		store:    st,
		notifier: notifier,
		log:      logging.With().Str("component", "events").Str("handler", "front-summary").Logger(),
	}
	s.sharedNotify = pksync.NewDebouncer(window, func(uid string) { s.notifyFriends(uid, false) })
	s.privateNotify = pksync.NewDebouncer(window, func(uid string) { s.notifyFriends(uid, true) })
	return s
}

// Register attaches the handler to the router.
func (s *Summarizer) Register(r *Router) {
	r.Handle("front-summary", TopicFrontChanged, s.handle)
}

// Close stops the pending notification timers.
func (s *Summarizer) Close() {
	s.sharedNotify.Close()
	s.privateNotify.Close()
}

func (s *Summarizer) handle(msg *message.Message) error {
	e, err := UnmarshalFrontChanged(msg.Payload)
	if err != nil {
		s.log.Error().Err(err).Str("msg_id", msg.UUID).Msg("dropping undecodable front-change event")
		return nil
	}
	return s.Recompute(e.UID, e.NotifyReminders)
}

// roster accumulates fronter names for one visibility tier.
type roster struct {
	fronters          []string
	customFronters    []string
	notificationNames []string
}

// Recompute rebuilds both summaries from the user's live entries and
// stores them, arming a notification timer for each tier whose visible
// roster changed. notifyReminders false skips the notification step.
func (s *Summarizer) Recompute(uid string, notifyReminders bool) error {
	live, err := s.store.FrontHistory.LiveEntries(uid)
	if err != nil {
		return err
	}

	var shared, private roster
	for _, entry := range live {
		if entry.Custom {
			fs, err := s.store.FrontStatuses.Get(uid, entry.MemberID)
			if errors.Is(err, store.ErrNotFound) {
				s.log.Warn().Str("uid", uid).Str("front_status", entry.MemberID).Msg("live entry references missing custom front")
				continue
			}
			if err != nil {
				return err
			}
			if !fs.Private {
				shared.customFronters = append(shared.customFronters, fs.Name)
				private.customFronters = append(private.customFronters, fs.Name)
			} else if !fs.PreventTrusted {
				private.customFronters = append(private.customFronters, fs.Name)
			}
			continue
		}

		m, err := s.store.Members.Get(uid, entry.MemberID)
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn().Str("uid", uid).Str("member", entry.MemberID).Msg("live entry references missing member")
			continue
		}
		if err != nil {
			return err
		}
		switch {
		case !m.Private:
			shared.fronters = append(shared.fronters, m.Name)
			private.fronters = append(private.fronters, m.Name)
			if !m.PreventsFrontNotifs {
				shared.notificationNames = append(shared.notificationNames, m.Name)
				private.notificationNames = append(private.notificationNames, m.Name)
			}
		case !m.PreventTrusted:
			private.fronters = append(private.fronters, m.Name)
			if !m.PreventsFrontNotifs {
				private.notificationNames = append(private.notificationNames, m.Name)
			}
		}
	}

	if err := s.storeTier(uid, false, &shared, notifyReminders); err != nil {
		return err
	}
	if err := s.storeTier(uid, true, &private, notifyReminders); err != nil {
		return err
	}
	return s.updateUserStrings(uid, &shared, &private)
}

func (s *Summarizer) storeTier(uid string, privateTier bool, r *roster, notifyReminders bool) error {
	sortNames(r.fronters)
	sortNames(r.customFronters)
	sortNames(r.notificationNames)

	sum, err := s.store.Summaries.Get(uid, privateTier)
	if err != nil {
		return err
	}
	sum.Fronters = r.fronters
	sum.CustomFronters = r.customFronters
	sum.FrontString = strings.Join(r.fronters, ", ")
	sum.CustomFrontString = strings.Join(r.customFronters, ", ")
	sum.FrontNotificationString = strings.Join(r.notificationNames, ", ")

	if notifyReminders && sum.Changed() {
		sum.NotifiedFrontString = sum.FrontNotificationString
		sum.NotifiedCustomFrontString = sum.CustomFrontString
		if privateTier {
			s.privateNotify.Schedule(uid)
		} else {
			s.sharedNotify.Schedule(uid)
		}
	}

	return s.store.Summaries.Upsert(sum)
}

func (s *Summarizer) updateUserStrings(uid string, shared, private *roster) error {
	u, err := s.store.Users.Get(uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	u.FrontString = strings.Join(shared.fronters, ", ")
	u.CustomFrontString = strings.Join(shared.customFronters, ", ")
	u.PrivateFrontString = strings.Join(private.fronters, ", ")
	u.PrivateCustomFrontString = strings.Join(private.customFronters, ", ")
	return s.store.Users.Upsert(u)
}

// notifyFriends fires after the quiet period: it delivers the tier's
// current roster to every friend who opted in to front notifications.
// Trusted friends get the private tier, everyone else the shared one.
func (s *Summarizer) notifyFriends(uid string, privateTier bool) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	sum, err := s.store.Summaries.Get(uid, privateTier)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("loading summary for notification failed")
		return
	}
	msg := frontMessage(sum.FrontNotificationString, sum.CustomFrontString)
	if msg == "" {
		return
	}

	u, err := s.store.Users.Get(uid)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("loading user for notification failed")
		return
	}

	friends, err := s.store.Friends.ListByUser(uid)
	if err != nil {
		s.log.Warn().Err(err).Str("uid", uid).Msg("listing friends for notification failed")
		return
	}
	for _, f := range friends {
		if !f.GetFrontNotif || f.Trusted != privateTier {
			continue
		}
		if err := s.notifier.Notify(ctx, f.FriendUID, u.Username, msg); err != nil {
			s.log.Warn().Err(err).Str("uid", uid).Str("friend", f.FriendUID).Msg("front notification failed")
		}
	}
}

// frontMessage formats the notification body. An empty string means
// nothing visible is fronting and no notification is sent.
func frontMessage(frontString, customFrontString string) string {
	switch {
	case frontString != "" && customFrontString != "":
		return "Fronting: " + frontString + " \nCustom fronting: " + customFrontString
	case frontString != "":
		return "Fronting: " + frontString
	case customFrontString != "":
		return "Custom fronting: " + customFrontString
	default:
		return ""
	}
}

func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
}
