// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

package pksync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
)

// intentKeyPrefix namespaces the durable intent queue inside the shared
// badger instance. Keys embed the enqueue instant so a prefix scan walks
// a user's intents in insertion order.
const intentKeyPrefix = "pkintent:"

// Queue is the durable per-user sync intent queue. Intents are appended
// on local mutations, read back in insertion order by the reconciler,
// and removed once applied. No dedup happens at insert time; merging of
// equal-shaped intents is the reconciler's job because a later mutation
// can change which intents are still relevant.
type Queue struct {
	db  *badger.DB
	log zerolog.Logger
}

// NewQueue wraps the shared database handle.
func NewQueue(db *badger.DB) *Queue {
	return &Queue{
		db:  db,
		log: logging.With().Str("component", "pksync-queue").Logger(),
	}
}

func intentKey(in *Intent) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", intentKeyPrefix, in.UID, in.EnqueuedAt, in.ID))
}

// Add validates and appends an intent, assigning its id and timestamps.
func (q *Queue) Add(in *Intent) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	now := time.Now()
	if in.CreatedAt == 0 {
		in.CreatedAt = now.UnixMilli()
	}
	if in.EnqueuedAt == 0 {
		in.EnqueuedAt = now.UnixNano()
	}
	if err := in.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}
	err = q.db.Update(func(txn *badger.Txn) error {
		return txn.Set(intentKey(in), data)
	})
	if err != nil {
		return fmt.Errorf("enqueue intent: %w", err)
	}
	metrics.RecordSyncIntent(string(in.Type))
	q.updateDepth()
	return nil
}

// ListForUser returns all queued intents for uid in insertion order.
func (q *Queue) ListForUser(uid string) ([]*Intent, error) {
	return q.scan([]byte(intentKeyPrefix + uid + ":"))
}

// Remove deletes one intent from the queue.
func (q *Queue) Remove(in *Intent) error {
	err := q.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(intentKey(in))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("remove intent %s: %w", in.ID, err)
	}
	q.updateDepth()
	return nil
}

// RemoveMany deletes a batch of intents, stopping on the first failure.
func (q *Queue) RemoveMany(intents []*Intent) error {
	for _, in := range intents {
		if err := q.Remove(in); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the total number of queued intents across all users.
func (q *Queue) Count() (int, error) {
	count := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(intentKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Sweep deletes every intent older than retention, regardless of
// processing state. This bounds how long a user's token sits queued.
func (q *Queue) Sweep(retention time.Duration) (int, error) {
	cutoff := time.Now().Add(-retention).UnixMilli()

	expired, err := q.scan([]byte(intentKeyPrefix))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, in := range expired {
		if in.CreatedAt > cutoff {
			continue
		}
		if err := q.Remove(in); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		metrics.SyncIntentsExpired.Add(float64(removed))
		q.log.Info().Int("removed", removed).Msg("swept expired sync intents")
	}
	return removed, nil
}

func (q *Queue) scan(prefix []byte) ([]*Intent, error) {
	var out []*Intent
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			in := new(Intent)
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, in)
			})
			if err != nil {
				return fmt.Errorf("unmarshal intent %s: %w", it.Item().Key(), err)
			}
			out = append(out, in)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (q *Queue) updateDepth() {
	if n, err := q.Count(); err == nil {
		metrics.SyncIntentQueueDepth.Set(float64(n))
	}
}

// GCService periodically sweeps expired intents. It runs under the
// supervision tree.
type GCService struct {
	queue     *Queue
	retention time.Duration
	interval  time.Duration
	log       zerolog.Logger
}

// NewGCService builds the sweep service.
func NewGCService(queue *Queue, retention, interval time.Duration) *GCService {
	return &GCService{
		queue:     queue,
		retention: retention,
		interval:  interval,
		log:       logging.With().Str("component", "pksync-gc").Logger(),
	}
}

// String names the service for the supervisor.
func (g *GCService) String() string { return "pksync-gc" }

// Serve sweeps on the configured interval until ctx is cancelled.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := g.queue.Sweep(g.retention); err != nil {
				g.log.Error().Err(err).Msg("intent sweep failed")
			}
		}
	}
}
