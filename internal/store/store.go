// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package store provides the BadgerDB-backed document store. Each
// collection keeps JSON documents under `<collection>:<uid>:<id>` keys so
// per-user scans are a single prefix iteration.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/metrics"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Store wraps the underlying BadgerDB handle and exposes the typed
// collections.
type Store struct {
	db *badger.DB

	Users         *UserStore
	Integrations  *IntegrationStore
	Members       *MemberStore
	FrontHistory  *FrontHistoryStore
	FrontStatuses *FrontStatusStore
	Summaries     *SummaryStore
	Friends       *FriendStore
	Groups        *GroupStore
	Comments      *CommentStore
}

// Open opens (or creates) the store at path. An empty path opens an
// in-memory store, used by tests.
func Open(path string) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	s := &Store{db: db}
	s.Users = &UserStore{db: db}
	s.Integrations = &IntegrationStore{db: db}
	s.Members = &MemberStore{db: db}
	s.FrontHistory = &FrontHistoryStore{db: db}
	s.FrontStatuses = &FrontStatusStore{db: db}
	s.Summaries = &SummaryStore{db: db}
	s.Friends = &FriendStore{db: db}
	s.Groups = &GroupStore{db: db}
	s.Comments = &CommentStore{db: db}
	return s, nil
}

// DB exposes the raw handle for packages that keep their own key ranges
// (dispatch queue, sync intent queue).
func (s *Store) DB() *badger.DB {
	return s.db
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs badger value-log garbage collection once. Callers schedule
// this periodically; ErrNoRewrite is normal and swallowed.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// badgerLogger adapts badger's logger interface onto zerolog. Badger is
// chatty at INFO so its info output is demoted to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

// putDoc marshals doc and stores it under key in a single transaction.
func putDoc(db *badger.DB, collection string, key []byte, doc interface{}) error {
	start := time.Now()
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", collection, err)
	}
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	metrics.RecordStoreOperation("put", collection, time.Since(start), err)
	return err
}

// getDoc loads the document at key into out. Returns ErrNotFound when the
// key is absent.
func getDoc(db *badger.DB, collection string, key []byte, out interface{}) error {
	start := time.Now()
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s document: %w", collection, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	metrics.RecordStoreOperation("get", collection, time.Since(start), ignoreNotFound(err))
	return err
}

// deleteDoc removes the document at key. Deleting an absent key is not an
// error.
func deleteDoc(db *badger.DB, collection string, key []byte) error {
	start := time.Now()
	err := db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	metrics.RecordStoreOperation("delete", collection, time.Since(start), err)
	return err
}

// scanPrefix iterates all documents under prefix, unmarshaling each into a
// fresh T and appending those accepted by keep (nil keep accepts all).
func scanPrefix[T any](db *badger.DB, collection string, prefix []byte, keep func(*T) bool) ([]*T, error) {
	start := time.Now()
	var out []*T
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			doc := new(T)
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, doc)
			})
			if err != nil {
				return fmt.Errorf("unmarshal %s document %s: %w", collection, item.Key(), err)
			}
			if keep == nil || keep(doc) {
				out = append(out, doc)
			}
		}
		return nil
	})
	metrics.RecordStoreOperation("scan", collection, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// countPrefix counts keys under prefix without loading values.
func countPrefix(db *badger.DB, prefix []byte) (int, error) {
	count := 0
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// deletePrefix removes every key under prefix, returning the number
// removed.
func deletePrefix(db *badger.DB, collection string, prefix []byte) (int, error) {
	var keys [][]byte
	err := db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	count := 0
	for _, key := range keys {
		if err := deleteDoc(db, collection, key); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
