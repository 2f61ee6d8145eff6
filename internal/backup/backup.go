// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package backup takes periodic full backups of the document store
// using badger's native backup stream. Backups land as timestamped
// files in one directory; a retention count bounds disk usage.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"

	"github.com/plurapi/switchboard/internal/logging"
)

const filePrefix = "switchboard-"

// Config tunes the backup service.
type Config struct {
	// Dir is where backup files are written.
	Dir string

	// Interval between backups.
	Interval time.Duration

	// Keep is how many backup files to retain. Older files are pruned
	// after each successful backup. Zero keeps everything.
	Keep int
}

// Service runs the periodic backup loop as a supervised service.
type Service struct {
	db  *badger.DB
	cfg Config
	log zerolog.Logger
}

// NewService builds the service. Interval must be positive.
func NewService(db *badger.DB, cfg Config) (*Service, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("backup dir is required")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("backup interval must be positive, got %v", cfg.Interval)
	}
	return &Service{
		db:  db,
		cfg: cfg,
		log: logging.With().Str("component", "backup").Logger(),
	}, nil
}

func (s *Service) String() string { return "store-backup" }

// Serve implements suture.Service: back up every interval until the
// context is canceled. A failed backup is logged and retried at the
// next tick rather than crashing the service.
func (s *Service) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			path, err := s.Run()
			if err != nil {
				s.log.Err(err).Msg("backup failed")
				continue
			}
			s.log.Info().Str("path", path).Msg("backup written")
			if err := s.prune(); err != nil {
				s.log.Err(err).Msg("backup pruning failed")
			}
		}
	}
}

// Run takes one full backup immediately, returning the file path.
func (s *Service) Run() (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := filePrefix + time.Now().UTC().Format("20060102T150405Z") + ".badger"
	path := filepath.Join(s.cfg.Dir, name)

	f, err := os.CreateTemp(s.cfg.Dir, name+".tmp")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	tmp := f.Name()

	_, err = s.db.Backup(f, 0)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("finalize backup: %w", err)
	}
	return path, nil
}

// prune removes the oldest backups beyond the retention count.
func (s *Service) prune() error {
	if s.cfg.Keep <= 0 {
		return nil
	}
	files, err := List(s.cfg.Dir)
	if err != nil {
		return err
	}
	for len(files) > s.cfg.Keep {
		oldest := files[0]
		if err := os.Remove(oldest); err != nil {
			return fmt.Errorf("prune %s: %w", oldest, err)
		}
		s.log.Debug().Str("path", oldest).Msg("pruned old backup")
		files = files[1:]
	}
	return nil
}

// List returns the backup files in dir, oldest first. The timestamped
// names make lexical order chronological.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > len(filePrefix) && name[:len(filePrefix)] == filePrefix && filepath.Ext(name) == ".badger" {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Restore loads a backup file into db. The database should be empty;
// existing keys are overwritten by the stream.
func Restore(db *badger.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer f.Close()

	if err := db.Load(f, 16); err != nil {
		return fmt.Errorf("load backup: %w", err)
	}
	return nil
}
