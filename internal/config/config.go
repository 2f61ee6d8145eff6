// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Package config loads Switchboard configuration via Koanf v2 with layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Switchboard server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	PluralKit PluralKitConfig `koanf:"pluralkit"`
	Sync      SyncConfig      `koanf:"sync"`
	Security  SecurityConfig  `koanf:"security"`
	Backup    BackupConfig    `koanf:"backup"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty means in-memory (tests).
	Path string `koanf:"path"`
}

// PluralKitConfig holds settings for the PluralKit integration: the API
// base URL and the per-lane dispatcher tunables.
type PluralKitConfig struct {
	BaseURL string `koanf:"base_url"`

	// MemberRateLimit and FrontSyncRateLimit are per-second request quotas
	// for the two dispatcher lanes.
	MemberRateLimit    int `koanf:"member_rate_limit"`
	FrontSyncRateLimit int `koanf:"front_sync_rate_limit"`

	// MemberAppHeader and FrontSyncAppHeader are the X-PluralKit-App
	// values identifying each lane's traffic to the remote API.
	MemberAppHeader    string `koanf:"member_app_header"`
	FrontSyncAppHeader string `koanf:"front_sync_app_header"`

	// DispatchTimeout bounds how long a caller waits for a queued request
	// to complete before receiving a timeout error.
	DispatchTimeout time.Duration `koanf:"dispatch_timeout"`

	// RequestTimeout bounds a single outbound HTTP call.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// SyncConfig holds reconciliation engine tunables.
type SyncConfig struct {
	// DebounceWindow is the quiet period after the last local front change
	// before a reconciliation pass fires.
	DebounceWindow time.Duration `koanf:"debounce_window"`

	// IntentRetention is how long unprocessed sync intents are kept before
	// the garbage-collection sweep drops them. Bounds how long remote
	// credentials sit in the queue.
	IntentRetention time.Duration `koanf:"intent_retention"`

	// GCInterval is how often the retention sweep runs.
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SecurityConfig holds authentication settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	AdminUsername   string        `koanf:"admin_username"`
	AdminPassword   string        `koanf:"admin_password"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// BackupConfig holds periodic store backup settings.
type BackupConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`

	// Keep is how many backup files the retention sweep preserves.
	Keep int `koanf:"keep"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.PluralKit.BaseURL == "" {
		return fmt.Errorf("pluralkit.base_url must not be empty")
	}
	if c.PluralKit.MemberRateLimit <= 0 {
		return fmt.Errorf("pluralkit.member_rate_limit must be positive, got %d", c.PluralKit.MemberRateLimit)
	}
	if c.PluralKit.FrontSyncRateLimit <= 0 {
		return fmt.Errorf("pluralkit.front_sync_rate_limit must be positive, got %d", c.PluralKit.FrontSyncRateLimit)
	}
	if c.Sync.DebounceWindow <= 0 {
		return fmt.Errorf("sync.debounce_window must be positive, got %s", c.Sync.DebounceWindow)
	}
	if c.Sync.IntentRetention <= 0 {
		return fmt.Errorf("sync.intent_retention must be positive, got %s", c.Sync.IntentRetention)
	}
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters when set")
	}
	if c.Backup.Enabled {
		if c.Backup.Dir == "" {
			return fmt.Errorf("backup.dir must not be empty when backups are enabled")
		}
		if c.Backup.Interval <= 0 {
			return fmt.Errorf("backup.interval must be positive, got %s", c.Backup.Interval)
		}
	}
	return nil
}
