// Switchboard - Plural System Tracking and PluralKit Sync
// Copyright 2026 Switchboard Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plurapi/switchboard

// Command server runs the Switchboard backend: the HTTP API, the
// websocket hub, the in-process event bus, and the PluralKit sync
// engine, all under one suture supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/plurapi/switchboard/internal/api"
	"github.com/plurapi/switchboard/internal/auth"
	"github.com/plurapi/switchboard/internal/backup"
	"github.com/plurapi/switchboard/internal/config"
	"github.com/plurapi/switchboard/internal/events"
	"github.com/plurapi/switchboard/internal/logging"
	"github.com/plurapi/switchboard/internal/notify"
	"github.com/plurapi/switchboard/internal/pksync"
	"github.com/plurapi/switchboard/internal/pluralkit"
	"github.com/plurapi/switchboard/internal/store"
	"github.com/plurapi/switchboard/internal/supervisor"
	"github.com/plurapi/switchboard/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("starting switchboard")

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	manager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	// PluralKit side: dispatcher, client, durable intent queue,
	// reconciler, and the debounce controller feeding it.
	dispatcher := pluralkit.NewDispatcher(pluralkit.DispatcherConfig{
		BaseURL:            cfg.PluralKit.BaseURL,
		MemberRateLimit:    cfg.PluralKit.MemberRateLimit,
		FrontSyncRateLimit: cfg.PluralKit.FrontSyncRateLimit,
		MemberAppHeader:    cfg.PluralKit.MemberAppHeader,
		FrontSyncAppHeader: cfg.PluralKit.FrontSyncAppHeader,
		DispatchTimeout:    cfg.PluralKit.DispatchTimeout,
		RequestTimeout:     cfg.PluralKit.RequestTimeout,
	}, st.DB())
	pk := pluralkit.NewClient(dispatcher)

	hub := websocket.NewHub()
	memberSync := pksync.NewMemberSync(st, hub)
	queue := pksync.NewQueue(st.DB())
	reconciler := pksync.NewReconciler(queue, pk, memberSync)
	controller := pksync.NewController(queue, reconciler, cfg.Sync.DebounceWindow)
	defer controller.Close()
	gc := pksync.NewGCService(queue, cfg.Sync.IntentRetention, cfg.Sync.GCInterval)

	// Event side: bus, router, and the three front.changed consumers.
	bus := events.NewBus(256)
	defer bus.Close()
	router, err := events.NewRouter(events.DefaultRouterConfig(), bus)
	if err != nil {
		return fmt.Errorf("init event router: %w", err)
	}
	events.NewIntake(st, controller).Register(router)
	summarizer := events.NewSummarizer(st, notify.Multi{notify.NewLogNotifier(), hub}, cfg.Sync.DebounceWindow)
	defer summarizer.Close()
	summarizer.Register(router)
	websocket.NewFrontUpdatePusher(hub, st).Register(router)

	// The operator account is optional; without it the token-minting
	// route is absent and tokens are provisioned out of band.
	var admin *auth.BasicAuthManager
	if cfg.Security.AdminUsername != "" {
		admin, err = auth.NewBasicAuthManager(cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			return fmt.Errorf("init admin auth: %w", err)
		}
	}

	handler := api.NewHandler(cfg, st, bus, pk, memberSync, hub)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.NewRouter(handler, manager, admin),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddDataService(dispatcher)
	tree.AddDataService(gc)
	if cfg.Backup.Enabled {
		bk, err := backup.NewService(st.DB(), backup.Config{
			Dir:      cfg.Backup.Dir,
			Interval: cfg.Backup.Interval,
			Keep:     cfg.Backup.Keep,
		})
		if err != nil {
			return fmt.Errorf("init backup: %w", err)
		}
		tree.AddDataService(bk)
	}
	tree.AddMessagingService(router)
	tree.AddMessagingService(hub)
	tree.AddAPIService(supervisor.NewHTTPService(httpServer, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("switchboard stopped")
	return nil
}
