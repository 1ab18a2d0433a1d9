// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/bbcd/internal/api"
	"github.com/ManuGH/bbcd/internal/api/ws"
	"github.com/ManuGH/bbcd/internal/calendar"
	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/config"
	"github.com/ManuGH/bbcd/internal/daemon"
	"github.com/ManuGH/bbcd/internal/health"
	"github.com/ManuGH/bbcd/internal/log"
	"github.com/ManuGH/bbcd/internal/pipeline/bus"
	"github.com/ManuGH/bbcd/internal/pipeline/store"
	"github.com/ManuGH/bbcd/internal/pipeline/worker"
	"github.com/ManuGH/bbcd/internal/telemetry"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(parent context.Context, opts *rootOptions) error {
	// Safe defaults until the config is loaded.
	log.Configure(log.Config{Level: "info", Service: "bbcd", Version: version})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Configure(log.Config{Level: cfg.Log.Level, Service: cfg.Log.Service, Version: version})
	logger = log.WithComponent("daemon")

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("listen", cfg.Listen).
		Str("data_dir", cfg.DataDir).
		Str("store", cfg.Store.Backend).
		Str("bus", cfg.Bus.Backend).
		Msg("starting bbcd")

	rule, err := calendar.ParseLeapRule(cfg.Calendar.LeapRule)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	if err := health.PerformStartupChecks(ctx, cfg, catalog); err != nil {
		return err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}

	st, err := store.NewStore(ctx, cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return fmt.Errorf("open store: %w", err)
	}

	hm := health.NewManager(version)
	hm.RegisterChecker(health.NewPingChecker("store", true, st.Ping))
	hm.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir))
	hm.RegisterChecker(health.NewDirChecker("temp_dir", cfg.Worker.TempDir))
	if cfg.Catalog.File != "" {
		hm.RegisterChecker(health.NewFileChecker("catalog_file", cfg.Catalog.File))
	}

	var (
		events   bus.Bus
		closeBus func() error
	)
	switch strings.ToLower(cfg.Bus.Backend) {
	case "redis":
		rb, err := bus.NewRedisBus(ctx, bus.RedisConfig{
			Addr:     cfg.Bus.Redis.Addr,
			Password: cfg.Bus.Redis.Password,
			DB:       cfg.Bus.Redis.DB,
		}, log.WithComponent("bus"))
		if err != nil {
			_ = st.Close()
			_ = tp.Shutdown(context.Background())
			return fmt.Errorf("connect redis bus: %w", err)
		}
		hm.RegisterChecker(health.NewPingChecker("bus", false, rb.Ping))
		events, closeBus = rb, rb.Close
	default:
		events = bus.NewMemoryBus()
	}

	steps := worker.DefaultSteps{}
	if cfg.WebDAV.Enabled() {
		up, err := worker.NewWebDAVUploader(worker.WebDAVConfig{
			URL:      cfg.WebDAV.URL,
			Username: cfg.WebDAV.Username,
			Password: cfg.WebDAV.Password,
		})
		if err != nil {
			_ = st.Close()
			_ = tp.Shutdown(context.Background())
			return err
		}
		steps.Uploader = up
	}

	orch := worker.New(worker.Config{
		TempDir:        cfg.Worker.TempDir,
		MaxConcurrent:  cfg.Worker.MaxConcurrent,
		PublishTimeout: cfg.Worker.PublishTimeout,
	}, st, events, catalog, steps)

	hub := ws.NewHub(ws.Config{Version: version, AllowedOrigins: cfg.API.AllowedOrigins}, events)

	tracing := ""
	if cfg.Telemetry.Enabled {
		tracing = cfg.Log.Service
	}
	srv := api.New(api.Config{
		ClipRateLimit:  cfg.API.ClipRateLimit,
		LeapRule:       rule,
		TracingService: tracing,
	}, api.Deps{
		Store:   st,
		Clips:   orch,
		Catalog: catalog,
		Health:  hm,
		Status:  hub,
	})

	serverCfg := daemon.DefaultServerConfig(cfg.Listen)
	if cfg.API.ShutdownGrace > 0 {
		serverCfg.ShutdownTimeout = cfg.API.ShutdownGrace
	}
	mgr, err := daemon.NewManager(serverCfg, daemon.Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
		Services:   []daemon.Service{{Name: "ws-hub", Run: hub.Run}},
	})
	if err != nil {
		_ = orch.Shutdown(context.Background())
		_ = st.Close()
		_ = tp.Shutdown(context.Background())
		return err
	}

	// Hooks run in reverse: jobs drain before the bus, store and exporter go away.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("store", func(context.Context) error { return st.Close() })
	if closeBus != nil {
		mgr.RegisterShutdownHook("bus", func(context.Context) error { return closeBus() })
	}
	mgr.RegisterShutdownHook("orchestrator", orch.Shutdown)

	if err := mgr.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("daemon stopped with error")
		return err
	}
	logger.Info().Msg("daemon stopped")
	return nil
}

func loadCatalog(cfg config.AppConfig) (*channels.Catalog, error) {
	if cfg.Catalog.File == "" {
		return channels.Default(), nil
	}
	c, err := channels.LoadFile(cfg.Catalog.File)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return c, nil
}
