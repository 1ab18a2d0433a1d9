// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/bbcd/internal/calendar"
	"github.com/ManuGH/bbcd/internal/validate"
	"github.com/rs/zerolog"
)

// Validate checks a resolved AppConfig and creates the data and temp directories.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.ListenAddr("listen", cfg.Listen)
	v.Directory("dataDir", cfg.DataDir, false)
	v.NotEmpty("log.service", cfg.Log.Service)
	v.Custom("log.level", cfg.Log.Level, func(any) error {
		_, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
		return err
	})

	v.OneOf("store.backend", cfg.Store.Backend, []string{"memory", "sqlite"})
	if cfg.Store.Backend == "sqlite" {
		v.NotEmpty("store.path", cfg.Store.Path)
	}

	v.OneOf("bus.backend", cfg.Bus.Backend, []string{"memory", "redis"})
	if cfg.Bus.Backend == "redis" {
		v.NotEmpty("bus.redis.addr", cfg.Bus.Redis.Addr)
		v.Range("bus.redis.db", cfg.Bus.Redis.DB, 0, 15)
	}

	if cfg.Catalog.File != "" {
		v.File("catalog.file", cfg.Catalog.File)
	}
	v.Custom("calendar.leapRule", cfg.Calendar.LeapRule, func(any) error {
		_, err := calendar.ParseLeapRule(cfg.Calendar.LeapRule)
		return err
	})

	v.Directory("worker.tempDir", cfg.Worker.TempDir, false)
	v.Range("worker.maxConcurrent", cfg.Worker.MaxConcurrent, 1, 64)
	if cfg.Worker.PublishTimeout <= 0 {
		v.AddError("worker.publishTimeout", fmt.Sprintf("must be positive, got %s", cfg.Worker.PublishTimeout), cfg.Worker.PublishTimeout)
	}

	v.Positive("api.clipRateLimit", cfg.API.ClipRateLimit)

	if cfg.WebDAV.Enabled() {
		v.URL("webdav.url", cfg.WebDAV.URL, []string{"http", "https"})
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
