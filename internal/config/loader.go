// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // every env key the loader looked at
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Defaults returns the configuration used when neither file nor env set a value.
func Defaults() AppConfig {
	return AppConfig{
		Listen:  ":8081",
		DataDir: "./data",
		Log:     LogConfig{Level: "info", Service: "bbcd"},
		Store:   StoreConfig{Backend: "sqlite"},
		Bus: BusConfig{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Calendar: CalendarConfig{LeapRule: "gregorian"},
		Worker: WorkerConfig{
			MaxConcurrent:  2,
			PublishTimeout: 2 * time.Second,
		},
		API: APIConfig{
			ClipRateLimit: 10,
			ShutdownGrace: 15 * time.Second,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// resolves derived paths and validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if err := resolvePaths(&cfg); err != nil {
		return cfg, err
	}

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes path over cfg with STRICT parsing.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.Listen = l.envString("BBCD_LISTEN", cfg.Listen)
	cfg.DataDir = l.envString("BBCD_DATA", cfg.DataDir)

	cfg.Log.Level = l.envString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = l.envString("LOG_SERVICE", cfg.Log.Service)

	cfg.Store.Backend = l.envString("BBCD_STORE", cfg.Store.Backend)
	cfg.Store.Path = databasePath(l.envString("DATABASE_URL", cfg.Store.Path))

	cfg.Bus.Backend = l.envString("BBCD_BUS", cfg.Bus.Backend)
	cfg.Bus.Redis.Addr = l.envString("BBCD_REDIS_ADDR", cfg.Bus.Redis.Addr)
	cfg.Bus.Redis.Password = l.envString("BBCD_REDIS_PASSWORD", cfg.Bus.Redis.Password)
	cfg.Bus.Redis.DB = l.envInt("BBCD_REDIS_DB", cfg.Bus.Redis.DB)

	cfg.Catalog.File = l.envString("BBCD_CATALOG_FILE", cfg.Catalog.File)
	cfg.Calendar.LeapRule = l.envString("BBCD_LEAP_RULE", cfg.Calendar.LeapRule)

	cfg.Worker.TempDir = l.envString("BBCD_TEMP_DIR", cfg.Worker.TempDir)
	cfg.Worker.MaxConcurrent = l.envInt("BBCD_MAX_CONCURRENT", cfg.Worker.MaxConcurrent)
	cfg.Worker.PublishTimeout = l.envDuration("BBCD_PUBLISH_TIMEOUT", cfg.Worker.PublishTimeout)

	cfg.API.ClipRateLimit = l.envInt("BBCD_CLIP_RATE_LIMIT", cfg.API.ClipRateLimit)
	cfg.API.ShutdownGrace = l.envDuration("BBCD_SHUTDOWN_GRACE", cfg.API.ShutdownGrace)

	cfg.WebDAV.URL = l.envString("WEBDAV_URL", cfg.WebDAV.URL)
	cfg.WebDAV.Username = l.envString("WEBDAV_USERNAME", cfg.WebDAV.Username)
	cfg.WebDAV.Password = l.envString("WEBDAV_PASSWORD", cfg.WebDAV.Password)

	cfg.Telemetry.Enabled = l.envBool("BBCD_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("BBCD_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("BBCD_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("BBCD_OTEL_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

// databasePath accepts a plain path or a sqlite:// / file: URL.
func databasePath(v string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:", "file:"} {
		if strings.HasPrefix(v, prefix) {
			v = strings.TrimPrefix(v, prefix)
			if i := strings.IndexByte(v, '?'); i >= 0 {
				v = v[:i]
			}
			return v
		}
	}
	return v
}

func resolvePaths(cfg *AppConfig) error {
	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = abs
	if cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(cfg.DataDir, "bbcd.sqlite")
	}
	if cfg.Worker.TempDir == "" {
		cfg.Worker.TempDir = filepath.Join(cfg.DataDir, "temp")
	}
	return nil
}
