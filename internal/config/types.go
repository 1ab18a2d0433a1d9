// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration.
//
// Precedence is ENV > file > defaults. The YAML file is parsed strictly:
// unknown keys are an error.
package config

import "time"

// AppConfig is the fully resolved configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	Listen  string `yaml:"listen"`
	DataDir string `yaml:"dataDir"`

	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Bus       BusConfig       `yaml:"bus"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Worker    WorkerConfig    `yaml:"worker"`
	API       APIConfig       `yaml:"api"`
	WebDAV    WebDAVConfig    `yaml:"webdav"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// StoreConfig selects the recording store. Path is the SQLite file; when empty
// it defaults to <dataDir>/bbcd.sqlite.
type StoreConfig struct {
	Backend string `yaml:"backend"` // memory | sqlite
	Path    string `yaml:"path"`
}

type BusConfig struct {
	Backend string      `yaml:"backend"` // memory | redis
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CatalogConfig optionally replaces the built-in source catalog. The lockfile
// guarding source ids always lives in the data directory.
type CatalogConfig struct {
	File string `yaml:"file"`
}

type CalendarConfig struct {
	LeapRule string `yaml:"leapRule"` // gregorian | legacy
}

type WorkerConfig struct {
	TempDir        string        `yaml:"tempDir"`
	MaxConcurrent  int           `yaml:"maxConcurrent"`
	PublishTimeout time.Duration `yaml:"publishTimeout"`
}

type APIConfig struct {
	// ClipRateLimit is the number of POST /clip requests allowed per client IP per minute.
	ClipRateLimit int           `yaml:"clipRateLimit"`
	ShutdownGrace time.Duration `yaml:"shutdownGrace"`
	// AllowedOrigins restricts browser origins on /websocket. Empty allows any origin.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type WebDAVConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Enabled reports whether uploads are configured.
func (w WebDAVConfig) Enabled() bool { return w.URL != "" }

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc | http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}
