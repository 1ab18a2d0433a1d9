// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/bbcd/internal/log"
	"github.com/rs/zerolog"
)

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password")
}

// lookup reads key and parses it. Unset or empty variables and parse failures
// yield def. Every decision is logged; sensitive values are never logged.
func lookup[T any](logger zerolog.Logger, key string, def T, kind string, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().
			Str("key", key).
			Interface("default", def).
			Str("source", "default").
			Msg("using default value")
		return def
	}
	if raw == "" {
		logger.Debug().
			Str("key", key).
			Interface("default", def).
			Str("source", "default").
			Msg("using default value (environment variable is empty)")
		return def
	}
	v, err := parse(raw)
	if err != nil {
		ev := logger.Warn().Str("key", key).Interface("default", def)
		if !isSensitive(key) {
			ev = ev.Str("value", raw)
		}
		ev.Msgf("invalid %s in environment variable, using default", kind)
		return def
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if isSensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Interface("value", v)
	}
	ev.Msg("using environment variable")
	return v
}

// ParseString reads a string from environment variable or returns default value.
func ParseString(key, defaultValue string) string {
	return lookup(log.WithComponent("config"), key, defaultValue, "string",
		func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from environment variable or returns default value.
func ParseInt(key string, defaultValue int) int {
	return lookup(log.WithComponent("config"), key, defaultValue, "integer", strconv.Atoi)
}

// ParseDuration reads a Go duration (e.g. "5s") from environment variable.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookup(log.WithComponent("config"), key, defaultValue, "duration", time.ParseDuration)
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	return lookup(log.WithComponent("config"), key, defaultValue, "float",
		func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

// ParseBool accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return lookup(log.WithComponent("config"), key, defaultValue, "boolean", parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, strconv.ErrSyntax
}
