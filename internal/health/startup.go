// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/config"
	"github.com/ManuGH/bbcd/internal/log"
	"github.com/ManuGH/bbcd/internal/persistence/sqlite"
)

// PerformStartupChecks validates the environment before the server starts.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig, catalog *channels.Catalog) error {
	logger := log.WithComponent("startup-check")

	for _, dir := range []struct{ name, path string }{
		{"data_dir", cfg.DataDir},
		{"temp_dir", cfg.Worker.TempDir},
	} {
		res := NewDirChecker(dir.name, dir.path).Check(ctx)
		if res.Status != StatusHealthy {
			return fmt.Errorf("%s check failed: %s (%s)", dir.name, res.Error, res.Message)
		}
	}

	if err := channels.CheckLock(filepath.Join(cfg.DataDir, channels.LockFileName), catalog); err != nil {
		return fmt.Errorf("channel catalog check failed: %w", err)
	}

	if err := checkStoreIntegrity(ctx, cfg); err != nil {
		return err
	}

	if strings.EqualFold(cfg.Store.Backend, "memory") {
		logger.Warn().
			Str("store_backend", cfg.Store.Backend).
			Msg("recordings are kept in memory and lost on restart")
	}

	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; recordings may be lost on reboot")
	}

	logger.Info().Msg("startup checks passed")
	return nil
}

// checkStoreIntegrity quick-checks an existing SQLite store. A missing file is
// a first start and passes.
func checkStoreIntegrity(ctx context.Context, cfg config.AppConfig) error {
	if !strings.EqualFold(cfg.Store.Backend, "sqlite") || cfg.Store.Path == "" {
		return nil
	}
	if _, err := os.Stat(cfg.Store.Path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := sqlite.VerifyIntegrity(ctx, cfg.Store.Path, sqlite.IntegrityQuick); err != nil {
		return fmt.Errorf("store integrity check failed: %w", err)
	}
	return nil
}
