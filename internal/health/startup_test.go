// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/config"
	"github.com/ManuGH/bbcd/internal/persistence/sqlite"
	"github.com/ManuGH/bbcd/internal/pipeline/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformStartupChecks(t *testing.T) {
	dataDir := t.TempDir()
	tempDir := filepath.Join(dataDir, "temp")
	require.NoError(t, os.MkdirAll(tempDir, 0o750))

	cfg := config.Defaults()
	cfg.DataDir = dataDir
	cfg.Worker.TempDir = tempDir

	require.NoError(t, PerformStartupChecks(context.Background(), cfg, channels.Default()))
	assert.FileExists(t, filepath.Join(dataDir, channels.LockFileName))

	// Second start with the same catalog is accepted.
	require.NoError(t, PerformStartupChecks(context.Background(), cfg, channels.Default()))
}

func TestPerformStartupChecks_MissingTempDir(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Worker.TempDir = filepath.Join(cfg.DataDir, "missing")

	err := PerformStartupChecks(context.Background(), cfg, channels.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temp_dir")
}

func TestPerformStartupChecks_StoreIntegrity(t *testing.T) {
	ctx := context.Background()
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Worker.TempDir = cfg.DataDir
	cfg.Store.Backend = "sqlite"
	cfg.Store.Path = filepath.Join(cfg.DataDir, "bbcd.sqlite")

	// No database yet: first start.
	require.NoError(t, PerformStartupChecks(ctx, cfg, channels.Default()))

	st, err := store.NewStore(ctx, store.BackendSQLite, cfg.Store.Path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.NoError(t, PerformStartupChecks(ctx, cfg, channels.Default()))

	require.NoError(t, os.WriteFile(cfg.Store.Path, bytes.Repeat([]byte{0xA5}, 8192), 0o600))
	err = PerformStartupChecks(ctx, cfg, channels.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlite.ErrCorrupt)
}
