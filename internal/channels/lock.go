// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/bbcd/internal/log"
	"github.com/google/renameio/v2"
)

// ErrCatalogReordered means a previously persisted id now names a different source.
var ErrCatalogReordered = errors.New("catalog reordered")

// LockFileName is the default lockfile name inside the data directory.
const LockFileName = "sources.lock.json"

type lockFile struct {
	Version int      `json:"version"`
	Keys    []string `json:"keys"`
}

// CheckLock compares c against the key order recorded at path.
// A missing lockfile is created. Appended sources extend it. Any other change
// (removal, reorder, rename of a key) returns ErrCatalogReordered and leaves
// the lockfile untouched.
func CheckLock(path string, c *Catalog) error {
	logger := log.WithComponent("channels")
	keys := c.Keys()

	// #nosec G304 -- lockfile lives in the operator-provided data dir
	data, err := os.ReadFile(filepath.Clean(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info().Str(log.FieldPath, path).Int("sources", len(keys)).Msg("creating source lockfile")
		return writeLock(path, keys)
	case err != nil:
		return fmt.Errorf("read source lockfile: %w", err)
	}

	var lf lockFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return fmt.Errorf("parse source lockfile: %w", err)
	}

	if len(keys) < len(lf.Keys) {
		return fmt.Errorf("%w: %d sources locked, catalog has %d", ErrCatalogReordered, len(lf.Keys), len(keys))
	}
	for id, locked := range lf.Keys {
		if keys[id] != locked {
			return fmt.Errorf("%w: id %d was %q, now %q", ErrCatalogReordered, id, locked, keys[id])
		}
	}
	if len(keys) == len(lf.Keys) {
		return nil
	}

	logger.Info().
		Str(log.FieldPath, path).
		Int("locked", len(lf.Keys)).
		Int("sources", len(keys)).
		Msg("extending source lockfile with appended sources")
	return writeLock(path, keys)
}

func writeLock(path string, keys []string) error {
	data, err := json.MarshalIndent(lockFile{Version: 1, Keys: keys}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create lockfile dir: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write source lockfile: %w", err)
	}
	return nil
}
