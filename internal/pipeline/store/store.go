// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists clip job records.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/ManuGH/bbcd/internal/pipeline/fsm"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate uuid")
	ErrInvalidRange = errors.New("invalid list range")
)

const (
	// DefaultListCount is the page size used when a caller does not provide one.
	DefaultListCount = 15
	// MaxListCount bounds a single List page.
	MaxListCount = 1000
)

// RecordingStore is the system of record for clip jobs.
//
// UpdateStage is the only way to move a job; it rejects moves that are not
// edges of the stage machine, so a stored record never regresses.
type RecordingStore interface {
	// Create inserts rec and assigns its ID.
	Create(ctx context.Context, rec *model.Recording) error
	Get(ctx context.Context, uuid string) (model.Recording, error)
	// List returns up to count records ordered by ID, skipping the first start.
	// count above MaxListCount is ErrInvalidRange.
	List(ctx context.Context, start, count int) ([]model.Recording, error)
	UpdateStage(ctx context.Context, uuid string, to model.Stage, status string) (model.Recording, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// NewStore opens the named backend. path is ignored for memory.
func NewStore(ctx context.Context, backend, path string) (RecordingStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory, "":
		return NewInstrumentedStore(NewMemoryStore(), BackendMemory), nil
	case BackendSQLite:
		s, err := NewSqliteStore(ctx, path)
		if err != nil {
			return nil, err
		}
		return NewInstrumentedStore(s, BackendSQLite), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func checkRange(start, count int) error {
	if start < 0 || count < 0 || count > MaxListCount {
		return fmt.Errorf("%w: start=%d count=%d", ErrInvalidRange, start, count)
	}
	return nil
}

func checkNew(rec *model.Recording) error {
	if rec == nil {
		return errors.New("recording is nil")
	}
	if rec.UUID == "" {
		return errors.New("recording uuid is empty")
	}
	if _, err := model.ParseStage(int(rec.Stage)); err != nil {
		return err
	}
	return nil
}

func checkMove(uuid string, from, to model.Stage) error {
	if err := fsm.CheckStageTransition(from, to); err != nil {
		return fmt.Errorf("recording %s: %w", uuid, err)
	}
	return nil
}
