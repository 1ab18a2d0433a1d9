// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
)

// MemoryStore keeps records in process. Not durable.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byUUID map[string]*model.Recording
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUUID: make(map[string]*model.Recording)}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Create(_ context.Context, rec *model.Recording) error {
	if err := checkNew(rec); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byUUID[rec.UUID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.UUID)
	}
	m.nextID++
	rec.ID = m.nextID
	cp := *rec
	m.byUUID[rec.UUID] = &cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, uuid string) (model.Recording, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byUUID[uuid]
	if !ok {
		return model.Recording{}, fmt.Errorf("recording %s: %w", uuid, ErrNotFound)
	}
	return *rec, nil
}

func (m *MemoryStore) List(_ context.Context, start, count int) ([]model.Recording, error) {
	if err := checkRange(start, count); err != nil {
		return nil, err
	}
	m.mu.RLock()
	all := make([]model.Recording, 0, len(m.byUUID))
	for _, rec := range m.byUUID {
		all = append(all, *rec)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if start >= len(all) {
		return []model.Recording{}, nil
	}
	if count > len(all)-start {
		count = len(all) - start
	}
	return all[start : start+count], nil
}

func (m *MemoryStore) UpdateStage(_ context.Context, uuid string, to model.Stage, status string) (model.Recording, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byUUID[uuid]
	if !ok {
		return model.Recording{}, fmt.Errorf("recording %s: %w", uuid, ErrNotFound)
	}
	if err := checkMove(uuid, rec.Stage, to); err != nil {
		return model.Recording{}, err
	}
	rec.Stage = to
	rec.Status = status
	return *rec, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rec := range m.byUUID {
		if rec.ID == id {
			delete(m.byUUID, key)
			return nil
		}
	}
	return fmt.Errorf("recording id %d: %w", id, ErrNotFound)
}

var _ RecordingStore = (*MemoryStore)(nil)
