// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/ManuGH/bbcd/internal/pipeline/fsm"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]RecordingStore {
	t.Helper()
	sq, err := NewSqliteStore(context.Background(), filepath.Join(t.TempDir(), "bbcd.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]RecordingStore{
		BackendMemory: NewMemoryStore(),
		BackendSQLite: sq,
	}
}

func newRecording(uuid string) *model.Recording {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.Recording{
		UUID:     uuid,
		RecStart: start,
		RecEnd:   start.Add(10 * time.Minute),
		Status:   model.StageWaitingInQueue.String(),
		Stage:    model.StageWaitingInQueue,
		Channel:  4,
	}
}

func TestStoreCreateGet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			uid := int64(9)
			rec := newRecording("a")
			rec.UserID = &uid
			require.NoError(t, s.Create(ctx, rec))
			assert.NotZero(t, rec.ID)

			got, err := s.Get(ctx, "a")
			require.NoError(t, err)
			if diff := cmp.Diff(*rec, got); diff != "" {
				t.Fatalf("record mismatch (-want +got):\n%s", diff)
			}

			err = s.Create(ctx, newRecording("a"))
			assert.ErrorIs(t, err, ErrDuplicate)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreCreateRejectsInvalidStage(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			rec := newRecording("x")
			rec.Stage = model.StageSentinelMaxOK
			assert.ErrorIs(t, s.Create(context.Background(), rec), model.ErrInvalidStageCode)
		})
	}
}

func TestStoreListPaging(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 20; i++ {
				require.NoError(t, s.Create(ctx, newRecording(fmt.Sprintf("r%02d", i))))
			}

			page, err := s.List(ctx, 0, DefaultListCount)
			require.NoError(t, err)
			require.Len(t, page, DefaultListCount)
			assert.Equal(t, "r00", page[0].UUID)

			page, err = s.List(ctx, 15, 15)
			require.NoError(t, err)
			require.Len(t, page, 5)
			assert.Equal(t, "r15", page[0].UUID)

			page, err = s.List(ctx, 100, 5)
			require.NoError(t, err)
			assert.Empty(t, page)

			_, err = s.List(ctx, -1, 5)
			assert.ErrorIs(t, err, ErrInvalidRange)

			page, err = s.List(ctx, 1, MaxListCount)
			require.NoError(t, err)
			require.Len(t, page, 19)
			assert.Equal(t, "r19", page[18].UUID)
		})
	}
}

func TestStoreListRejectsOversizedPage(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Create(ctx, newRecording("only")))

			for _, count := range []int{MaxListCount + 1, 1 << 41, math.MaxInt} {
				page, err := s.List(ctx, 1, count)
				assert.ErrorIs(t, err, ErrInvalidRange, "count=%d", count)
				assert.Nil(t, page)
			}
		})
	}
}

func TestStoreUpdateStageFollowsMachine(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Create(ctx, newRecording("job")))

			_, err := s.UpdateStage(ctx, "job", model.StageDownloading, "skip")
			assert.ErrorIs(t, err, fsm.ErrIllegalTransition)

			got, err := s.UpdateStage(ctx, "job", model.StageInitialising, "Initialising")
			require.NoError(t, err)
			assert.Equal(t, model.StageInitialising, got.Stage)

			got, err = s.UpdateStage(ctx, "job", model.StageDownloading, "Downloading")
			require.NoError(t, err)
			got, err = s.UpdateStage(ctx, "job", model.StageDownloadingFailed, "segment 40 missing")
			require.NoError(t, err)
			assert.Equal(t, "segment 40 missing", got.Status)

			_, err = s.UpdateStage(ctx, "job", model.StageCombining, "Combining")
			assert.ErrorIs(t, err, fsm.ErrIllegalTransition)

			stored, err := s.Get(ctx, "job")
			require.NoError(t, err)
			assert.Equal(t, model.StageDownloadingFailed, stored.Stage)

			_, err = s.UpdateStage(ctx, "nope", model.StageInitialising, "")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := newRecording("d")
			require.NoError(t, s.Create(ctx, rec))
			require.NoError(t, s.Delete(ctx, rec.ID))
			_, err := s.Get(ctx, "d")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, rec.ID), ErrNotFound)
		})
	}
}

func TestSqliteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bbcd.sqlite")

	s, err := NewSqliteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, newRecording("persist")))
	require.NoError(t, s.Close())

	s, err = NewSqliteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "persist")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Channel)
}

func TestNewStoreBackends(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore(ctx, "memory", "")
	require.NoError(t, err)
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	s, err = NewStore(ctx, "sqlite", filepath.Join(t.TempDir(), "f.sqlite"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = NewStore(ctx, "bolt", "")
	assert.Error(t, err)
}
