// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/ManuGH/bbcd/internal/persistence/sqlite"
)

var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS recordings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER,
		uuid TEXT NOT NULL UNIQUE,
		rec_start TEXT NOT NULL,
		rec_end TEXT NOT NULL,
		status TEXT NOT NULL,
		stage INTEGER NOT NULL,
		channel INTEGER NOT NULL
	);
	`,
	`CREATE INDEX IF NOT EXISTS idx_recordings_stage ON recordings(stage);`,
}

const recordingColumns = "id, user_id, uuid, rec_start, rec_end, status, stage, channel"

// SqliteStore implements RecordingStore on SQLite.
type SqliteStore struct {
	DB *sql.DB
}

// NewSqliteStore opens dbPath and brings its schema up to date.
func NewSqliteStore(ctx context.Context, dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(ctx, dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(ctx, db, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("recording store: migration failed: %w", err)
	}
	return &SqliteStore{DB: db}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (model.Recording, error) {
	var (
		rec        model.Recording
		userID     sql.NullInt64
		start, end string
	)
	if err := row.Scan(&rec.ID, &userID, &rec.UUID, &start, &end, &rec.Status, &rec.Stage, &rec.Channel); err != nil {
		return model.Recording{}, err
	}
	if userID.Valid {
		v := userID.Int64
		rec.UserID = &v
	}
	var err error
	if rec.RecStart, err = time.Parse(time.RFC3339, start); err != nil {
		return model.Recording{}, fmt.Errorf("recording %s: rec_start: %w", rec.UUID, err)
	}
	if rec.RecEnd, err = time.Parse(time.RFC3339, end); err != nil {
		return model.Recording{}, fmt.Errorf("recording %s: rec_end: %w", rec.UUID, err)
	}
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *SqliteStore) Create(ctx context.Context, rec *model.Recording) error {
	if err := checkNew(rec); err != nil {
		return err
	}
	var userID any
	if rec.UserID != nil {
		userID = *rec.UserID
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO recordings (user_id, uuid, rec_start, rec_end, status, stage, channel) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, rec.UUID, formatTime(rec.RecStart), formatTime(rec.RecEnd), rec.Status, rec.Stage, rec.Channel,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicate, rec.UUID)
		}
		return fmt.Errorf("insert recording %s: %w", rec.UUID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert recording %s: %w", rec.UUID, err)
	}
	rec.ID = id
	return nil
}

func (s *SqliteStore) Get(ctx context.Context, uuid string) (model.Recording, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+recordingColumns+" FROM recordings WHERE uuid = ?", uuid)
	rec, err := scanRecording(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Recording{}, fmt.Errorf("recording %s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return model.Recording{}, fmt.Errorf("get recording %s: %w", uuid, err)
	}
	return rec, nil
}

func (s *SqliteStore) List(ctx context.Context, start, count int) ([]model.Recording, error) {
	if err := checkRange(start, count); err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+recordingColumns+" FROM recordings ORDER BY id LIMIT ? OFFSET ?", count, start)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	out := []model.Recording{}
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("list recordings: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	return out, nil
}

// UpdateStage moves a job with a compare-and-set on the stage column so a
// concurrent writer cannot slip an illegal move in between read and write.
func (s *SqliteStore) UpdateStage(ctx context.Context, uuid string, to model.Stage, status string) (model.Recording, error) {
	current, err := s.Get(ctx, uuid)
	if err != nil {
		return model.Recording{}, err
	}
	if err := checkMove(uuid, current.Stage, to); err != nil {
		return model.Recording{}, err
	}

	res, err := s.DB.ExecContext(ctx,
		"UPDATE recordings SET stage = ?, status = ? WHERE uuid = ? AND stage = ?",
		to, status, uuid, current.Stage)
	if err != nil {
		return model.Recording{}, fmt.Errorf("update recording %s: %w", uuid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Recording{}, fmt.Errorf("update recording %s: %w", uuid, err)
	}
	if n == 0 {
		// Moved or deleted underneath us; report against the fresh state.
		fresh, err := s.Get(ctx, uuid)
		if err != nil {
			return model.Recording{}, err
		}
		if err := checkMove(uuid, fresh.Stage, to); err != nil {
			return model.Recording{}, err
		}
		return model.Recording{}, fmt.Errorf("update recording %s: concurrent stage change to %q", uuid, fresh.Stage)
	}

	current.Stage = to
	current.Status = status
	return current, nil
}

func (s *SqliteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM recordings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete recording id %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recording id %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("recording id %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SqliteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}

var _ RecordingStore = (*SqliteStore)(nil)
