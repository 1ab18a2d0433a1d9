// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// IntegrityMode selects the SQLite consistency pragma.
type IntegrityMode string

const (
	// IntegrityQuick runs PRAGMA quick_check (O(N), skips index contents).
	IntegrityQuick IntegrityMode = "quick"
	// IntegrityFull runs PRAGMA integrity_check.
	IntegrityFull IntegrityMode = "full"
)

// ErrCorrupt wraps the problems reported by VerifyIntegrity.
var ErrCorrupt = errors.New("sqlite: database is corrupt")

// VerifyIntegrity opens path read-only and runs the pragma for mode. A healthy
// database yields nil; otherwise the error wraps ErrCorrupt and lists at most
// the first five problems SQLite reported.
func VerifyIntegrity(ctx context.Context, path string, mode IntegrityMode) error {
	pragma := "PRAGMA quick_check"
	switch mode {
	case IntegrityQuick, "":
	case IntegrityFull:
		pragma = "PRAGMA integrity_check"
	default:
		return fmt.Errorf("sqlite: unknown integrity mode %q", mode)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(2000)", path))
	if err != nil {
		return fmt.Errorf("sqlite: open for verification: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, pragma, err)
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return fmt.Errorf("sqlite: scan %s row: %w", pragma, err)
		}
		problems = append(problems, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, pragma, err)
	}

	switch {
	case len(problems) == 1 && strings.EqualFold(problems[0], "ok"):
		return nil
	case len(problems) == 0:
		return fmt.Errorf("%w: %s returned no rows", ErrCorrupt, pragma)
	}
	if len(problems) > 5 {
		problems = problems[:5]
	}
	return fmt.Errorf("%w: %s", ErrCorrupt, strings.Join(problems, "; "))
}
