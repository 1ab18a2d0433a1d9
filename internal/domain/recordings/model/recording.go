// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import "time"

// Recording is the persisted row of a clip job.
// Status holds the stage name while the job succeeds and the error text once it fails.
type Recording struct {
	ID       int64     `json:"id"`
	UserID   *int64    `json:"user_id"`
	UUID     string    `json:"uuid"`
	RecStart time.Time `json:"rec_start"`
	RecEnd   time.Time `json:"rec_end"`
	Status   string    `json:"status"`
	Stage    Stage     `json:"stage"`
	Channel  int       `json:"channel"`
}

// Duration is the length of the recorded window.
func (r Recording) Duration() time.Duration {
	return r.RecEnd.Sub(r.RecStart)
}

// IsTerminal reports whether the job has reached a final stage.
func (r Recording) IsTerminal() bool {
	return IsTerminal(r.Stage)
}
