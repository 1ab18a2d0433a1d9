// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidStageCode is returned when a code outside the closed stage set reaches a boundary.
var ErrInvalidStageCode = errors.New("invalid stage code")

// Stage is the status of a recording job. Codes are stable: they are persisted
// and sent to clients as plain integers.
type Stage int

const (
	StageWaitingInQueue Stage = 0
	StageInitialising   Stage = 1
	StageDownloading    Stage = 2
	StageCombining      Stage = 3
	StageEncoding       Stage = 4
	StageUploading      Stage = 5
	StageCompleted      Stage = 6

	// StageSentinelMaxOK separates OK codes from failure codes. It is never a job's status.
	StageSentinelMaxOK Stage = 7

	StageFailed            Stage = 10
	StageDownloadingFailed Stage = 11
	StageCombiningFailed   Stage = 12
	StageEncodingFailed    Stage = 13
	StageUploadingFailed   Stage = 14
)

var stageNames = map[Stage]string{
	StageWaitingInQueue:    "Waiting in Queue",
	StageInitialising:      "Initialising",
	StageDownloading:       "Downloading",
	StageCombining:         "Combining",
	StageEncoding:          "Encoding",
	StageUploading:         "Uploading Result",
	StageCompleted:         "Completed",
	StageSentinelMaxOK:     "_SENTINEL_MAX_OK",
	StageFailed:            "Failed",
	StageDownloadingFailed: "Downloading Failed",
	StageCombiningFailed:   "Combining Failed",
	StageEncodingFailed:    "Encoding Failed",
	StageUploadingFailed:   "Uploading Failed",
}

// Stages lists every code a job may hold, in code order.
func Stages() []Stage {
	return []Stage{
		StageWaitingInQueue, StageInitialising, StageDownloading, StageCombining,
		StageEncoding, StageUploading, StageCompleted,
		StageFailed, StageDownloadingFailed, StageCombiningFailed,
		StageEncodingFailed, StageUploadingFailed,
	}
}

// ParseStage validates a raw code. The sentinel and the 8–9 gap are rejected.
func ParseStage(code int) (Stage, error) {
	s := Stage(code)
	if s == StageSentinelMaxOK {
		return 0, fmt.Errorf("%w: %d is the ok/failure boundary marker", ErrInvalidStageCode, code)
	}
	if _, ok := stageNames[s]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStageCode, code)
	}
	return s, nil
}

// IsOK reports whether s is a pending or successful code (0 <= s < 7).
func IsOK(s Stage) bool {
	return s >= StageWaitingInQueue && s < StageSentinelMaxOK
}

// IsFailure reports whether s is a failure code (s >= 10).
func IsFailure(s Stage) bool {
	return s >= StageFailed
}

// IsTerminal reports whether no further transition may leave s.
func IsTerminal(s Stage) bool {
	return s == StageCompleted || IsFailure(s)
}

// IsPending reports whether s is on the forward path and not yet completed.
func (s Stage) IsPending() bool {
	return s >= StageWaitingInQueue && s < StageCompleted
}

// Valid reports whether s is a code a job may hold.
func (s Stage) Valid() bool {
	_, err := ParseStage(int(s))
	return err == nil
}

// Next returns the successor on the forward path.
func (s Stage) Next() (Stage, bool) {
	if !s.IsPending() {
		return s, false
	}
	return s + 1, true
}

// FailureVariant maps a pending stage to the failure reported when work in that
// stage fails. Stages without a dedicated failure map to StageFailed.
func (s Stage) FailureVariant() Stage {
	switch s {
	case StageDownloading:
		return StageDownloadingFailed
	case StageCombining:
		return StageCombiningFailed
	case StageEncoding:
		return StageEncodingFailed
	case StageUploading:
		return StageUploadingFailed
	default:
		return StageFailed
	}
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// MarshalJSON encodes the numeric code.
func (s Stage) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStageCode, int(s))
	}
	return json.Marshal(int(s))
}

// UnmarshalJSON accepts only codes of the closed set.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStageCode, string(data))
	}
	parsed, err := ParseStage(code)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s Stage) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStageCode, int(s))
	}
	return int64(s), nil
}

// Scan implements sql.Scanner.
func (s *Stage) Scan(src any) error {
	var code int64
	switch v := src.(type) {
	case int64:
		code = v
	case int:
		code = int64(v)
	case nil:
		return fmt.Errorf("%w: NULL", ErrInvalidStageCode)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidStageCode, src)
	}
	parsed, err := ParseStage(int(code))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
