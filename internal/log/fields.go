// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID     = "request_id"
	FieldCorrelationID = "correlation_id"
	FieldJobID         = "job_id"
	FieldClientID      = "client_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Recording fields
	FieldChannel   = "channel"
	FieldSourceKey = "source_key"
	FieldFrameType = "frame_type"

	// State fields
	FieldOldStage = "old_stage"
	FieldNewStage = "new_stage"

	// Path / URL fields
	FieldPath    = "path"
	FieldWorkDir = "work_dir"
)
