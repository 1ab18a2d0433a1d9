// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/bbcd/internal/calendar"
	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/log"
	"github.com/ManuGH/bbcd/internal/pipeline/store"
	"github.com/ManuGH/bbcd/internal/pipeline/worker"
	"github.com/ManuGH/bbcd/internal/schedule"
)

const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeConflict       = "conflict"
	codeUnavailable    = "unavailable"
	codeInternal       = "internal_error"
	codeTooLarge       = "request_too_large"
)

// errorResponse is the body of every non-2xx JSON reply.
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Error: code, Detail: detail})
}

// classify maps domain errors onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, codeConflict
	case errors.Is(err, worker.ErrShuttingDown):
		return http.StatusServiceUnavailable, codeUnavailable
	case errors.Is(err, worker.ErrInvalidClip),
		errors.Is(err, schedule.ErrInvalidWindow),
		errors.Is(err, schedule.ErrInvalidDurationUnit),
		errors.Is(err, calendar.ErrInvalidDay),
		errors.Is(err, calendar.ErrInvalidMonth),
		errors.Is(err, channels.ErrSourceIndexOutOfRange),
		errors.Is(err, store.ErrInvalidRange):
		return http.StatusBadRequest, codeInvalidRequest
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// respondError classifies err, logs server-side failures and writes the reply.
// Internal error details are not exposed to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	detail := err.Error()
	if status >= http.StatusInternalServerError {
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "request.failed").
			Str(log.FieldPath, r.URL.Path).
			Int("status", status).
			Msg("request failed")
		if status == http.StatusInternalServerError {
			detail = "an unexpected error occurred"
		}
	}
	writeError(w, status, code, detail)
}
