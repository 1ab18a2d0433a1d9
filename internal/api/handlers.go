// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ManuGH/bbcd/internal/calendar"
	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/ManuGH/bbcd/internal/log"
	"github.com/ManuGH/bbcd/internal/pipeline/store"
	"github.com/ManuGH/bbcd/internal/pipeline/worker"
	"github.com/ManuGH/bbcd/internal/schedule"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleWelcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(WelcomeText))
}

// queryInt parses an optional non-negative integer; anything else yields def.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	start := queryInt(r, "start", 0)
	count := min(queryInt(r, "count", store.DefaultListCount), store.MaxListCount)

	recs, err := s.deps.Store.List(r.Context(), start, count)
	if err != nil {
		respondError(w, r, fmt.Errorf("failed to fetch recordings: %w", err))
		return
	}
	if recs == nil {
		recs = []model.Recording{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// clipBody is the JSON body of POST /clip. The window fields are those of
// schedule.Request.
type clipBody struct {
	Channel *int `json:"channel"`
	schedule.Request
	Encode bool   `json:"encode"`
	UserID *int64 `json:"user_id,omitempty"`
}

type clipResponse struct {
	UUID string `json:"uuid"`
}

func (s *Server) handleClip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxClipBody)

	var body clipBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge,
				fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "malformed JSON body: "+err.Error())
		return
	}
	if body.Channel == nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "channel is required")
		return
	}

	window, err := body.Resolve(s.cfg.LeapRule)
	if err != nil {
		respondError(w, r, err)
		return
	}

	rec, err := s.deps.Clips.Submit(r.Context(), worker.ClipRequest{
		Channel: *body.Channel,
		Window:  window,
		Encode:  body.Encode,
		UserID:  body.UserID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	logger := log.WithComponentFromContext(r.Context(), "api")
	logger.Info().
		Str(log.FieldEvent, "clip.accepted").
		Str(log.FieldJobID, rec.UUID).
		Int(log.FieldChannel, rec.Channel).
		Time("rec_start", rec.RecStart).
		Time("rec_end", rec.RecEnd).
		Bool("encode", body.Encode).
		Msg("clip accepted")

	writeJSON(w, http.StatusAccepted, clipResponse{UUID: rec.UUID})
}

func (s *Server) handleDeleteRecording(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "id must be a positive integer")
		return
	}
	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// sourceView is a catalog entry with its positional id.
type sourceView struct {
	ID    int    `json:"id"`
	Key   string `json:"key"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

type groupView struct {
	Name    string       `json:"name"`
	Sources []sourceView `json:"sources"`
}

func (s *Server) handleListSources(w http.ResponseWriter, _ *http.Request) {
	groups := s.deps.Catalog.Groups()
	out := make([]groupView, 0, len(groups))
	id := 0
	for _, g := range groups {
		gv := groupView{Name: g.Name, Sources: make([]sourceView, 0, len(g.Sources))}
		for _, src := range g.Sources {
			gv.Sources = append(gv.Sources, sourceView{ID: id, Key: src.Key, Name: src.Name, Group: g.Name})
			id++
		}
		out = append(out, gv)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "id must be an integer")
		return
	}
	src, err := s.deps.Catalog.Source(id)
	if errors.Is(err, channels.ErrSourceIndexOutOfRange) {
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
		return
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sourceView{ID: id, Key: src.Key, Name: src.Name, Group: s.groupOf(id)})
}

func (s *Server) groupOf(id int) string {
	for _, g := range s.deps.Catalog.Groups() {
		if id < len(g.Sources) {
			return g.Name
		}
		id -= len(g.Sources)
	}
	return ""
}

type calendarResponse struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	MaxDay   int    `json:"maxDay"`
	LeapRule string `json:"leapRule"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, yerr := strconv.Atoi(chi.URLParam(r, "year"))
	month, merr := strconv.Atoi(chi.URLParam(r, "month"))
	if yerr != nil || merr != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "year and month must be integers")
		return
	}
	rule := s.cfg.LeapRule
	if q := r.URL.Query().Get("rule"); q != "" {
		parsed, err := calendar.ParseLeapRule(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, err.Error())
			return
		}
		rule = parsed
	}
	maxDay, err := calendar.MaxDay(year, month, rule)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse{Year: year, Month: month, MaxDay: maxDay, LeapRule: string(rule)})
}
