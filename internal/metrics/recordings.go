// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stageTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbcd_recording_stage_transitions_total",
		Help: "Total number of persisted recording stage transitions by target stage",
	}, []string{"stage"})

	jobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bbcd_clip_jobs_in_flight",
		Help: "Number of clip jobs currently holding a worker slot",
	})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbcd_clip_jobs_total",
		Help: "Total number of finished clip jobs by outcome",
	}, []string{"outcome"}) // outcome=completed|failed

	jobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bbcd_clip_job_duration_seconds",
		Help:    "Wall time of clip jobs from slot acquisition to terminal stage",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"outcome"})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bbcd_ws_clients",
		Help: "Number of connected job-status clients",
	})

	wsFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bbcd_ws_frames_total",
		Help: "Frames handled on the job-status channel by direction, type and result",
	}, []string{"direction", "type", "result"})
)

// IncStageTransition records a persisted transition into stage.
func IncStageTransition(stage string) {
	if stage == "" {
		stage = "unknown"
	}
	stageTransitionsTotal.WithLabelValues(stage).Inc()
}

// JobStarted marks a job as holding a worker slot.
func JobStarted() { jobsInFlight.Inc() }

// JobFinished releases the slot and records the outcome.
func JobFinished(failed bool, seconds float64) {
	jobsInFlight.Dec()
	outcome := "completed"
	if failed {
		outcome = "failed"
	}
	jobsTotal.WithLabelValues(outcome).Inc()
	jobDuration.WithLabelValues(outcome).Observe(seconds)
}

// WSClientConnected counts a job-status client in.
func WSClientConnected() { wsClients.Inc() }

// WSClientDisconnected counts a job-status client out.
func WSClientDisconnected() { wsClients.Dec() }

// IncWSFrame counts a frame. direction is "in" or "out"; result is
// "sent", "received", "dropped" or "rejected".
func IncWSFrame(direction, frameType, result string) {
	wsFramesTotal.WithLabelValues(normalizeDirection(direction), frameType, result).Inc()
}

func normalizeDirection(d string) string {
	switch d {
	case "in", "out":
		return d
	default:
		return "unknown"
	}
}

