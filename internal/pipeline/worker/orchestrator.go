// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package worker runs clip jobs through their stages.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/ManuGH/bbcd/internal/log"
	"github.com/ManuGH/bbcd/internal/metrics"
	"github.com/ManuGH/bbcd/internal/pipeline/bus"
	"github.com/ManuGH/bbcd/internal/pipeline/fsm"
	"github.com/ManuGH/bbcd/internal/pipeline/store"
	"github.com/ManuGH/bbcd/internal/schedule"
	"github.com/ManuGH/bbcd/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrShuttingDown is returned by Submit once Shutdown has been called.
	ErrShuttingDown = errors.New("orchestrator is shutting down")
	// ErrInvalidClip is returned for requests that can never run.
	ErrInvalidClip = errors.New("invalid clip request")
)

// ClipRequest is a validated request to record a window of one source.
type ClipRequest struct {
	Channel int
	Window  schedule.Window
	Encode  bool
	UserID  *int64
}

// Config tunes the orchestrator.
type Config struct {
	// TempDir holds one work directory per running job.
	TempDir string
	// MaxConcurrent bounds the number of jobs past Waiting in Queue.
	MaxConcurrent int
	// PublishTimeout bounds each bus publish.
	PublishTimeout time.Duration
}

// Orchestrator accepts clip requests and drives each job to a terminal stage.
//
// Jobs run on the orchestrator's own context: neither the HTTP request that
// submitted a job nor any status channel can cancel it. Only Shutdown does.
type Orchestrator struct {
	store   store.RecordingStore
	bus     bus.Bus
	catalog *channels.Catalog
	steps   Steps
	cfg     Config
	sem     *semaphore.Weighted
	tracer  trace.Tracer
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New builds an orchestrator. steps defaults to DefaultSteps{}.
func New(cfg Config, st store.RecordingStore, b bus.Bus, catalog *channels.Catalog, steps Steps) *Orchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = 2 * time.Second
	}
	if cfg.TempDir == "" {
		cfg.TempDir = filepath.Join(os.TempDir(), "bbcd")
	}
	if steps == nil {
		steps = DefaultSteps{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:   st,
		bus:     b,
		catalog: catalog,
		steps:   steps,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		tracer:  telemetry.Tracer("bbcd/worker"),
		logger:  log.WithComponent("worker"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit records a new job in Waiting in Queue, publishes it and starts it in
// the background. ctx only bounds the synchronous part.
func (o *Orchestrator) Submit(ctx context.Context, req ClipRequest) (model.Recording, error) {
	src, err := o.catalog.Source(req.Channel)
	if err != nil {
		return model.Recording{}, fmt.Errorf("%w: %w", ErrInvalidClip, err)
	}
	if !req.Window.End.After(req.Window.Start) {
		return model.Recording{}, fmt.Errorf("%w: %w", ErrInvalidClip, schedule.ErrInvalidWindow)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return model.Recording{}, ErrShuttingDown
	}
	o.wg.Add(1)
	o.mu.Unlock()
	started := false
	defer func() {
		if !started {
			o.wg.Done()
		}
	}()

	rec := model.Recording{
		UserID:   req.UserID,
		UUID:     uuid.NewString(),
		RecStart: req.Window.Start.UTC().Truncate(time.Second),
		RecEnd:   req.Window.End.UTC().Truncate(time.Second),
		Status:   model.StageWaitingInQueue.String(),
		Stage:    model.StageWaitingInQueue,
		Channel:  req.Channel,
	}
	if err := o.store.Create(ctx, &rec); err != nil {
		return model.Recording{}, fmt.Errorf("create recording: %w", err)
	}
	o.publish(rec)

	first, last := SegmentRange(rec.RecStart.Unix(), rec.RecEnd.Unix())
	job := Job{
		UUID:     rec.UUID,
		Channel:  rec.Channel,
		Source:   src,
		Window:   schedule.Window{Start: rec.RecStart, End: rec.RecEnd},
		Segments: [2]int64{first, last},
		Encode:   req.Encode,
		WorkDir:  filepath.Join(o.cfg.TempDir, rec.UUID),
	}

	started = true
	go func() {
		defer o.wg.Done()
		o.run(job)
	}()

	return rec, nil
}

// Shutdown stops accepting jobs, cancels running ones and waits for them to
// record their final stage or for ctx to end.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.cancel()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

// Wait blocks until every submitted job has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

type stageStep struct {
	stage model.Stage
	run   func(ctx context.Context, job Job) error
}

func (o *Orchestrator) pipeline() []stageStep {
	return []stageStep{
		{model.StageInitialising, o.prepare},
		{model.StageDownloading, o.steps.Download},
		{model.StageCombining, o.steps.Combine},
		// Encoding is entered even when job.Encode is false; the step decides what to do.
		{model.StageEncoding, o.steps.Encode},
		{model.StageUploading, o.steps.Upload},
	}
}

func (o *Orchestrator) prepare(_ context.Context, job Job) error {
	if err := os.MkdirAll(job.WorkDir, 0o750); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	return nil
}

func (o *Orchestrator) run(job Job) {
	ctx := log.ContextWithJobID(o.ctx, job.UUID)
	logger := o.logger.With().
		Str(log.FieldJobID, job.UUID).
		Int(log.FieldChannel, job.Channel).
		Str(log.FieldSourceKey, job.Source.Key).
		Logger()

	ctx, span := o.tracer.Start(ctx, "clip.job",
		trace.WithAttributes(telemetry.RecordingAttributes(job.UUID, job.Channel, job.Source.Key, job.Encode)...))
	span.SetAttributes(telemetry.SegmentAttributes(job.Segments[0], job.Segments[1])...)
	defer span.End()

	// failText carries the status written with a failure transition.
	var failText string
	machine, err := fsm.NewStageMachine(model.StageWaitingInQueue,
		func(_ context.Context, from, to model.Stage, event fsm.StageEvent) error {
			status := to.String()
			if event == fsm.EventFail {
				status = failText
			}
			// Persist even when the job context is already cancelled, so a
			// shutdown still leaves a terminal row behind.
			pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			rec, err := o.store.UpdateStage(pctx, job.UUID, to, status)
			if err != nil {
				return err
			}
			metrics.IncStageTransition(to.String())
			span.AddEvent("stage", trace.WithAttributes(telemetry.StageAttribute(to.String())))
			logger.Info().
				Str(log.FieldEvent, "clip.stage").
				Str(log.FieldOldStage, from.String()).
				Str(log.FieldNewStage, to.String()).
				Msg("stage changed")
			o.publish(rec)
			return nil
		})
	if err != nil {
		logger.Error().Err(err).Msg("build stage machine")
		return
	}

	fail := func(cause error) {
		failText = cause.Error()
		span.RecordError(cause)
		span.SetStatus(codes.Error, failText)
		if _, err := machine.Fire(ctx, fsm.EventFail); err != nil {
			logger.Error().Err(err).Msg("record failure stage")
		}
		logger.Warn().Err(cause).
			Str(log.FieldEvent, "clip.failed").
			Str(log.FieldNewStage, machine.State().String()).
			Msg("clip failed")
	}

	if err := o.sem.Acquire(ctx, 1); err != nil {
		fail(fmt.Errorf("waiting for a worker slot: %w", err))
		return
	}
	defer o.sem.Release(1)

	started := time.Now()
	metrics.JobStarted()
	defer func() {
		metrics.JobFinished(machine.State() != model.StageCompleted, time.Since(started).Seconds())
	}()
	defer o.cleanup(job, logger)

	for _, step := range o.pipeline() {
		if _, err := machine.Fire(ctx, fsm.EventAdvance); err != nil {
			logger.Error().Err(err).Str(log.FieldNewStage, step.stage.String()).Msg("advance stage")
			return
		}
		sctx, sspan := o.tracer.Start(ctx, "clip."+step.stage.String())
		err := step.run(sctx, job)
		if err == nil {
			err = ctx.Err()
		}
		sspan.End()
		if err != nil {
			fail(err)
			return
		}
	}

	if _, err := machine.Fire(ctx, fsm.EventAdvance); err != nil {
		logger.Error().Err(err).Msg("record completion")
		return
	}
	span.SetStatus(codes.Ok, "")
}

func (o *Orchestrator) cleanup(job Job, logger zerolog.Logger) {
	if err := os.RemoveAll(job.WorkDir); err != nil {
		logger.Warn().Err(err).Str(log.FieldWorkDir, job.WorkDir).Msg("remove work dir")
	}
}

// publish is best effort: the row is already persisted and clients can
// always re-read it from /list-recordings.
func (o *Orchestrator) publish(rec model.Recording) {
	payload, err := json.Marshal(rec)
	if err != nil {
		o.logger.Error().Err(err).Str(log.FieldJobID, rec.UUID).Msg("encode stage update")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.PublishTimeout)
	defer cancel()
	if err := o.bus.Publish(ctx, bus.TopicRecordingStage, bus.Message{Key: rec.UUID, Payload: payload}); err != nil {
		o.logger.Warn().Err(err).Str(log.FieldJobID, rec.UUID).Msg("publish stage update")
	}
}
