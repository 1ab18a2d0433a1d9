// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/bbcd/internal/channels"
	"github.com/ManuGH/bbcd/internal/schedule"
)

// ErrStepNotImplemented is returned by steps that have no backing implementation.
var ErrStepNotImplemented = errors.New("step not implemented")

// Job is what every step sees of a clip.
type Job struct {
	UUID     string
	Channel  int
	Source   channels.Source
	Window   schedule.Window
	Segments [2]int64 // inclusive first and last segment index
	Encode   bool
	WorkDir  string // private scratch directory, removed when the job ends
}

// Steps performs the work of each stage. A returned error fails the job in
// the stage whose step returned it.
type Steps interface {
	Download(ctx context.Context, job Job) error
	Combine(ctx context.Context, job Job) error
	Encode(ctx context.Context, job Job) error
	Upload(ctx context.Context, job Job) error
}

// StepFuncs adapts plain functions to Steps. Nil functions succeed without doing anything.
type StepFuncs struct {
	DownloadFn func(ctx context.Context, job Job) error
	CombineFn  func(ctx context.Context, job Job) error
	EncodeFn   func(ctx context.Context, job Job) error
	UploadFn   func(ctx context.Context, job Job) error
}

func call(ctx context.Context, fn func(context.Context, Job) error, job Job) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, job)
}

func (s StepFuncs) Download(ctx context.Context, job Job) error { return call(ctx, s.DownloadFn, job) }
func (s StepFuncs) Combine(ctx context.Context, job Job) error  { return call(ctx, s.CombineFn, job) }
func (s StepFuncs) Encode(ctx context.Context, job Job) error   { return call(ctx, s.EncodeFn, job) }
func (s StepFuncs) Upload(ctx context.Context, job Job) error   { return call(ctx, s.UploadFn, job) }

// DefaultSteps is the production step set. Segment capture is not implemented,
// so every job ends in Downloading Failed until a downloader is plugged in.
type DefaultSteps struct {
	// Uploader is optional; without it Upload succeeds without doing anything.
	Uploader *WebDAVUploader
}

func (DefaultSteps) Download(_ context.Context, job Job) error {
	return fmt.Errorf("download segments %d-%d from %s: %w",
		job.Segments[0], job.Segments[1], job.Source.Key, ErrStepNotImplemented)
}

func (DefaultSteps) Combine(context.Context, Job) error { return nil }

func (DefaultSteps) Encode(context.Context, Job) error { return nil }

func (d DefaultSteps) Upload(ctx context.Context, job Job) error {
	if d.Uploader == nil {
		return nil
	}
	return d.Uploader.Upload(ctx, job)
}

var (
	_ Steps = StepFuncs{}
	_ Steps = DefaultSteps{}
)
