// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"time"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bbcd_store_ops_total",
			Help: "Total store operations",
		},
		[]string{"backend", "op", "result"}, // result=success/error
	)
	storeLat = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bbcd_store_op_seconds",
			Help:    "Store operation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op"},
	)
)

// instrumentedStore wraps any RecordingStore to capture metrics.
type instrumentedStore struct {
	inner   RecordingStore
	backend string
}

func NewInstrumentedStore(inner RecordingStore, backend string) RecordingStore {
	return &instrumentedStore{inner: inner, backend: backend}
}

func (i *instrumentedStore) observe(op string, start time.Time, err error) {
	dur := time.Since(start).Seconds()
	res := "success"
	if err != nil {
		res = "error"
	}
	storeOps.WithLabelValues(i.backend, op, res).Inc()
	storeLat.WithLabelValues(i.backend, op).Observe(dur)
}

func (i *instrumentedStore) Create(ctx context.Context, rec *model.Recording) (err error) {
	start := time.Now()
	defer func() { i.observe("create", start, err) }()
	return i.inner.Create(ctx, rec)
}

func (i *instrumentedStore) Get(ctx context.Context, uuid string) (rec model.Recording, err error) {
	start := time.Now()
	defer func() { i.observe("get", start, err) }()
	return i.inner.Get(ctx, uuid)
}

func (i *instrumentedStore) List(ctx context.Context, offset, count int) (list []model.Recording, err error) {
	start := time.Now()
	defer func() { i.observe("list", start, err) }()
	return i.inner.List(ctx, offset, count)
}

func (i *instrumentedStore) UpdateStage(ctx context.Context, uuid string, to model.Stage, status string) (rec model.Recording, err error) {
	start := time.Now()
	defer func() { i.observe("update_stage", start, err) }()
	return i.inner.UpdateStage(ctx, uuid, to, status)
}

func (i *instrumentedStore) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { i.observe("delete", start, err) }()
	return i.inner.Delete(ctx, id)
}

func (i *instrumentedStore) Ping(ctx context.Context) error {
	return i.inner.Ping(ctx)
}

func (i *instrumentedStore) Close() error {
	return i.inner.Close()
}
