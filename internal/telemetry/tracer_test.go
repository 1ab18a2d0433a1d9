// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      false,
		ServiceName:  "test-service",
		ExporterType: "grpc",
	})
	require.NoError(t, err)
	assert.Nil(t, provider.tp, "expected noop provider")

	_, span := otel.Tracer("test").Start(context.Background(), "noop-check")
	assert.False(t, span.IsRecording())
	span.End()
}

func TestNewProvider_InvalidExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "test-service",
		ExporterType: "invalid",
	})
	require.Error(t, err)
	assert.Equal(t, "unsupported exporter type: invalid (supported: grpc, http)", err.Error())
}

func TestNewProvider_HTTPExporterStartsAndStops(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:      true,
		ServiceName:  "bbcd",
		ExporterType: "http",
		Endpoint:     "127.0.0.1:1",
		SamplingRate: 1.0,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = NewProvider(context.Background(), Config{Enabled: false})
	})

	_, span := Tracer("test").Start(context.Background(), "recorded")
	assert.True(t, span.IsRecording())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	// The collector is unreachable; only the call returning matters.
	_ = provider.Shutdown(ctx)
}

func TestProvider_ShutdownNoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &Provider{tp: nil}
	assert.NoError(t, provider.Shutdown(context.Background()))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestTracer(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Enabled: false, ServiceName: "test-service"})
	require.NoError(t, err)

	tracer := Tracer("test-tracer")
	require.NotNil(t, tracer)
	ctx, span := tracer.Start(context.Background(), "test-span")
	span.End()
	assert.NotNil(t, trace.SpanFromContext(ctx))
}

func TestProvider_ConcurrentShutdown(t *testing.T) {
	provider := &Provider{tp: nil}
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = provider.Shutdown(ctx)
		}()
	}
	wg.Wait()
}

func TestNewSampler_FollowsParent(t *testing.T) {
	traceID := trace.TraceID{1}
	sampled := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	parent := trace.ContextWithSpanContext(context.Background(), sampled)

	never := newSampler(0)
	res := never.ShouldSample(sdktrace.SamplingParameters{ParentContext: parent, TraceID: traceID, Name: "child"})
	assert.Equal(t, sdktrace.RecordAndSample, res.Decision, "sampled parent wins over rate 0")

	res = never.ShouldSample(sdktrace.SamplingParameters{ParentContext: context.Background(), TraceID: traceID, Name: "root"})
	assert.Equal(t, sdktrace.Drop, res.Decision)

	always := newSampler(1)
	res = always.ShouldSample(sdktrace.SamplingParameters{ParentContext: context.Background(), TraceID: traceID, Name: "root"})
	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
}
