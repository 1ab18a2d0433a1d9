// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the daemon.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPUserAgentKey  = "http.user_agent"

	// Clip job attributes
	RecordingUUIDKey    = "recording.uuid"
	RecordingChannelKey = "recording.channel"
	RecordingSourceKey  = "recording.source"
	RecordingStageKey   = "recording.stage"
	RecordingEncodeKey  = "recording.encode"
	SegmentFirstKey     = "recording.segment.first"
	SegmentLastKey      = "recording.segment.last"

	// Job attributes
	JobTypeKey     = "job.type"
	JobStatusKey   = "job.status"
	JobDurationKey = "job.duration_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// RecordingAttributes describes the clip a span works on. Empty source keys are omitted.
func RecordingAttributes(uuid string, channel int, sourceKey string, encode bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(RecordingUUIDKey, uuid),
		attribute.Int(RecordingChannelKey, channel),
		attribute.Bool(RecordingEncodeKey, encode),
	}
	if sourceKey != "" {
		attrs = append(attrs, attribute.String(RecordingSourceKey, sourceKey))
	}
	return attrs
}

// SegmentAttributes records the inclusive segment range a clip covers.
func SegmentAttributes(first, last int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64(SegmentFirstKey, first),
		attribute.Int64(SegmentLastKey, last),
	}
}

// StageAttribute tags a span or event with a stage name.
func StageAttribute(stage string) attribute.KeyValue {
	return attribute.String(RecordingStageKey, stage)
}

// JobAttributes creates job-related span attributes.
func JobAttributes(jobType, status string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(JobTypeKey, jobType),
		attribute.String(JobStatusKey, status),
		attribute.Int64(JobDurationKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
