// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus fans out job events to every interested consumer.
package bus

import (
	"context"
	"encoding/json"
)

// TopicRecordingStage carries one message per persisted stage transition.
const TopicRecordingStage = "recordings.stage"

// Message is a single published event. Key identifies the job so consumers can
// keep per-job state; Payload is opaque to the bus.
type Message struct {
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// Bus delivers messages to all current subscribers of a topic in publish order.
type Bus interface {
	Publish(ctx context.Context, topic string, msg Message) error
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
}

// Subscriber receives messages until Close is called.
type Subscriber interface {
	C() <-chan Message
	Close() error
}
