// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package protocol defines the frames exchanged on the job-status channel.
//
// Every frame is a JSON object {"type": <kind>, "data": <payload>}. The set of
// kinds is closed in both directions; an unknown kind is a protocol error.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
)

var (
	// ErrProtocolTagUnrecognized is returned when a frame's type is outside the closed set.
	ErrProtocolTagUnrecognized = errors.New("protocol tag unrecognized")
	// ErrMalformedFrame is returned for frames that are not valid JSON objects of the expected shape.
	ErrMalformedFrame = errors.New("malformed frame")
)

// Kind tags a server→client frame.
type Kind string

const (
	// KindClientHello is sent once when a client's channel opens.
	KindClientHello Kind = "ClientHello"
	// KindStageUpdate carries the current row of a recording whose stage changed.
	KindStageUpdate Kind = "StageUpdate"
	// KindError reports a failure the client should surface.
	KindError Kind = "Error"
)

// Valid reports whether k is part of the server→client set.
func (k Kind) Valid() bool {
	switch k {
	case KindClientHello, KindStageUpdate, KindError:
		return true
	}
	return false
}

// ClientKind tags a client→server frame.
type ClientKind string

const (
	// ClientKindPing asks the server to answer with a ClientHello.
	ClientKindPing ClientKind = "Ping"
)

// Valid reports whether k is part of the client→server set.
func (k ClientKind) Valid() bool {
	return k == ClientKindPing
}

// Frame is the envelope of a server→client message.
type Frame struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Hello is the payload of a ClientHello frame.
type Hello struct {
	ClientID uint64 `json:"client_id"`
	Version  string `json:"version,omitempty"`
}

// StageUpdate is the payload of a StageUpdate frame.
type StageUpdate struct {
	Recording model.Recording `json:"recording"`
}

// ErrorPayload is the payload of an Error frame.
type ErrorPayload struct {
	Message string `json:"message"`
}

func newFrame(kind Kind, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Frame{Type: kind, Data: data}, nil
}

// NewHello builds the handshake frame.
func NewHello(clientID uint64, version string) (Frame, error) {
	return newFrame(KindClientHello, Hello{ClientID: clientID, Version: version})
}

// NewStageUpdate builds a stage update for rec.
func NewStageUpdate(rec model.Recording) (Frame, error) {
	return newFrame(KindStageUpdate, StageUpdate{Recording: rec})
}

// NewError builds an error frame.
func NewError(message string) (Frame, error) {
	return newFrame(KindError, ErrorPayload{Message: message})
}

// Encode serialises f after checking its kind.
func Encode(f Frame) ([]byte, error) {
	if !f.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrProtocolTagUnrecognized, f.Type)
	}
	return json.Marshal(f)
}

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return env, nil
}

// DecodeFrame parses a server→client frame and rejects unknown kinds.
func DecodeFrame(data []byte) (Frame, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return Frame{}, err
	}
	kind := Kind(env.Type)
	if !kind.Valid() {
		return Frame{}, fmt.Errorf("%w: %q", ErrProtocolTagUnrecognized, env.Type)
	}
	return Frame{Type: kind, Data: env.Data}, nil
}

// DecodeStageUpdate extracts the payload of a StageUpdate frame. The stage code
// goes through model.ParseStage, so sentinel or gap codes are rejected.
func DecodeStageUpdate(f Frame) (StageUpdate, error) {
	var u StageUpdate
	if f.Type != KindStageUpdate {
		return u, fmt.Errorf("%w: want %s, got %s", ErrMalformedFrame, KindStageUpdate, f.Type)
	}
	if err := json.Unmarshal(f.Data, &u); err != nil {
		return u, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return u, nil
}

// ClientFrame is a decoded client→server message.
type ClientFrame struct {
	Type ClientKind
	Data json.RawMessage
}

// DecodeClientFrame parses a client→server frame and rejects unknown kinds.
func DecodeClientFrame(data []byte) (ClientFrame, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return ClientFrame{}, err
	}
	kind := ClientKind(env.Type)
	if !kind.Valid() {
		return ClientFrame{}, fmt.Errorf("%w: %q", ErrProtocolTagUnrecognized, env.Type)
	}
	return ClientFrame{Type: kind, Data: env.Data}, nil
}
