// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsm

import (
	"context"
	"fmt"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
)

// StageEvent drives a recording job through its stages.
type StageEvent string

const (
	// EventAdvance moves a pending stage to its successor.
	EventAdvance StageEvent = "advance"
	// EventFail moves a pending stage to its failure variant.
	EventFail StageEvent = "fail"
)

// StageAction runs when a stage transition is accepted, before the machine moves.
type StageAction func(ctx context.Context, from, to model.Stage, event StageEvent) error

// StageTransitions returns the complete edge set of the recording lifecycle:
// 0→1→…→6 and each pending stage to its failure variant. Terminal stages have no edges.
func StageTransitions(action StageAction) []Transition[model.Stage, StageEvent] {
	var out []Transition[model.Stage, StageEvent]
	for s := model.StageWaitingInQueue; s.IsPending(); s++ {
		next, _ := s.Next()
		out = append(out,
			Transition[model.Stage, StageEvent]{From: s, Event: EventAdvance, To: next, Action: action},
			Transition[model.Stage, StageEvent]{From: s, Event: EventFail, To: s.FailureVariant(), Action: action},
		)
	}
	return out
}

// NewStageMachine builds a machine positioned at initial.
func NewStageMachine(initial model.Stage, action StageAction) (*Machine[model.Stage, StageEvent], error) {
	if !initial.Valid() {
		return nil, fmt.Errorf("initial stage: %w: %d", model.ErrInvalidStageCode, int(initial))
	}
	return New(initial, StageTransitions(action))
}

// CheckStageTransition validates a single from→to move against the lifecycle.
// Stores call it before persisting so that no writer can bypass the policy.
func CheckStageTransition(from, to model.Stage) error {
	if !from.Valid() {
		return fmt.Errorf("%w: from %w: %d", ErrIllegalTransition, model.ErrInvalidStageCode, int(from))
	}
	if !to.Valid() {
		return fmt.Errorf("%w: to %w: %d", ErrIllegalTransition, model.ErrInvalidStageCode, int(to))
	}
	if model.IsTerminal(from) {
		return fmt.Errorf("%w: %q is terminal", ErrIllegalTransition, from)
	}
	if next, _ := from.Next(); to == next {
		return nil
	}
	if to == from.FailureVariant() {
		return nil
	}
	return fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, from, to)
}
