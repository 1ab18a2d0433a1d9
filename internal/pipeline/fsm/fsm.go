// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsm

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrIllegalTransition is returned for any edge that is not part of the machine.
var ErrIllegalTransition = errors.New("illegal transition")

// Transition describes a single edge in the FSM.
// Guard may reject the transition; Action performs side-effects (worker-only).
type Transition[S comparable, E ~string] struct {
	From   S
	Event  E
	To     S
	Guard  func(ctx context.Context, from S, event E) error
	Action func(ctx context.Context, from S, to S, event E) error
}

type edge[S comparable, E ~string] struct {
	from  S
	event E
}

// Machine is a small, test-friendly FSM runner.
// It is strict: unknown transitions are errors.
type Machine[S comparable, E ~string] struct {
	mu    sync.Mutex
	state S
	index map[edge[S, E]]Transition[S, E]
}

func New[S comparable, E ~string](initial S, transitions []Transition[S, E]) (*Machine[S, E], error) {
	idx := make(map[edge[S, E]]Transition[S, E], len(transitions))
	for _, t := range transitions {
		k := edge[S, E]{from: t.From, event: t.Event}
		if _, exists := idx[k]; exists {
			return nil, fmt.Errorf("duplicate transition: %v -> %s", t.From, t.Event)
		}
		idx[k] = t
	}
	return &Machine[S, E]{state: initial, index: idx}, nil
}

func (m *Machine[S, E]) State() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Can reports whether event has an edge from the current state.
func (m *Machine[S, E]) Can(event E) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.index[edge[S, E]{from: m.state, event: event}]
	return ok
}

// Fire attempts to apply an event atomically.
func (m *Machine[S, E]) Fire(ctx context.Context, event E) (S, error) {
	m.mu.Lock()
	from := m.state
	t, ok := m.index[edge[S, E]{from: from, event: event}]
	if !ok {
		m.mu.Unlock()
		return from, fmt.Errorf("%w: state=%v event=%s", ErrIllegalTransition, from, event)
	}

	// Guard and Action run outside the critical section.
	to := t.To
	m.mu.Unlock()

	if t.Guard != nil {
		if err := t.Guard(ctx, from, event); err != nil {
			return from, err
		}
	}
	if t.Action != nil {
		if err := t.Action(ctx, from, to, event); err != nil {
			return from, err
		}
	}

	m.mu.Lock()
	if m.state != from {
		cur := m.state
		m.mu.Unlock()
		return cur, fmt.Errorf("concurrent transition detected: from=%v cur=%v event=%s", from, cur, event)
	}
	m.state = to
	m.mu.Unlock()

	return to, nil
}
