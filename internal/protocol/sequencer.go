// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package protocol

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ManuGH/bbcd/internal/domain/recordings/model"
)

var (
	// ErrStageRegression is returned when a pending stage would follow a later one.
	ErrStageRegression = errors.New("stage regression")
	// ErrFrameAfterTerminal is returned for any frame after a job reached a terminal stage.
	ErrFrameAfterTerminal = errors.New("frame after terminal stage")
)

// DefaultTerminalMemory is how many finished jobs a Sequencer remembers.
const DefaultTerminalMemory = 256

// Sequencer tracks, for one client, the last stage delivered per job and
// admits only frames that keep the sequence monotonic.
//
// Jobs in flight are kept until their terminal frame is admitted. After that
// only the job id and terminal stage stay, in a ring of the most recent
// finished jobs, so late frames are still rejected while memory stays bounded.
type Sequencer struct {
	mu       sync.Mutex
	pending  map[string]model.Stage
	done     map[string]model.Stage
	doneRing []string
	next     int
}

// NewSequencer returns an empty sequencer remembering DefaultTerminalMemory
// finished jobs.
func NewSequencer() *Sequencer {
	return NewSequencerSize(DefaultTerminalMemory)
}

// NewSequencerSize is NewSequencer with an explicit finished-job memory.
func NewSequencerSize(terminalMemory int) *Sequencer {
	if terminalMemory <= 0 {
		terminalMemory = DefaultTerminalMemory
	}
	return &Sequencer{
		pending:  make(map[string]model.Stage),
		done:     make(map[string]model.Stage, terminalMemory),
		doneRing: make([]string, 0, terminalMemory),
	}
}

// Admit records stage for job if it may be delivered after what was already sent.
// Repeating the current pending stage is allowed. A failure stage may follow any
// pending stage. Nothing may follow a terminal stage.
func (s *Sequencer) Admit(job string, stage model.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("job %s: %w: %d", job, model.ErrInvalidStageCode, int(stage))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.done[job]; ok {
		return fmt.Errorf("job %s: %w: %q after %q", job, ErrFrameAfterTerminal, stage, prev)
	}
	if prev, ok := s.pending[job]; ok && !model.IsFailure(stage) && stage < prev {
		return fmt.Errorf("job %s: %w: %q after %q", job, ErrStageRegression, stage, prev)
	}

	if model.IsTerminal(stage) {
		delete(s.pending, job)
		s.remember(job, stage)
		return nil
	}
	s.pending[job] = stage
	return nil
}

// caller holds mu
func (s *Sequencer) remember(job string, stage model.Stage) {
	if len(s.doneRing) < cap(s.doneRing) {
		s.doneRing = append(s.doneRing, job)
	} else {
		delete(s.done, s.doneRing[s.next])
		s.doneRing[s.next] = job
		s.next = (s.next + 1) % len(s.doneRing)
	}
	s.done[job] = stage
}

// Last returns the last admitted stage for job.
func (s *Sequencer) Last(job string) (model.Stage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.pending[job]; ok {
		return st, true
	}
	st, ok := s.done[job]
	return st, ok
}

// Tracked returns the number of in-flight and remembered finished jobs.
func (s *Sequencer) Tracked() (pending, finished int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending), len(s.done)
}
