// Package segment tracks the lifecycle of utterance segments within a
// transcription session. A segment collects the partials for one
// utterance and ends with at most one final; anything that goes wrong
// drops the segment instead of emitting doubtful text.
package segment

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the lifecycle state of a segment.
type State int

const (
	// StateOpen accepts partials and one final.
	StateOpen State = iota
	// StateFinalEmitted has its final; only closing remains.
	StateFinalEmitted
	// StateClosed ended normally.
	StateClosed
	// StateDropped ended on error; no final was or will be emitted.
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateFinalEmitted:
		return "FINAL_EMITTED"
	case StateClosed:
		return "CLOSED"
	case StateDropped:
		return "DROPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Terminal reports whether no further emissions are possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateDropped
}

var (
	ErrSegmentClosed       = errors.New("segment is closed")
	ErrFinalAlreadyEmitted = errors.New("final already emitted for this segment")
	ErrPartialAfterFinal   = errors.New("cannot emit partial after final")
)

// Generator mints session-scoped segment IDs.
type Generator struct {
	counter uint64
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the next segment ID for the given session.
func (g *Generator) Next(sessionID string) string {
	n := atomic.AddUint64(&g.counter, 1)
	return fmt.Sprintf("%s-seg-%d", sessionID, n)
}

// Tracker is the state machine for the session's current segment.
// Safe for concurrent use; the audio pump and the result listener both
// touch it.
//
//	OPEN --EmitFinal()--> FINAL_EMITTED --Close()--> CLOSED
//	  |                        any state --Drop()--> DROPPED
//	  +--EmitPartial() (repeatable)
type Tracker struct {
	mu    sync.RWMutex
	id    string
	state State
}

// NewTracker starts a tracker in OPEN state.
func NewTracker(id string) *Tracker {
	return &Tracker{id: id, state: StateOpen}
}

// ID returns the current segment ID.
func (t *Tracker) ID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Dropped reports whether the segment was dropped.
func (t *Tracker) Dropped() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state == StateDropped
}

// EmitPartial validates that a partial may be emitted now.
func (t *Tracker) EmitPartial() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateOpen:
		return nil
	case StateFinalEmitted:
		return ErrPartialAfterFinal
	default:
		return ErrSegmentClosed
	}
}

// EmitFinal validates and records the segment's single final.
func (t *Tracker) EmitFinal() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateOpen:
		t.state = StateFinalEmitted
		return nil
	case StateFinalEmitted:
		return ErrFinalAlreadyEmitted
	default:
		return ErrSegmentClosed
	}
}

// Close ends the segment normally. Idempotent, any state.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = StateClosed
}

// Drop abandons the segment without a final. Returns false if the
// segment was already terminal.
func (t *Tracker) Drop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return false
	}
	t.state = StateDropped
	return true
}

// Advance reopens the tracker for the next utterance's segment.
func (t *Tracker) Advance(newID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.id = newID
	t.state = StateOpen
}
