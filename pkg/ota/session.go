package ota

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// State is a transfer session state. Sessions only move forward; there
// is no way back from a terminal state.
type State uint8

const (
	// StateIdle is the initial state before the session begins.
	StateIdle State = iota
	// StateBegun means the remote accepted the begin command.
	StateBegun
	// StateWriting means at least one chunk has been accepted.
	StateWriting
	// StateEnded means the remote validated the complete image.
	StateEnded
	// StateActivated means the stored image is the boot image.
	StateActivated
	// StateFailed is terminal; only a new session can transfer again.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateBegun:
		return "BEGUN"
	case StateWriting:
		return "WRITING"
	case StateEnded:
		return "ENDED"
	case StateActivated:
		return "ACTIVATED"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("STATE(%d)", uint8(s))
	}
}

// Session tracks one firmware transfer attempt.
type Session struct {
	id string

	mu     sync.Mutex
	state  State
	offset uint32
}

func newSession() *Session {
	return &Session{id: uuid.New().String()}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Offset returns how many image bytes the remote has accepted.
func (s *Session) Offset() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// transition advances the state machine. Fail is reachable from any
// non-terminal state; every other edge must move strictly forward.
func (s *Session) transition(to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFailed || s.state == StateActivated {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, s.state, to)
	}
	if to == StateFailed {
		s.state = StateFailed
		return nil
	}
	if to <= s.state {
		return fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}

func (s *Session) advance(n int) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += uint32(n)
	return s.offset
}

func (s *Session) fail() {
	_ = s.transition(StateFailed)
}
