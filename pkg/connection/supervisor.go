package connection

import (
	"context"
	"sync"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
)

// State represents the supervised link state.
type State uint8

const (
	// StateDisconnected indicates no link and no supervisor running.
	StateDisconnected State = iota

	// StateConnecting indicates the initial dial is in progress.
	StateConnecting

	// StateConnected indicates a live link.
	StateConnected

	// StateReconnecting indicates redialing after link loss.
	StateReconnecting

	// StateClosed indicates the supervisor has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Supervisor keeps one link alive across losses.
//
// After Start succeeds it holds a live link, watches its Done channel
// and redials with backoff when the link dies. Each fresh link is
// handed to the OnLink callback before the supervisor resumes
// watching, so the callback is the place to re-register handlers and
// replay radio configuration.
type Supervisor struct {
	dial    DialFunc
	backoff *Backoff
	logger  log.Logger

	mu    sync.RWMutex
	state State
	link  *transport.StreamLink

	onLink        func(*transport.StreamLink)
	onStateChange func(oldState, newState State)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithBackoffConfig sets the redial backoff parameters.
func WithBackoffConfig(cfg BackoffConfig) SupervisorOption {
	return func(s *Supervisor) {
		s.backoff = NewBackoffWithConfig(cfg)
	}
}

// WithOnLink sets the callback invoked with every fresh link,
// including the first.
func WithOnLink(fn func(*transport.StreamLink)) SupervisorOption {
	return func(s *Supervisor) {
		s.onLink = fn
	}
}

// WithOnStateChange sets the callback for state transitions.
func WithOnStateChange(fn func(oldState, newState State)) SupervisorOption {
	return func(s *Supervisor) {
		s.onStateChange = fn
	}
}

// WithSupervisorLogger sets the event logger.
func WithSupervisorLogger(l log.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// NewSupervisor creates a supervisor over dial.
func NewSupervisor(dial DialFunc, opts ...SupervisorOption) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{
		dial:    dial,
		backoff: NewBackoff(),
		logger:  log.NoopLogger{},
		state:   StateDisconnected,
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current supervised state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Link returns the current link, or nil when not connected.
func (s *Supervisor) Link() *transport.StreamLink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateConnected {
		return nil
	}
	return s.link
}

// Start performs the initial dial and launches the watch loop. The
// initial dial is not retried here; wrap the dial function with
// OpenWithRetry when the first attempt may fail transiently.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSupervisorClosed
	}
	s.setStateLocked(StateConnecting)
	s.mu.Unlock()

	link, err := s.dial(ctx)
	if err != nil {
		s.mu.Lock()
		s.setStateLocked(StateDisconnected)
		s.mu.Unlock()
		return err
	}

	s.adopt(link)
	s.wg.Add(1)
	go s.watch()
	return nil
}

// Close stops supervision and closes the current link.
func (s *Supervisor) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.setStateLocked(StateClosed)
	link := s.link
	s.link = nil
	s.mu.Unlock()

	s.cancel()
	if link != nil {
		_ = link.Close()
	}
	s.wg.Wait()
	return nil
}

func (s *Supervisor) adopt(link *transport.StreamLink) {
	s.mu.Lock()
	s.link = link
	s.backoff.Reset()
	s.setStateLocked(StateConnected)
	s.mu.Unlock()

	if s.onLink != nil {
		s.onLink(link)
	}
}

// setStateLocked requires s.mu held. The callback runs under the lock;
// it must not call back into the supervisor.
func (s *Supervisor) setStateLocked(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	if s.onStateChange != nil {
		s.onStateChange(from, to)
	}
	s.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityLink,
			OldState: from.String(),
			NewState: to.String(),
		},
	})
}

func (s *Supervisor) watch() {
	defer s.wg.Done()

	for {
		s.mu.RLock()
		link := s.link
		state := s.state
		s.mu.RUnlock()

		if state == StateClosed || link == nil {
			return
		}

		select {
		case <-s.ctx.Done():
			return
		case <-link.Done():
		}

		s.mu.Lock()
		if s.state == StateClosed {
			s.mu.Unlock()
			return
		}
		s.link = nil
		s.setStateLocked(StateReconnecting)
		s.mu.Unlock()

		if !s.redial() {
			return
		}
	}
}

// redial loops until a new link comes up or the supervisor closes.
func (s *Supervisor) redial() bool {
	for {
		timer := time.NewTimer(s.backoff.Next())
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return false
		case <-timer.C:
		}

		link, err := s.dial(s.ctx)
		if err != nil {
			continue
		}
		s.adopt(link)
		return true
	}
}
