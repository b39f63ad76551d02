package connection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
)

func fastBackoff() BackoffConfig {
	return BackoffConfig{
		Initial:    time.Millisecond,
		Max:        5 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     0,
	}
}

func TestBackoffSequence(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: 0})

	want := BackoffSequence()
	for i, expected := range want {
		got := b.Next()
		if got != expected {
			t.Errorf("delay %d = %v, want %v", i, got, expected)
		}
	}

	// Capped at max from here on
	if got := b.Next(); got != MaxBackoff {
		t.Errorf("capped delay = %v, want %v", got, MaxBackoff)
	}
}

func TestBackoffReset(t *testing.T) {
	b := NewBackoffWithConfig(BackoffConfig{Jitter: 0})
	for i := 0; i < 4; i++ {
		b.Next()
	}

	b.Reset()
	if b.Attempts() != 0 {
		t.Errorf("Attempts() = %d after reset", b.Attempts())
	}
	if got := b.Next(); got != InitialBackoff {
		t.Errorf("first delay after reset = %v, want %v", got, InitialBackoff)
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff()
	for i := 0; i < 20; i++ {
		b.Reset()
		d := b.Next()
		if d < InitialBackoff || d > InitialBackoff+InitialBackoff/4 {
			t.Fatalf("jittered delay %v outside [%v, %v]", d, InitialBackoff, InitialBackoff+InitialBackoff/4)
		}
	}
}

func TestOpenWithRetryEventualSuccess(t *testing.T) {
	var attempts int
	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("port busy")
		}
		link, peer := transport.Pipe()
		t.Cleanup(func() {
			_ = link.Close()
			_ = peer.Close()
		})
		return link, nil
	}

	link, err := OpenWithRetry(context.Background(), dial, RetryConfig{Backoff: fastBackoff()})
	if err != nil {
		t.Fatalf("OpenWithRetry failed: %v", err)
	}
	if link == nil {
		t.Fatal("nil link")
	}
	if attempts != 3 {
		t.Errorf("dialed %d times, want 3", attempts)
	}
}

func TestOpenWithRetryBudget(t *testing.T) {
	dialErr := errors.New("no such device")
	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		return nil, dialErr
	}

	var retries []int
	_, err := OpenWithRetry(context.Background(), dial, RetryConfig{
		Backoff:     fastBackoff(),
		MaxAttempts: 4,
		OnRetry:     func(attempt int, _ error) { retries = append(retries, attempt) },
	})

	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("err = %v, want ErrAttemptsExhausted", err)
	}
	if !errors.Is(err, dialErr) {
		t.Errorf("err should wrap the last dial error, got %v", err)
	}
	if len(retries) != 4 {
		t.Errorf("OnRetry called %d times, want 4", len(retries))
	}
}

func TestOpenWithRetryContextCancel(t *testing.T) {
	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		return nil, errors.New("still down")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := OpenWithRetry(ctx, dial, RetryConfig{
		Backoff: BackoffConfig{Initial: time.Hour, Jitter: 0},
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSupervisorRedialsAfterLinkLoss(t *testing.T) {
	var mu sync.Mutex
	var peers []*transport.StreamLink
	linkCh := make(chan *transport.StreamLink, 4)

	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		link, peer := transport.Pipe()
		mu.Lock()
		peers = append(peers, peer)
		mu.Unlock()
		return link, nil
	}

	s := NewSupervisor(dial,
		WithBackoffConfig(fastBackoff()),
		WithOnLink(func(l *transport.StreamLink) { linkCh <- l }),
	)
	defer func() { _ = s.Close() }()

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var first *transport.StreamLink
	select {
	case first = <-linkCh:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial link")
	}

	// Kill the link from the remote side
	mu.Lock()
	_ = peers[0].Close()
	mu.Unlock()

	select {
	case second := <-linkCh:
		if second.ID() == first.ID() {
			t.Error("redial returned the same link")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not redial after link loss")
	}

	if s.State() != StateConnected {
		t.Errorf("state = %v, want CONNECTED", s.State())
	}
}

func TestSupervisorClose(t *testing.T) {
	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		link, peer := transport.Pipe()
		t.Cleanup(func() { _ = peer.Close() })
		return link, nil
	}

	s := NewSupervisor(dial, WithBackoffConfig(fastBackoff()))
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if s.State() != StateClosed {
		t.Errorf("state = %v, want CLOSED", s.State())
	}
	if s.Link() != nil {
		t.Error("Link() should be nil after Close")
	}

	if err := s.Start(context.Background()); !errors.Is(err, ErrSupervisorClosed) {
		t.Errorf("Start after Close: err = %v, want ErrSupervisorClosed", err)
	}
}

func TestSupervisorStateTransitions(t *testing.T) {
	var mu sync.Mutex
	var transitions []State

	dial := func(ctx context.Context) (*transport.StreamLink, error) {
		link, peer := transport.Pipe()
		t.Cleanup(func() {
			_ = link.Close()
			_ = peer.Close()
		})
		return link, nil
	}

	s := NewSupervisor(dial,
		WithBackoffConfig(fastBackoff()),
		WithOnStateChange(func(_, to State) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		}),
	)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	_ = s.Close()

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateConnected, StateClosed}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}
