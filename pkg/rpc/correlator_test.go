package rpc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// fakeLink is an in-memory Link whose remote side is a test-provided
// function. Responses are delivered synchronously from Send, which is the
// hardest case for the correlator's handoff.
type fakeLink struct {
	mu       sync.Mutex
	handlers map[wire.Tag]transport.HandlerFunc
	sendErr  error
	onSend   func(tag wire.Tag, payload []byte)
	sent     []wire.Tag
}

func newFakeLink() *fakeLink {
	return &fakeLink{handlers: make(map[wire.Tag]transport.HandlerFunc)}
}

func (f *fakeLink) ID() string { return "fake-link" }

func (f *fakeLink) Send(tag wire.Tag, payload []byte) error {
	f.mu.Lock()
	f.sent = append(f.sent, tag)
	onSend := f.onSend
	err := f.sendErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if onSend != nil {
		onSend(tag, payload)
	}
	return nil
}

func (f *fakeLink) Handle(tag wire.Tag, h transport.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if h == nil {
		delete(f.handlers, tag)
		return
	}
	f.handlers[tag] = h
}

func (f *fakeLink) Close() error { return nil }

// deliver injects a remote→host message into the registered handler.
func (f *fakeLink) deliver(tag wire.Tag, payload []byte) {
	f.mu.Lock()
	h := f.handlers[tag]
	f.mu.Unlock()
	if h != nil {
		h(tag, payload)
	}
}

// respondOK wires the fake remote to answer every command with status OK.
func (f *fakeLink) respondOK() {
	f.onSend = func(tag wire.Tag, _ []byte) {
		f.deliver(wire.TagCmdResponse, wire.EncodeCmdResponse(&wire.CmdResponse{
			EchoedTag: tag,
			Status:    wire.StatusOK,
		}))
	}
}

func TestCallRoundTrip(t *testing.T) {
	link := newFakeLink()
	link.respondOK()
	c := New(link)

	status, err := c.Call(context.Background(), wire.TagSetPromiscuous, []byte{1})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !status.IsOK() {
		t.Errorf("status = %v, want OK", status)
	}
}

func TestCallReturnsRemoteStatus(t *testing.T) {
	link := newFakeLink()
	link.onSend = func(tag wire.Tag, _ []byte) {
		link.deliver(wire.TagCmdResponse, wire.EncodeCmdResponse(&wire.CmdResponse{
			EchoedTag: tag,
			Status:    wire.StatusInvalidArg,
		}))
	}
	c := New(link)

	status, err := c.Call(context.Background(), wire.TagSetChannel, []byte{99, 0})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if status != wire.StatusInvalidArg {
		t.Errorf("status = %v, want INVALID_ARG", status)
	}
	if serr := ErrorFromStatus(wire.TagSetChannel, status); serr == nil {
		t.Error("ErrorFromStatus should be non-nil for INVALID_ARG")
	}
}

func TestCallTimeoutAtDeadline(t *testing.T) {
	link := newFakeLink() // remote never answers
	c := New(link, WithTimeout(80*time.Millisecond))

	start := time.Now()
	_, err := c.Call(context.Background(), wire.TagSetFilter, []byte{0xFF, 0, 0, 0})
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed < 80*time.Millisecond {
		t.Errorf("returned after %v, before the %v deadline", elapsed, 80*time.Millisecond)
	}
}

func TestCallSendFailureNoWait(t *testing.T) {
	link := newFakeLink()
	link.sendErr = transport.ErrLinkClosed
	c := New(link, WithTimeout(5*time.Second))

	start := time.Now()
	_, err := c.Call(context.Background(), wire.TagSetChannel, []byte{1, 0})
	elapsed := time.Since(start)

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want *TransportError", err)
	}
	if !errors.Is(err, transport.ErrLinkClosed) {
		t.Errorf("err should unwrap to ErrLinkClosed, got %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("send failure waited %v; must return immediately", elapsed)
	}
}

func TestCallContextCancel(t *testing.T) {
	link := newFakeLink()
	c := New(link, WithTimeout(5*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Call(ctx, wire.TagSetChannel, []byte{1, 0})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMismatchLenient(t *testing.T) {
	link := newFakeLink()
	link.onSend = func(wire.Tag, []byte) {
		link.deliver(wire.TagCmdResponse, wire.EncodeCmdResponse(&wire.CmdResponse{
			EchoedTag: wire.TagSetFilter, // wrong echo
			Status:    wire.StatusOK,
		}))
	}
	c := New(link)

	status, err := c.Call(context.Background(), wire.TagSetChannel, []byte{1, 0})
	if err != nil {
		t.Fatalf("lenient mode should not error on mismatch, got %v", err)
	}
	if !status.IsOK() {
		t.Errorf("status = %v, want OK", status)
	}
}

func TestMismatchStrict(t *testing.T) {
	link := newFakeLink()
	link.onSend = func(wire.Tag, []byte) {
		link.deliver(wire.TagCmdResponse, wire.EncodeCmdResponse(&wire.CmdResponse{
			EchoedTag: wire.TagSetFilter,
			Status:    wire.StatusFail,
		}))
	}
	c := New(link, WithStrictMatch())

	status, err := c.Call(context.Background(), wire.TagSetChannel, []byte{1, 0})

	var merr *MismatchError
	if !errors.As(err, &merr) {
		t.Fatalf("err = %v, want *MismatchError", err)
	}
	if merr.Sent != wire.TagSetChannel || merr.Echoed != wire.TagSetFilter {
		t.Errorf("mismatch fields = %+v", merr)
	}
	if status != wire.StatusFail {
		t.Errorf("status = %v, want FAIL (carried through)", status)
	}
}

func TestLateResponseNotMisattributed(t *testing.T) {
	link := newFakeLink()
	c := New(link, WithTimeout(30*time.Millisecond))

	// First command times out
	if _, err := c.Call(context.Background(), wire.TagSetChannel, []byte{1, 0}); !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	// Its response arrives late and sits in the buffer
	link.deliver(wire.TagCmdResponse, wire.EncodeCmdResponse(&wire.CmdResponse{
		EchoedTag: wire.TagSetChannel,
		Status:    wire.StatusFail,
	}))

	// The next command must see its own response, not the stale one
	link.respondOK()
	status, err := c.Call(context.Background(), wire.TagSetFilter, []byte{0xFF, 0, 0, 0})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !status.IsOK() {
		t.Errorf("status = %v, want OK (stale FAIL must not leak)", status)
	}
	if n := c.LateResponses(); n != 1 {
		t.Errorf("LateResponses() = %d, want 1", n)
	}
}

func TestMalformedResponseDropped(t *testing.T) {
	link := newFakeLink()
	c := New(link, WithTimeout(30*time.Millisecond))

	link.onSend = func(wire.Tag, []byte) {
		link.deliver(wire.TagCmdResponse, []byte{0x01}) // truncated
	}

	if _, err := c.Call(context.Background(), wire.TagSetChannel, []byte{1, 0}); !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout (malformed response dropped)", err)
	}
	if n := c.Malformed(); n != 1 {
		t.Errorf("Malformed() = %d, want 1", n)
	}
}

func TestTryCallBusy(t *testing.T) {
	link := newFakeLink() // remote never answers, first call blocks
	c := New(link, WithTimeout(time.Second))

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		_, _ = c.Call(context.Background(), wire.TagSetChannel, []byte{1, 0})
	}()

	<-started
	time.Sleep(20 * time.Millisecond) // let the call take the slot

	if _, err := c.TryCall(context.Background(), wire.TagSetFilter, nil); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	<-done
}

func TestConcurrentCallsSerialize(t *testing.T) {
	link := newFakeLink()
	link.respondOK()
	c := New(link)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := c.Call(context.Background(), wire.TagSetPromiscuous, []byte{1})
			if err != nil {
				errs <- err
				return
			}
			if !status.IsOK() {
				errs <- ErrorFromStatus(wire.TagSetPromiscuous, status)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent call failed: %v", err)
	}
	if len(link.sent) != callers {
		t.Errorf("sent %d commands, want %d", len(link.sent), callers)
	}
}

func TestCallRejectsNonCommandTag(t *testing.T) {
	c := New(newFakeLink())
	if _, err := c.Call(context.Background(), wire.TagCmdResponse, nil); !errors.Is(err, ErrNotCommand) {
		t.Errorf("err = %v, want ErrNotCommand", err)
	}
}
