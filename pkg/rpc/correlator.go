package rpc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// DefaultTimeout is the default per-command response deadline.
const DefaultTimeout = 5 * time.Second

// Option configures a Correlator.
type Option func(*Correlator)

// WithTimeout sets the per-command response deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Correlator) {
		c.timeout = d
	}
}

// WithStrictMatch makes a tag mismatch a MismatchError instead of the
// default lenient log-and-proceed behavior.
func WithStrictMatch() Option {
	return func(c *Correlator) {
		c.strict = true
	}
}

// WithLogger configures protocol event logging for command round trips.
func WithLogger(logger log.Logger) Option {
	return func(c *Correlator) {
		c.logger = logger
	}
}

// Correlator turns the link's asynchronous delivery into synchronous
// command calls. It holds exactly one in-flight slot; concurrent callers
// serialize on it.
type Correlator struct {
	link    transport.Link
	timeout time.Duration
	strict  bool
	logger  log.Logger

	// inflight serializes Call: at most one command outstanding.
	inflight sync.Mutex

	// respCh hands one decoded response from the delivery goroutine to
	// the waiting caller. Buffered so delivery never blocks.
	respCh chan *wire.CmdResponse

	late      atomic.Uint64
	malformed atomic.Uint64
}

// New creates a Correlator over the link and registers it as the handler
// for CmdResponse messages.
func New(link transport.Link, opts ...Option) *Correlator {
	c := &Correlator{
		link:    link,
		timeout: DefaultTimeout,
		respCh:  make(chan *wire.CmdResponse, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	link.Handle(wire.TagCmdResponse, c.onResponse)

	return c
}

// Call sends one command and blocks until its response arrives or the
// deadline expires. The effective deadline is the sooner of ctx's and the
// configured timeout. The returned status is only meaningful when err is
// nil (or, in strict mode, a *MismatchError, which carries it too).
func (c *Correlator) Call(ctx context.Context, tag wire.Tag, payload []byte) (wire.Status, error) {
	c.inflight.Lock()
	defer c.inflight.Unlock()

	return c.call(ctx, tag, payload)
}

// TryCall is Call, except it fails with ErrBusy instead of waiting when
// another command is in flight.
func (c *Correlator) TryCall(ctx context.Context, tag wire.Tag, payload []byte) (wire.Status, error) {
	if !c.inflight.TryLock() {
		return 0, ErrBusy
	}
	defer c.inflight.Unlock()

	return c.call(ctx, tag, payload)
}

// call runs one command round trip. Caller holds the in-flight slot.
func (c *Correlator) call(ctx context.Context, tag wire.Tag, payload []byte) (wire.Status, error) {
	if !tag.IsCommand() {
		return 0, ErrNotCommand
	}

	// A response from an abandoned earlier command may still be buffered.
	// It belongs to nobody now; drop it so it cannot be misattributed.
	select {
	case <-c.respCh:
		c.late.Add(1)
	default:
	}

	start := time.Now()
	if err := c.link.Send(tag, payload); err != nil {
		return 0, &TransportError{Tag: tag, Err: err}
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
		c.logCommand(tag, nil, time.Since(start))
		return 0, ErrTimeout
	case resp := <-c.respCh:
		rtt := time.Since(start)
		c.logCommand(tag, resp, rtt)

		if resp.EchoedTag != tag {
			if c.strict {
				return resp.Status, &MismatchError{
					Sent:   tag,
					Echoed: resp.EchoedTag,
					Status: resp.Status,
				}
			}
			// Lenient mode: the remote misbehaved, but with one command
			// outstanding this response can only be meant for us.
		}
		return resp.Status, nil
	}
}

// onResponse runs on the link's delivery goroutine. It performs only a
// fixed-size decode and a non-blocking handoff.
func (c *Correlator) onResponse(_ wire.Tag, payload []byte) {
	resp, err := wire.DecodeCmdResponse(payload)
	if err != nil {
		c.malformed.Add(1)
		c.logError("decode response", err)
		return
	}

	select {
	case c.respCh <- resp:
	default:
		// Nobody is waiting and a response is already buffered.
		c.late.Add(1)
	}
}

// LateResponses returns the number of responses dropped because no
// command was awaiting them (late arrivals after a timeout).
func (c *Correlator) LateResponses() uint64 {
	return c.late.Load()
}

// Malformed returns the number of undecodable responses dropped.
func (c *Correlator) Malformed() uint64 {
	return c.malformed.Load()
}

// Timeout returns the configured per-command deadline.
func (c *Correlator) Timeout() time.Duration {
	return c.timeout
}

func (c *Correlator) logCommand(tag wire.Tag, resp *wire.CmdResponse, rtt time.Duration) {
	if c.logger == nil {
		return
	}
	ev := log.Event{
		Timestamp: time.Now(),
		LinkID:    c.link.ID(),
		Direction: log.DirectionIn,
		Layer:     log.LayerCommand,
		Category:  log.CategoryMessage,
		Command:   &log.CommandEvent{Tag: tag, RTT: &rtt},
	}
	if resp != nil {
		ev.Command.EchoedTag = &resp.EchoedTag
		ev.Command.Status = &resp.Status
		if resp.EchoedTag != tag {
			ev.Category = log.CategoryError
		}
	} else {
		ev.Category = log.CategoryError
	}
	c.logger.Log(ev)
}

func (c *Correlator) logError(context string, err error) {
	if c.logger == nil {
		return
	}
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		LinkID:    c.link.ID(),
		Direction: log.DirectionIn,
		Layer:     log.LayerCommand,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerCommand,
			Message: err.Error(),
			Context: context,
		},
	})
}
