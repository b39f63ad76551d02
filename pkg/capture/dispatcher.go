package capture

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/transport"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// Subscription is a handle to an active capture subscription.
// Cancel detaches the callback; it is safe to call more than once.
type Subscription struct {
	id         uint64
	dispatcher *Dispatcher
}

// Cancel removes the subscription from its dispatcher.
func (s *Subscription) Cancel() {
	s.dispatcher.unsubscribe(s.id)
}

// Dispatcher fans capture events out to subscribers.
type Dispatcher struct {
	link   transport.Link
	logger log.Logger

	mu     sync.RWMutex
	subs   map[uint64]*subEntry
	order  []uint64
	nextID uint64

	dropped atomic.Uint64
	total   atomic.Uint64
	byType  [4]atomic.Uint64
}

type subEntry struct {
	fn func(*wire.CaptureEvent)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the event logger for malformed-event drops.
func WithLogger(l log.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a Dispatcher and registers it for capture events on link.
func New(link transport.Link, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		link:   link,
		logger: log.NoopLogger{},
		subs:   make(map[uint64]*subEntry),
	}
	for _, opt := range opts {
		opt(d)
	}
	link.Handle(wire.TagCaptureEvent, d.onEvent)
	return d
}

// Subscribe registers fn to receive every subsequent capture event.
// fn runs on the link's delivery goroutine and must not block.
func (d *Dispatcher) Subscribe(fn func(*wire.CaptureEvent)) *Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID
	d.subs[id] = &subEntry{fn: fn}
	d.order = append(d.order, id)

	return &Subscription{id: id, dispatcher: d}
}

func (d *Dispatcher) unsubscribe(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.subs[id]; !exists {
		return
	}
	delete(d.subs, id)
	for i, sid := range d.order {
		if sid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Close detaches the dispatcher from the link and drops all subscriptions.
func (d *Dispatcher) Close() {
	d.link.Handle(wire.TagCaptureEvent, nil)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = make(map[uint64]*subEntry)
	d.order = nil
}

// Count returns how many events of the given packet type have been
// dispatched. Types outside the known range always report zero.
func (d *Dispatcher) Count(pt wire.PacketType) uint64 {
	if int(pt) >= len(d.byType) {
		return 0
	}
	return d.byType[pt].Load()
}

// Total returns how many events have been dispatched overall.
func (d *Dispatcher) Total() uint64 {
	return d.total.Load()
}

// Dropped returns how many events were discarded as malformed.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Subscribers returns the number of active subscriptions.
func (d *Dispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

func (d *Dispatcher) onEvent(_ wire.Tag, payload []byte) {
	ev, err := wire.DecodeCaptureEvent(payload)
	if err != nil {
		d.dropped.Add(1)
		d.logger.Log(log.Event{
			Timestamp: time.Now(),
			LinkID:    d.link.ID(),
			Direction: log.DirectionIn,
			Layer:     log.LayerCommand,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer:   log.LayerCommand,
				Message: err.Error(),
				Context: "capture event dropped",
			},
		})
		return
	}

	d.total.Add(1)
	if int(ev.Type) < len(d.byType) {
		d.byType[ev.Type].Add(1)
	}

	// Copy the callback list so a Cancel from inside a callback cannot
	// invalidate the iteration.
	d.mu.RLock()
	fns := make([]func(*wire.CaptureEvent), 0, len(d.order))
	for _, id := range d.order {
		if entry, ok := d.subs[id]; ok {
			fns = append(fns, entry.fn)
		}
	}
	d.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
