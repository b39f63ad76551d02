package transport

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// Link errors.
var (
	// ErrLinkClosed indicates an operation on a closed link.
	ErrLinkClosed = errors.New("link is closed")
)

// Option configures a StreamLink.
type Option func(*StreamLink)

// WithLogger configures protocol event logging for the link.
func WithLogger(logger log.Logger) Option {
	return func(l *StreamLink) {
		l.logger = logger
	}
}

// StreamLink adapts a byte stream into a Link by running the frame codec
// over it. One reader goroutine decodes frames and dispatches each to the
// handler registered for its tag.
type StreamLink struct {
	id     string
	rwc    io.ReadWriteCloser
	framer *Framer
	logger log.Logger

	handlersMu sync.RWMutex
	handlers   map[wire.Tag]HandlerFunc

	closeOnce sync.Once
	closed    chan struct{}
	readDone  chan struct{}

	unhandled atomic.Uint64
}

// NewStreamLink creates a link over rwc and starts its delivery goroutine.
// The caller retains no access to rwc; Close closes it.
func NewStreamLink(rwc io.ReadWriteCloser, opts ...Option) *StreamLink {
	l := &StreamLink{
		id:       uuid.New().String(),
		rwc:      rwc,
		framer:   NewFramer(rwc),
		handlers: make(map[wire.Tag]HandlerFunc),
		closed:   make(chan struct{}),
		readDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger != nil {
		l.framer.SetLogger(l.logger, l.id)
	}

	go l.readLoop()

	return l
}

// ID returns the link's unique identifier.
func (l *StreamLink) ID() string {
	return l.id
}

// Send transmits one message.
func (l *StreamLink) Send(tag wire.Tag, payload []byte) error {
	select {
	case <-l.closed:
		return ErrLinkClosed
	default:
	}

	if err := l.framer.WriteFrame(tag, payload); err != nil {
		return fmt.Errorf("send %s: %w", tag, err)
	}
	return nil
}

// Handle registers the handler for a tag, replacing any previous handler.
// A nil handler unregisters the tag. Safe to call while the link delivers.
func (l *StreamLink) Handle(tag wire.Tag, h HandlerFunc) {
	l.handlersMu.Lock()
	defer l.handlersMu.Unlock()
	if h == nil {
		delete(l.handlers, tag)
		return
	}
	l.handlers[tag] = h
}

// Unhandled returns the number of frames dropped because no handler was
// registered for their tag.
func (l *StreamLink) Unhandled() uint64 {
	return l.unhandled.Load()
}

// Close closes the link and the underlying stream. The delivery goroutine
// exits once its current read returns.
func (l *StreamLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.rwc.Close()
		l.logStateChange("open", "closed", "local close")
	})
	return err
}

// Done returns a channel closed when the delivery goroutine has exited,
// either from Close or from a stream error.
func (l *StreamLink) Done() <-chan struct{} {
	return l.readDone
}

// readLoop is the delivery goroutine: it decodes frames and invokes the
// registered handlers until the stream ends.
func (l *StreamLink) readLoop() {
	defer close(l.readDone)

	for {
		tag, payload, err := l.framer.ReadFrame()
		if err != nil {
			select {
			case <-l.closed:
				// Local close; the read error is expected.
			default:
				l.logError("read", err)
				_ = l.Close()
			}
			return
		}

		l.handlersMu.RLock()
		h := l.handlers[tag]
		l.handlersMu.RUnlock()

		if h == nil {
			l.unhandled.Add(1)
			continue
		}
		h(tag, payload)
	}
}

func (l *StreamLink) logStateChange(oldState, newState, reason string) {
	if l.logger == nil {
		return
	}
	l.logger.Log(log.Event{
		Timestamp: time.Now(),
		LinkID:    l.id,
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityLink,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (l *StreamLink) logError(context string, err error) {
	if l.logger == nil {
		return
	}
	l.logger.Log(log.Event{
		Timestamp: time.Now(),
		LinkID:    l.id,
		Layer:     log.LayerTransport,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: context,
		},
	})
}
