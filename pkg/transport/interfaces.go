package transport

import (
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// HandlerFunc is called on the link's delivery goroutine for each
// incoming message with a matching tag. The payload slice is only valid
// for the duration of the call; handlers must copy anything they keep,
// and must not block.
type HandlerFunc func(tag wire.Tag, payload []byte)

// Link is a full-duplex, message-oriented channel to the remote.
// Implemented by StreamLink.
type Link interface {
	// ID returns the link's unique identifier (UUID).
	ID() string

	// Send transmits one message. It returns an error if the link is
	// closed or the underlying write fails.
	Send(tag wire.Tag, payload []byte) error

	// Handle registers the handler for a tag, replacing any previous
	// handler for that tag. A nil handler unregisters the tag.
	Handle(tag wire.Tag, h HandlerFunc)

	// Close closes the link. Pending and future Sends fail.
	Close() error
}

// FrameReadWriter provides tagged-frame I/O over a byte stream.
// Implemented by Framer.
type FrameReadWriter interface {
	// ReadFrame reads one frame, returning its tag and payload.
	ReadFrame() (wire.Tag, []byte, error)

	// WriteFrame writes one frame.
	WriteFrame(tag wire.Tag, payload []byte) error
}

// Compile-time interface satisfaction checks.
var (
	_ Link            = (*StreamLink)(nil)
	_ FrameReadWriter = (*Framer)(nil)
)
