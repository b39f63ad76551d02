package log

import (
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// LinkID uniquely identifies the link (UUID).
	LinkID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"` // Command round trips
	Transfer    *TransferEvent    `cbor:"12,keyasint,omitempty"` // Firmware transfer steps
	StateChange *StateChangeEvent `cbor:"13,keyasint,omitempty"` // Link/session state
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerCommand is the command/response correlation layer.
	LayerCommand Layer = 1
	// LayerTransfer is the firmware transfer layer.
	LayerTransfer Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerCommand:
		return "COMMAND"
	case LayerTransfer:
		return "TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one raw frame at the transport layer.
type FrameEvent struct {
	// Tag is the message tag carried in the frame header.
	Tag wire.Tag `cbor:"1,keyasint"`

	// Size is the frame size in bytes (including the frame header).
	Size int `cbor:"2,keyasint"`

	// Data is the raw payload bytes (may be truncated for large frames).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// CommandEvent captures one command/response round trip at the
// correlation layer.
type CommandEvent struct {
	// Tag is the command that was sent.
	Tag wire.Tag `cbor:"1,keyasint"`

	// EchoedTag is the tag the response claimed to answer.
	// Differs from Tag when the remote misbehaves.
	EchoedTag *wire.Tag `cbor:"2,keyasint,omitempty"`

	// Status is the remote status code, when a response arrived.
	Status *wire.Status `cbor:"3,keyasint,omitempty"`

	// RTT is the round-trip time from send to response delivery.
	// Stored as nanoseconds.
	RTT *time.Duration `cbor:"4,keyasint,omitempty"`
}

// TransferEvent captures one firmware transfer step.
type TransferEvent struct {
	// SessionID identifies the transfer session (UUID).
	SessionID string `cbor:"1,keyasint"`

	// State is the session state after the step.
	State string `cbor:"2,keyasint"`

	// Offset is the byte offset reached in the image.
	Offset uint64 `cbor:"3,keyasint,omitempty"`

	// ChunkLen is the length of the chunk the step sent, if any.
	ChunkLen int `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures link and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityLink indicates a link state change.
	StateEntityLink StateEntity = 0
	// StateEntitySession indicates a transfer session state change.
	StateEntitySession StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityLink:
		return "LINK"
	case StateEntitySession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
