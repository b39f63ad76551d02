package rpc

import (
	"errors"
	"fmt"

	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// Correlator errors.
var (
	// ErrTimeout indicates no response arrived within the deadline.
	// The command is abandoned; no cancellation is sent to the remote.
	ErrTimeout = errors.New("command timed out")

	// ErrBusy indicates another command is already in flight (TryCall only).
	ErrBusy = errors.New("command already in flight")

	// ErrNotCommand indicates the tag is outside the command range.
	ErrNotCommand = errors.New("tag is not a command")
)

// TransportError wraps a synchronous send failure. The command was never
// accepted by the link, so no response wait was performed.
type TransportError struct {
	Tag wire.Tag
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Tag, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MismatchError reports a response whose echoed tag differs from the
// command that was sent. Returned only in strict mode; lenient mode logs
// the anomaly and proceeds with the status.
type MismatchError struct {
	Sent   wire.Tag
	Echoed wire.Tag
	Status wire.Status
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("response mismatch: sent %s, remote answered %s (status %s)",
		e.Sent, e.Echoed, e.Status)
}

// StatusError reports a non-success status from the remote. The code
// belongs to the remote's error domain and is passed through opaquely.
type StatusError struct {
	Tag    wire.Tag
	Status wire.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: remote status %s", e.Tag, e.Status)
}

// ErrorFromStatus converts a status into a *StatusError, or nil for OK.
func ErrorFromStatus(tag wire.Tag, status wire.Status) error {
	if status.IsOK() {
		return nil
	}
	return &StatusError{Tag: tag, Status: status}
}
