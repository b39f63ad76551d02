package ota

import (
	"errors"
	"fmt"

	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// ErrInvalidTransition indicates a session state transition that the
// forward-only state machine forbids.
var ErrInvalidTransition = errors.New("invalid session state transition")

// Step identifies one phase of the transfer sequence.
type Step uint8

const (
	// StepBegin opens the transfer session on the remote.
	StepBegin Step = iota
	// StepWrite appends one image chunk.
	StepWrite
	// StepEnd finalizes and validates the received image.
	StepEnd
	// StepActivate marks the stored image as the boot image.
	StepActivate
)

// String returns the step name.
func (s Step) String() string {
	switch s {
	case StepBegin:
		return "begin"
	case StepWrite:
		return "write"
	case StepEnd:
		return "end"
	case StepActivate:
		return "activate"
	default:
		return fmt.Sprintf("STEP(%d)", uint8(s))
	}
}

// StepError reports a transfer step that failed and halted the
// sequence. Either Status carries the remote's rejection or Err carries
// a local failure (timeout, closed link, source read error).
type StepError struct {
	// Step that failed.
	Step Step

	// Offset is the image byte offset reached before the failure.
	Offset uint32

	// Status is the remote status, when the step got a response.
	Status wire.Status

	// Err is the local error, when the step never completed.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ota %s at offset %d: %v", e.Step, e.Offset, e.Err)
	}
	return fmt.Sprintf("ota %s at offset %d: remote status %v", e.Step, e.Offset, e.Status)
}

// Unwrap returns the local error, if any.
func (e *StepError) Unwrap() error {
	return e.Err
}

// ActivateError reports a failed activation after a complete transfer.
// The image is stored on the remote; only the boot switch failed.
type ActivateError struct {
	// Status is the remote status, when activation got a response.
	Status wire.Status

	// Err is the local error, when it did not.
	Err error
}

// Error implements the error interface.
func (e *ActivateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ota activate: %v", e.Err)
	}
	return fmt.Sprintf("ota activate: remote status %v", e.Status)
}

// Unwrap returns the local error, if any.
func (e *ActivateError) Unwrap() error {
	return e.Err
}
