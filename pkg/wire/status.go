package wire

import "fmt"

// Status is a remote status code, echoed back in every command response.
// The value domain belongs to the remote firmware; this layer passes
// non-success codes through without interpretation. The codes below cover
// what current remote firmware is known to emit.
type Status int32

const (
	// StatusOK indicates the command succeeded.
	StatusOK Status = 0

	// StatusFail is the remote's generic failure code.
	StatusFail Status = -1

	// StatusNoMem indicates the remote ran out of memory.
	StatusNoMem Status = 0x101

	// StatusInvalidArg indicates a command argument was rejected.
	StatusInvalidArg Status = 0x102

	// StatusInvalidState indicates the command is not valid in the
	// remote's current state (e.g. OTA write without a begin).
	StatusInvalidState Status = 0x103

	// StatusTimeout indicates the remote timed out internally.
	StatusTimeout Status = 0x107

	// StatusNotSupported indicates the remote firmware does not implement
	// the command. Older firmware returns this for OTA activate.
	StatusNotSupported Status = 0x106
)

// IsOK reports whether the status indicates success.
func (s Status) IsOK() bool {
	return s == StatusOK
}

// String returns the status name, or "STATUS(<code>)" for unknown codes.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFail:
		return "FAIL"
	case StatusNoMem:
		return "NO_MEM"
	case StatusInvalidArg:
		return "INVALID_ARG"
	case StatusInvalidState:
		return "INVALID_STATE"
	case StatusTimeout:
		return "TIMEOUT"
	case StatusNotSupported:
		return "NOT_SUPPORTED"
	default:
		return fmt.Sprintf("STATUS(%d)", int32(s))
	}
}
