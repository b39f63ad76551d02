// Package rpc makes the asynchronous link look synchronous for
// command/response pairs.
//
// The remote answers every command with a CmdResponse that echoes the
// command's tag; it never interleaves responses because the host keeps at
// most one command outstanding. The Correlator enforces that single
// in-flight discipline with a mutex, so concurrent callers serialize
// instead of corrupting each other's responses.
//
// # Correlation Model
//
// Correlation relies on ordering, not identifiers: with one command
// outstanding, the next response delivered on the link belongs to it. A
// response echoing a different tag is a protocol anomaly. By default the
// Correlator mimics the original firmware's lenient behavior - it logs
// the mismatch and returns the status as if it matched - because current
// remotes occasionally echo stale tags after an internal reset. Strict
// mode (WithStrictMatch) turns the anomaly into a MismatchError instead.
//
// # Timeouts
//
// A command that receives no response within the deadline returns
// ErrTimeout and is abandoned; no cancellation is sent. A response that
// arrives with no caller waiting is dropped and counted, never attributed
// to a later command.
package rpc
