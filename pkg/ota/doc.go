// Package ota implements the host side of chunked firmware transfer.
//
// A transfer is a strict sequence of commands: begin a session, write
// the image in order as fixed-size chunks, end the session, then
// optionally activate the stored image. The Engine drives the sequence
// over a command correlator and tracks it in a Session whose state only
// moves forward. Any failed step halts the transfer immediately; there
// are no retries, because the remote's session is in an unknown state
// after a failure and only a fresh begin can recover it.
//
// Images read from raw storage regions carry an erased tail: flash that
// was never programmed reads back as the erase pattern (0xFF on NOR).
// When the image length is unknown the engine scans each chunk and
// stops at the first fully erased one, after a guard threshold that
// keeps it from misreading erased-looking bytes near the start of a
// real image.
//
// Activation is deliberately separate from Run. A transfer that stored
// the image but failed to activate it is not lost work; the caller
// decides whether that is fatal.
package ota
