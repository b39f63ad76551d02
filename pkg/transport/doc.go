// Package transport provides the RawLink transport layer: the Link
// abstraction the protocol stack talks to, and concrete links for byte
// streams and serial ports.
//
// The link is a full-duplex, message-oriented channel. Every message is
// identified by a 16-bit tag; delivery is FIFO within a tag stream in one
// direction, with no ordering guarantee across tags. The link has no
// request/response concept of its own - correlation lives in pkg/rpc.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   Tagged Messages (pkg/wire)   │
//	├────────────────────────────────┤
//	│   Frame Header (len u16,       │
//	│   tag u16, little-endian)      │
//	├────────────────────────────────┤
//	│   Byte stream (serial, SDIO    │
//	│   bridge, in-memory pipe)      │
//	└────────────────────────────────┘
//
// # Delivery
//
// Each StreamLink runs one reader goroutine that decodes frames and calls
// the handler registered for the frame's tag. Handlers run on that
// goroutine and must not block; payload slices are only valid for the
// duration of the call. Frames with no registered handler are counted and
// dropped.
package transport
