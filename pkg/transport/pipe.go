package transport

import (
	"net"
)

// Pipe returns two fully-connected in-memory links: frames sent on one
// side are delivered to handlers on the other. Used by tests and by the
// in-process fake remote.
func Pipe(opts ...Option) (*StreamLink, *StreamLink) {
	a, b := net.Pipe()
	return NewStreamLink(a, opts...), NewStreamLink(b, opts...)
}
