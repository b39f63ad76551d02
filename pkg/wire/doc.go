// Package wire defines the RawLink message model: message tags, payload
// layouts, and the binary codec shared by the host-side protocol stack.
//
// # Tag Space
//
// Every message carried over the link is identified by a 16-bit tag. The
// tag space is partitioned into disjoint ranges:
//
//	0x0100..0x017F  commands      (host → remote)
//	0x0180..0x01FF  responses     (remote → host)
//	0x0200..0x027F  events        (remote → host, unsolicited)
//
// Each command tag has exactly one corresponding response, carried as a
// CmdResponse whose EchoedTag names the command it answers. Events are
// never correlated to a command.
//
// # Encoding
//
// All payloads use fixed little-endian packed layouts with no implicit
// padding. Variable-length messages carry an explicit 16-bit length field
// immediately before the trailing data. Encoding and decoding is done
// field by field; decoders never read past their input and report
// truncation as ErrTruncated.
package wire
