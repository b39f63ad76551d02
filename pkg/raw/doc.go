// Package raw provides the host-side client for the radio's raw WiFi
// control surface.
//
// A Client wraps one transport.Link with a command correlator and a
// capture dispatcher, and exposes the four control operations the radio
// understands: enabling promiscuous mode, tuning the channel, setting
// the capture filter and injecting raw 802.11 frames. Arguments are
// validated on the host before anything goes on the wire, so an
// out-of-range channel or oversized frame never reaches the radio.
//
// The client does not own the link. Closing the client detaches its
// capture handler but leaves the link open for the caller to reuse or
// close.
package raw
