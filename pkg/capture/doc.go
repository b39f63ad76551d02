// Package capture delivers unsolicited capture events from the radio to
// host-side subscribers.
//
// The radio pushes one tagged message per captured frame whenever
// promiscuous mode is enabled. A Dispatcher attaches to a transport.Link,
// decodes each event and fans it out to every active subscription in
// registration order. Delivery happens on the link's delivery goroutine,
// so callbacks must not block; a subscriber that needs to do slow work
// should hand the event off to its own goroutine or channel.
//
// Malformed events are dropped and counted, never surfaced as errors.
// The radio keeps streaming regardless of what the host makes of any
// individual event, so a poisoned frame must not take the dispatcher down.
package capture
