// Package connection manages link lifecycle.
//
// Dialing a radio link can fail transiently: the coprocessor may still
// be booting, the serial device node may not exist yet, or a previous
// holder may not have released the port. OpenWithRetry wraps a dial
// function with capped exponential backoff for these cases.
//
// A Supervisor goes further and keeps a link alive across losses. It
// watches the current link's Done channel, redials with backoff when
// the link dies and hands each fresh link to a callback so the caller
// can rebuild its protocol state. Command and capture handlers do not
// survive a redial; the radio also reboots with promiscuous mode off,
// so the callback typically replays its configuration.
package connection
