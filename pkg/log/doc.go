// Package log provides structured protocol logging for RawLink.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport frames, command
// round trips, firmware transfer steps). It is separate from operational
// logging (slog) - protocol capture provides a complete machine-readable
// event trace for debugging and analysis.
//
// # Basic Usage
//
// Components accept a Logger and emit events as they work:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	logger, _ := log.NewFileLogger("/var/log/rawlink/host.rlog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw frames in either direction (FrameEvent)
//   - Command: one command/response round trip (CommandEvent)
//   - Transfer: firmware transfer session steps (TransferEvent)
//
// State changes and errors have dedicated event types usable at any layer.
//
// # File Format
//
// Log files use CBOR encoding with .rlog extension. Reader replays them,
// optionally filtered by link, layer, direction, or time window.
package log
