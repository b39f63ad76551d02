package ota

import (
	"github.com/rawlink-protocol/rawlink-go/pkg/log"
)

// Transfer defaults.
const (
	// DefaultChunkSize is the image bytes carried per write command.
	// Sized to fit one chunk comfortably inside a transport frame.
	DefaultChunkSize = 1400

	// DefaultErasePattern is what erased NOR flash reads back as.
	DefaultErasePattern = 0xFF

	// DefaultGuardThreshold is the minimum image prefix, in bytes, that
	// must be sent before an erased chunk may be taken as end of image.
	DefaultGuardThreshold = 4096
)

// Progress reports transfer progress after each accepted chunk.
type Progress struct {
	// SessionID identifies the transfer session.
	SessionID string

	// Offset is the image bytes accepted so far.
	Offset uint32

	// Total is the image length, or 0 when unknown.
	Total uint32

	// ChunkLen is the size of the chunk just accepted.
	ChunkLen int
}

// ProgressFunc receives progress reports. It runs on the transfer
// goroutine, so it should return quickly.
type ProgressFunc func(Progress)

type config struct {
	chunkSize    int
	erasePattern byte
	guard        uint32
	progress     ProgressFunc
	logger       log.Logger
}

func defaultConfig() config {
	return config{
		chunkSize:    DefaultChunkSize,
		erasePattern: DefaultErasePattern,
		guard:        DefaultGuardThreshold,
		logger:       log.NoopLogger{},
	}
}

// Option configures an Engine.
type Option func(*config)

// WithChunkSize sets the image bytes sent per write command.
func WithChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithErasePattern sets the byte value that marks erased storage.
func WithErasePattern(b byte) Option {
	return func(c *config) {
		c.erasePattern = b
	}
}

// WithGuardThreshold sets how many bytes must be sent before an erased
// chunk ends an unknown-length transfer.
func WithGuardThreshold(n uint32) Option {
	return func(c *config) {
		c.guard = n
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithLogger sets the event logger for transfer steps.
func WithLogger(l log.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
