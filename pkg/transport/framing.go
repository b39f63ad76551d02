package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rawlink-protocol/rawlink-go/pkg/log"
	"github.com/rawlink-protocol/rawlink-go/pkg/wire"
)

// Framing constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes:
	// payload length (u16) followed by message tag (u16), little-endian.
	FrameHeaderSize = 4

	// DefaultMaxPayloadSize is the default maximum payload size.
	// Large enough for a max-size injected frame or capture event plus
	// its message header.
	DefaultMaxPayloadSize = 8192

	// MaxLogFrameDataSize is the maximum payload size to include in log
	// events. Larger payloads are truncated in the event, never on the wire.
	MaxLogFrameDataSize = 4096
)

// Framing errors.
var (
	// ErrPayloadTooLarge indicates the payload exceeds the maximum size.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrFrameTruncated indicates the stream ended mid-frame.
	ErrFrameTruncated = errors.New("frame truncated")
)

// FrameWriter writes tagged frames to an underlying writer.
type FrameWriter struct {
	w              io.Writer
	maxPayloadSize uint16
	mu             sync.Mutex

	// Logging support (optional)
	logger log.Logger
	linkID string
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w:              w,
		maxPayloadSize: DefaultMaxPayloadSize,
	}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, linkID string) {
	fw.logger = logger
	fw.linkID = linkID
}

// WriteFrame writes one tagged frame. An empty payload is valid: some
// commands carry no body.
// Thread-safe: can be called from multiple goroutines.
func (fw *FrameWriter) WriteFrame(tag wire.Tag, payload []byte) error {
	if len(payload) > int(fw.maxPayloadSize) {
		return fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(payload), fw.maxPayloadSize)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	var header [FrameHeaderSize]byte
	binary.LittleEndian.PutUint16(header[0:2], uint16(len(payload)))
	binary.LittleEndian.PutUint16(header[2:4], uint16(tag))

	if _, err := fw.w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if len(payload) > 0 {
		if _, err := fw.w.Write(payload); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
	}

	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.linkID, tag, payload, log.DirectionOut))
	}

	return nil
}

// FrameReader reads tagged frames from an underlying reader.
type FrameReader struct {
	r              io.Reader
	maxPayloadSize uint16
	headerBuf      [FrameHeaderSize]byte

	// Logging support (optional)
	logger log.Logger
	linkID string
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:              r,
		maxPayloadSize: DefaultMaxPayloadSize,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, linkID string) {
	fr.logger = logger
	fr.linkID = linkID
}

// ReadFrame reads one tagged frame, returning its tag and payload.
// The payload buffer is freshly allocated per frame.
func (fr *FrameReader) ReadFrame() (wire.Tag, []byte, error) {
	if _, err := io.ReadFull(fr.r, fr.headerBuf[:]); err != nil {
		if err == io.EOF {
			return 0, nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, ErrFrameTruncated
		}
		return 0, nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	length := binary.LittleEndian.Uint16(fr.headerBuf[0:2])
	tag := wire.Tag(binary.LittleEndian.Uint16(fr.headerBuf[2:4]))

	if length > fr.maxPayloadSize {
		return 0, nil, fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, length, fr.maxPayloadSize)
	}

	var payload []byte
	if length > 0 {
		payload = make([]byte, length)
		if _, err := io.ReadFull(fr.r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
				return 0, nil, ErrFrameTruncated
			}
			return 0, nil, fmt.Errorf("failed to read payload: %w", err)
		}
	}

	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.linkID, tag, payload, log.DirectionIn))
	}

	return tag, payload, nil
}

// makeFrameEvent creates a log event for a frame.
func makeFrameEvent(linkID string, tag wire.Tag, payload []byte, direction log.Direction) log.Event {
	frameData := payload
	truncated := false

	if len(payload) > MaxLogFrameDataSize {
		frameData = payload[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp: time.Now(),
		LinkID:    linkID,
		Direction: direction,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame: &log.FrameEvent{
			Tag:       tag,
			Size:      FrameHeaderSize + len(payload),
			Data:      frameData,
			Truncated: truncated,
		},
	}
}

// Framer combines frame reading and writing.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, linkID string) {
	f.FrameReader.SetLogger(logger, linkID)
	f.FrameWriter.SetLogger(logger, linkID)
}

// FrameSize returns the total frame size including the header.
func FrameSize(payloadSize int) int {
	return FrameHeaderSize + payloadSize
}
