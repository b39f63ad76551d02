package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Codec errors.
var (
	// ErrTruncated indicates a payload shorter than its layout requires.
	ErrTruncated = errors.New("payload truncated")

	// ErrInvalidField indicates a field value outside its valid range.
	ErrInvalidField = errors.New("invalid field")

	// ErrTrailingBytes indicates extra bytes after a fixed-size payload.
	ErrTrailingBytes = errors.New("trailing bytes after payload")
)

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// EncodeSetPromiscuous encodes a SetPromiscuous payload.
func EncodeSetPromiscuous(m *SetPromiscuous) []byte {
	return []byte{boolByte(m.Enable)}
}

// DecodeSetPromiscuous decodes a SetPromiscuous payload.
func DecodeSetPromiscuous(data []byte) (*SetPromiscuous, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("set promiscuous: %w", ErrTruncated)
	}
	return &SetPromiscuous{Enable: data[0] != 0}, nil
}

// EncodeSetChannel encodes a SetChannel payload.
func EncodeSetChannel(m *SetChannel) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("set channel: %w", err)
	}
	return []byte{m.Primary, byte(m.Secondary)}, nil
}

// DecodeSetChannel decodes a SetChannel payload.
func DecodeSetChannel(data []byte) (*SetChannel, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("set channel: %w", ErrTruncated)
	}
	return &SetChannel{
		Primary:   data[0],
		Secondary: SecondaryChannel(data[1]),
	}, nil
}

// EncodeSetFilter encodes a SetFilter payload.
func EncodeSetFilter(m *SetFilter) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, m.FilterMask)
	return buf
}

// DecodeSetFilter decodes a SetFilter payload.
func DecodeSetFilter(data []byte) (*SetFilter, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("set filter: %w", ErrTruncated)
	}
	return &SetFilter{FilterMask: binary.LittleEndian.Uint32(data)}, nil
}

// EncodeInject80211 encodes an Inject80211 payload.
func EncodeInject80211(m *Inject80211) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("inject: %w", err)
	}
	buf := make([]byte, 4+len(m.Data))
	buf[0] = byte(m.Ifx)
	buf[1] = boolByte(m.OverwriteSeq)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(len(m.Data)))
	copy(buf[4:], m.Data)
	return buf, nil
}

// DecodeInject80211 decodes an Inject80211 payload.
func DecodeInject80211(data []byte) (*Inject80211, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("inject: %w", ErrTruncated)
	}
	frameLen := int(binary.LittleEndian.Uint16(data[2:4]))
	if len(data) < 4+frameLen {
		return nil, fmt.Errorf("inject: declared %d data bytes, have %d: %w",
			frameLen, len(data)-4, ErrTruncated)
	}
	m := &Inject80211{
		Ifx:          Interface(data[0]),
		OverwriteSeq: data[1] != 0,
		Data:         data[4 : 4+frameLen],
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("inject: %w", err)
	}
	return m, nil
}

// EncodeCmdResponse encodes a CmdResponse payload.
func EncodeCmdResponse(m *CmdResponse) []byte {
	buf := make([]byte, CmdResponseSize)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(m.EchoedTag))
	binary.LittleEndian.PutUint32(buf[2:6], uint32(int32(m.Status)))
	return buf
}

// DecodeCmdResponse decodes a CmdResponse payload.
func DecodeCmdResponse(data []byte) (*CmdResponse, error) {
	if len(data) < CmdResponseSize {
		return nil, fmt.Errorf("cmd response: %w", ErrTruncated)
	}
	return &CmdResponse{
		EchoedTag: Tag(binary.LittleEndian.Uint16(data[0:2])),
		Status:    Status(int32(binary.LittleEndian.Uint32(data[2:6]))),
	}, nil
}

// EncodeCaptureEvent encodes a CaptureEvent payload.
func EncodeCaptureEvent(m *CaptureEvent) []byte {
	buf := make([]byte, CaptureEventHeaderSize+len(m.Data))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.Type))
	buf[4] = byte(m.RSSI)
	buf[5] = m.Channel
	buf[6] = m.Rate
	buf[7] = m.SigMode
	binary.LittleEndian.PutUint32(buf[8:12], m.RxState)
	binary.LittleEndian.PutUint16(buf[12:14], uint16(len(m.Data)))
	copy(buf[CaptureEventHeaderSize:], m.Data)
	return buf
}

// DecodeCaptureEvent decodes a CaptureEvent payload. The returned event's
// Data aliases the input; callers must copy it to retain it.
func DecodeCaptureEvent(data []byte) (*CaptureEvent, error) {
	if len(data) < CaptureEventHeaderSize {
		return nil, fmt.Errorf("capture event: %w", ErrTruncated)
	}
	frameLen := int(binary.LittleEndian.Uint16(data[12:14]))
	if len(data) < CaptureEventHeaderSize+frameLen {
		return nil, fmt.Errorf("capture event: declared %d data bytes, have %d: %w",
			frameLen, len(data)-CaptureEventHeaderSize, ErrTruncated)
	}
	return &CaptureEvent{
		Type:    PacketType(binary.LittleEndian.Uint32(data[0:4])),
		RSSI:    int8(data[4]),
		Channel: data[5],
		Rate:    data[6],
		SigMode: data[7],
		RxState: binary.LittleEndian.Uint32(data[8:12]),
		Data:    data[CaptureEventHeaderSize : CaptureEventHeaderSize+frameLen],
	}, nil
}

// EncodeOTABegin encodes an OTABegin payload.
func EncodeOTABegin(m *OTABegin) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, m.ImageLen)
	return buf
}

// DecodeOTABegin decodes an OTABegin payload.
func DecodeOTABegin(data []byte) (*OTABegin, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("ota begin: %w", ErrTruncated)
	}
	return &OTABegin{ImageLen: binary.LittleEndian.Uint32(data)}, nil
}

// EncodeOTAWrite encodes an OTAWrite payload.
func EncodeOTAWrite(m *OTAWrite) ([]byte, error) {
	if len(m.Data) == 0 {
		return nil, fmt.Errorf("ota write: %w: empty chunk", ErrInvalidField)
	}
	if len(m.Data) > 0xFFFF {
		return nil, fmt.Errorf("ota write: %w: chunk length %d", ErrInvalidField, len(m.Data))
	}
	buf := make([]byte, 2+len(m.Data))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(m.Data)))
	copy(buf[2:], m.Data)
	return buf, nil
}

// DecodeOTAWrite decodes an OTAWrite payload.
func DecodeOTAWrite(data []byte) (*OTAWrite, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("ota write: %w", ErrTruncated)
	}
	chunkLen := int(binary.LittleEndian.Uint16(data[0:2]))
	if len(data) < 2+chunkLen {
		return nil, fmt.Errorf("ota write: declared %d data bytes, have %d: %w",
			chunkLen, len(data)-2, ErrTruncated)
	}
	return &OTAWrite{Data: data[2 : 2+chunkLen]}, nil
}
