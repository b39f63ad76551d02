package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeSetChannelLayout(t *testing.T) {
	data, err := EncodeSetChannel(&SetChannel{Primary: 6, Secondary: SecondaryAbove})
	if err != nil {
		t.Fatalf("EncodeSetChannel failed: %v", err)
	}
	if !bytes.Equal(data, []byte{6, 1}) {
		t.Errorf("encoded bytes = % X, want 06 01", data)
	}
}

func TestEncodeSetChannelRejectsOutOfRange(t *testing.T) {
	for _, ch := range []uint8{0, 15} {
		if _, err := EncodeSetChannel(&SetChannel{Primary: ch}); !errors.Is(err, ErrInvalidField) {
			t.Errorf("channel %d: err = %v, want ErrInvalidField", ch, err)
		}
	}
}

func TestEncodeSetFilterLittleEndian(t *testing.T) {
	data := EncodeSetFilter(&SetFilter{FilterMask: 0x01020304})
	if !bytes.Equal(data, []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Errorf("encoded bytes = % X, want 04 03 02 01", data)
	}
}

func TestCmdResponseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		resp CmdResponse
	}{
		{"ok", CmdResponse{EchoedTag: TagSetChannel, Status: StatusOK}},
		{"negative status", CmdResponse{EchoedTag: TagOTAWrite, Status: StatusFail}},
		{"remote code", CmdResponse{EchoedTag: TagOTAActivate, Status: StatusNotSupported}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeCmdResponse(&tt.resp)
			if len(data) != CmdResponseSize {
				t.Fatalf("encoded size = %d, want %d", len(data), CmdResponseSize)
			}
			got, err := DecodeCmdResponse(data)
			if err != nil {
				t.Fatalf("DecodeCmdResponse failed: %v", err)
			}
			if got.EchoedTag != tt.resp.EchoedTag || got.Status != tt.resp.Status {
				t.Errorf("decoded = %+v, want %+v", got, tt.resp)
			}
		})
	}
}

func TestDecodeCmdResponseTruncated(t *testing.T) {
	if _, err := DecodeCmdResponse([]byte{0x00, 0x01, 0x00}); !errors.Is(err, ErrTruncated) {
		t.Errorf("err = %v, want ErrTruncated", err)
	}
}

func TestCaptureEventRoundTrip(t *testing.T) {
	ev := &CaptureEvent{
		Type:    PacketMgmt,
		RSSI:    -42,
		Channel: 11,
		Rate:    12,
		SigMode: 1,
		RxState: 0,
		Data:    []byte{0x80, 0x00, 0x00, 0x00, 0xFF, 0xFF},
	}

	data := EncodeCaptureEvent(ev)
	if len(data) != CaptureEventHeaderSize+len(ev.Data) {
		t.Fatalf("encoded size = %d, want %d", len(data), CaptureEventHeaderSize+len(ev.Data))
	}

	got, err := DecodeCaptureEvent(data)
	if err != nil {
		t.Fatalf("DecodeCaptureEvent failed: %v", err)
	}
	if got.Type != ev.Type || got.RSSI != ev.RSSI || got.Channel != ev.Channel {
		t.Errorf("decoded header = %+v, want %+v", got, ev)
	}
	if !bytes.Equal(got.Data, ev.Data) {
		t.Errorf("decoded data = % X, want % X", got.Data, ev.Data)
	}
}

func TestDecodeCaptureEventTruncation(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short header", make([]byte, CaptureEventHeaderSize-1)},
		{"declared length exceeds data", func() []byte {
			full := EncodeCaptureEvent(&CaptureEvent{Data: []byte{1, 2, 3, 4}})
			return full[:len(full)-2]
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCaptureEvent(tt.data); !errors.Is(err, ErrTruncated) {
				t.Errorf("err = %v, want ErrTruncated", err)
			}
		})
	}
}

func TestInject80211Bounds(t *testing.T) {
	if _, err := EncodeInject80211(&Inject80211{Ifx: InterfaceSTA}); !errors.Is(err, ErrInvalidField) {
		t.Errorf("empty frame: err = %v, want ErrInvalidField", err)
	}

	big := make([]byte, MaxInjectFrameSize+1)
	if _, err := EncodeInject80211(&Inject80211{Ifx: InterfaceSTA, Data: big}); !errors.Is(err, ErrInvalidField) {
		t.Errorf("oversize frame: err = %v, want ErrInvalidField", err)
	}

	max := make([]byte, MaxInjectFrameSize)
	data, err := EncodeInject80211(&Inject80211{Ifx: InterfaceAP, OverwriteSeq: true, Data: max})
	if err != nil {
		t.Fatalf("max-size frame rejected: %v", err)
	}
	got, err := DecodeInject80211(data)
	if err != nil {
		t.Fatalf("DecodeInject80211 failed: %v", err)
	}
	if got.Ifx != InterfaceAP || !got.OverwriteSeq || len(got.Data) != MaxInjectFrameSize {
		t.Errorf("decoded = ifx=%v seq=%v len=%d", got.Ifx, got.OverwriteSeq, len(got.Data))
	}
}

func TestOTAWriteRoundTrip(t *testing.T) {
	chunk := bytes.Repeat([]byte{0xAB}, 1400)
	data, err := EncodeOTAWrite(&OTAWrite{Data: chunk})
	if err != nil {
		t.Fatalf("EncodeOTAWrite failed: %v", err)
	}
	got, err := DecodeOTAWrite(data)
	if err != nil {
		t.Fatalf("DecodeOTAWrite failed: %v", err)
	}
	if !bytes.Equal(got.Data, chunk) {
		t.Error("decoded chunk differs from input")
	}
}

func TestTagRanges(t *testing.T) {
	if !TagSetPromiscuous.IsCommand() || TagSetPromiscuous.IsResponse() || TagSetPromiscuous.IsEvent() {
		t.Error("TagSetPromiscuous should classify as a command only")
	}
	if !TagCmdResponse.IsResponse() || TagCmdResponse.IsCommand() {
		t.Error("TagCmdResponse should classify as a response only")
	}
	if !TagCaptureEvent.IsEvent() || TagCaptureEvent.IsResponse() {
		t.Error("TagCaptureEvent should classify as an event only")
	}
	if !TagOTAActivate.IsCommand() {
		t.Error("TagOTAActivate should classify as a command")
	}
}
