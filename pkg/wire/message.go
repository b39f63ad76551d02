package wire

import "fmt"

// Size limits, fixed by the remote's capabilities.
const (
	// MaxInjectFrameSize is the largest 802.11 frame the remote will inject.
	MaxInjectFrameSize = 4000

	// CmdResponseSize is the fixed size of a CmdResponse payload.
	CmdResponseSize = 6

	// CaptureEventHeaderSize is the fixed header size of a CaptureEvent
	// payload, before the trailing frame data.
	CaptureEventHeaderSize = 14
)

// SetPromiscuous enables or disables monitor mode on the remote.
//
// Layout (1 byte):
//
//	enable: u8    1 = enable, 0 = disable
type SetPromiscuous struct {
	Enable bool
}

// SetChannel sets the monitoring channel.
//
// Layout (2 bytes):
//
//	primary:   u8    channel 1-14
//	secondary: u8    0 = none, 1 = above, 2 = below
type SetChannel struct {
	Primary   uint8
	Secondary SecondaryChannel
}

// Validate checks the channel numbers.
func (m *SetChannel) Validate() error {
	if m.Primary < 1 || m.Primary > 14 {
		return fmt.Errorf("%w: primary channel %d", ErrInvalidField, m.Primary)
	}
	if !m.Secondary.IsValid() {
		return fmt.Errorf("%w: secondary channel %d", ErrInvalidField, m.Secondary)
	}
	return nil
}

// SetFilter sets the capture filter mask.
//
// Layout (4 bytes):
//
//	filter_mask: u32    Filter* bits
type SetFilter struct {
	FilterMask uint32
}

// Inject80211 transmits one raw 802.11 frame, MAC header included.
//
// Layout (4 bytes + data):
//
//	ifx:           u8     0 = STA, 1 = AP
//	overwrite_seq: u8     1 = driver assigns the sequence number
//	len:           u16    frame length
//	data:          bytes  raw 802.11 frame
type Inject80211 struct {
	Ifx          Interface
	OverwriteSeq bool
	Data         []byte
}

// Validate checks the interface and frame bounds.
func (m *Inject80211) Validate() error {
	if !m.Ifx.IsValid() {
		return fmt.Errorf("%w: interface %d", ErrInvalidField, m.Ifx)
	}
	if len(m.Data) == 0 {
		return fmt.Errorf("%w: empty frame", ErrInvalidField)
	}
	if len(m.Data) > MaxInjectFrameSize {
		return fmt.Errorf("%w: frame length %d exceeds %d",
			ErrInvalidField, len(m.Data), MaxInjectFrameSize)
	}
	return nil
}

// CmdResponse is the remote's reply to any command.
//
// Layout (6 bytes):
//
//	echoed_tag: u16    tag of the command being answered
//	status:     i32    remote status code, 0 = OK
type CmdResponse struct {
	EchoedTag Tag
	Status    Status
}

// CaptureEvent is one captured frame, delivered while monitor mode is on.
//
// Layout (14 bytes + data):
//
//	type:     u32    packet classification
//	rssi:     i8     signal strength
//	channel:  u8     channel the frame was received on
//	rate:     u8     data rate
//	sig_mode: u8     0 = non-HT, 1 = HT, 3 = VHT
//	rx_state: u32    receive state, 0 = no error
//	len:      u16    frame length
//	data:     bytes  raw 802.11 frame
type CaptureEvent struct {
	Type    PacketType
	RSSI    int8
	Channel uint8
	Rate    uint8
	SigMode uint8
	RxState uint32
	Data    []byte
}

// OTABegin opens a firmware transfer session.
//
// Layout (4 bytes):
//
//	image_len: u32    total image length, 0 = unknown
type OTABegin struct {
	ImageLen uint32
}

// OTAWrite appends one chunk of image data.
//
// Layout (2 bytes + data):
//
//	len:  u16    chunk length
//	data: bytes  image chunk
type OTAWrite struct {
	Data []byte
}

// OTAEnd finalizes the transfer. The remote validates the received image
// before answering. Empty payload.
type OTAEnd struct{}

// OTAActivate marks the validated image as the boot image. Empty payload.
type OTAActivate struct{}
