package wire

import "fmt"

// SecondaryChannel selects the secondary channel position for wide channels.
type SecondaryChannel uint8

const (
	// SecondaryNone uses a 20 MHz channel with no secondary.
	SecondaryNone SecondaryChannel = 0

	// SecondaryAbove places the secondary channel above the primary.
	SecondaryAbove SecondaryChannel = 1

	// SecondaryBelow places the secondary channel below the primary.
	SecondaryBelow SecondaryChannel = 2
)

// IsValid reports whether the value is a defined secondary channel position.
func (s SecondaryChannel) IsValid() bool {
	return s <= SecondaryBelow
}

// String returns the secondary channel position name.
func (s SecondaryChannel) String() string {
	switch s {
	case SecondaryNone:
		return "NONE"
	case SecondaryAbove:
		return "ABOVE"
	case SecondaryBelow:
		return "BELOW"
	default:
		return "UNKNOWN"
	}
}

// Interface selects which remote radio interface a frame is injected on.
type Interface uint8

const (
	// InterfaceSTA injects on the station interface.
	InterfaceSTA Interface = 0

	// InterfaceAP injects on the access-point interface.
	InterfaceAP Interface = 1
)

// IsValid reports whether the value is a defined interface.
func (i Interface) IsValid() bool {
	return i <= InterfaceAP
}

// String returns the interface name.
func (i Interface) String() string {
	switch i {
	case InterfaceSTA:
		return "STA"
	case InterfaceAP:
		return "AP"
	default:
		return "UNKNOWN"
	}
}

// PacketType classifies a captured frame.
type PacketType uint32

const (
	// PacketMgmt is an 802.11 management frame.
	PacketMgmt PacketType = 0

	// PacketCtrl is an 802.11 control frame.
	PacketCtrl PacketType = 1

	// PacketData is an 802.11 data frame.
	PacketData PacketType = 2

	// PacketMisc is anything the remote could not classify.
	PacketMisc PacketType = 3
)

// String returns the packet type name.
func (p PacketType) String() string {
	switch p {
	case PacketMgmt:
		return "MGMT"
	case PacketCtrl:
		return "CTRL"
	case PacketData:
		return "DATA"
	case PacketMisc:
		return "MISC"
	default:
		return fmt.Sprintf("TYPE(%d)", uint32(p))
	}
}

// Capture filter mask bits. Combine with bitwise OR for SetFilter.
const (
	// FilterMgmt captures management frames.
	FilterMgmt uint32 = 1 << 0

	// FilterCtrl captures control frames.
	FilterCtrl uint32 = 1 << 1

	// FilterData captures data frames.
	FilterData uint32 = 1 << 2

	// FilterMisc captures frames of other types.
	FilterMisc uint32 = 1 << 3

	// FilterDataMPDU captures MPDU data frames.
	FilterDataMPDU uint32 = 1 << 4

	// FilterDataAMPDU captures AMPDU data frames.
	FilterDataAMPDU uint32 = 1 << 5

	// FilterAll captures every frame type.
	FilterAll uint32 = 0xFFFFFFFF
)

// FilterNames maps filter name strings to mask bits, for CLI parsing.
var FilterNames = map[string]uint32{
	"mgmt":  FilterMgmt,
	"ctrl":  FilterCtrl,
	"data":  FilterData,
	"misc":  FilterMisc,
	"mpdu":  FilterDataMPDU,
	"ampdu": FilterDataAMPDU,
	"all":   FilterAll,
}
