package wire

import "fmt"

// Tag identifies a message's type on the link.
type Tag uint16

// Command tags (host → remote).
const (
	// TagSetPromiscuous enables or disables monitor mode on the remote.
	TagSetPromiscuous Tag = 0x0100

	// TagSetChannel sets the radio channel used for monitoring.
	TagSetChannel Tag = 0x0101

	// TagSetFilter sets the capture filter mask.
	TagSetFilter Tag = 0x0102

	// TagInject80211 transmits a raw 802.11 frame.
	TagInject80211 Tag = 0x0103

	// TagOTABegin opens a firmware transfer session on the remote.
	TagOTABegin Tag = 0x0110

	// TagOTAWrite appends one chunk of firmware data.
	TagOTAWrite Tag = 0x0111

	// TagOTAEnd finalizes the transfer; the remote validates the image.
	TagOTAEnd Tag = 0x0112

	// TagOTAActivate marks the transferred image as the boot image.
	TagOTAActivate Tag = 0x0113
)

// Response and event tags (remote → host).
const (
	// TagCmdResponse carries the status reply for any command tag.
	TagCmdResponse Tag = 0x0180

	// TagCaptureEvent carries one captured frame while monitor mode is on.
	TagCaptureEvent Tag = 0x0200
)

// Tag range boundaries.
const (
	commandTagMin  Tag = 0x0100
	commandTagMax  Tag = 0x017F
	responseTagMin Tag = 0x0180
	responseTagMax Tag = 0x01FF
	eventTagMin    Tag = 0x0200
	eventTagMax    Tag = 0x027F
)

// IsCommand reports whether t lies in the host→remote command range.
func (t Tag) IsCommand() bool {
	return t >= commandTagMin && t <= commandTagMax
}

// IsResponse reports whether t lies in the remote→host response range.
func (t Tag) IsResponse() bool {
	return t >= responseTagMin && t <= responseTagMax
}

// IsEvent reports whether t lies in the unsolicited event range.
func (t Tag) IsEvent() bool {
	return t >= eventTagMin && t <= eventTagMax
}

// String returns the tag name, or its hex value for unknown tags.
func (t Tag) String() string {
	switch t {
	case TagSetPromiscuous:
		return "SET_PROMISCUOUS"
	case TagSetChannel:
		return "SET_CHANNEL"
	case TagSetFilter:
		return "SET_FILTER"
	case TagInject80211:
		return "INJECT_80211"
	case TagOTABegin:
		return "OTA_BEGIN"
	case TagOTAWrite:
		return "OTA_WRITE"
	case TagOTAEnd:
		return "OTA_END"
	case TagOTAActivate:
		return "OTA_ACTIVATE"
	case TagCmdResponse:
		return "CMD_RESPONSE"
	case TagCaptureEvent:
		return "CAPTURE_EVENT"
	default:
		return fmt.Sprintf("0x%04X", uint16(t))
	}
}
