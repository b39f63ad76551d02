package transport

import (
	"fmt"

	"github.com/tarm/serial"
)

// DefaultBaud is the default serial baud rate for the coprocessor UART
// bridge.
const DefaultBaud = 921600

// SerialConfig describes the serial port the coprocessor is reachable on.
type SerialConfig struct {
	// Port is the device path, e.g. /dev/ttyUSB0.
	Port string

	// Baud is the baud rate. Zero selects DefaultBaud.
	Baud int
}

// OpenSerial opens the configured serial port and returns a link over it.
// Reads block until data arrives; Close unblocks the delivery goroutine.
func OpenSerial(cfg SerialConfig, opts ...Option) (*StreamLink, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("serial: port not configured")
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name: cfg.Port,
		Baud: cfg.Baud,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Port, err)
	}

	return NewStreamLink(port, opts...), nil
}
