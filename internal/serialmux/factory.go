package serialmux

import (
	"fmt"

	"go.bug.st/serial"
)

// Open creates a Mux backed by a real serial port at the given path.
func Open(path string, baudRate int) (*Mux, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	return New(port), nil
}

// ListPorts returns the serial ports currently present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
