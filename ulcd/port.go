package ulcd

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is an open serial endpoint owned by a Connection.
//
// Read must honor the timeout set by SetReadTimeout. A timed-out read returns
// (0, nil), which is the contract of go.bug.st/serial; returning an error that
// matches os.ErrDeadlineExceeded is also accepted.
type Port interface {
	io.ReadWriteCloser
	// SetReadTimeout bounds the next Read calls.
	SetReadTimeout(t time.Duration) error
	// Drain blocks until all written data has been transmitted.
	Drain() error
	// SetBaudRate changes the local line speed. Data still in the output
	// queue may be sent at the new speed, so callers drain first.
	SetBaudRate(rate int) error
	// ResetInputBuffer discards data received but not yet read.
	ResetInputBuffer() error
}

// PortOpener acquires the serial device at the given line speed.
type PortOpener func(device string, rate int) (Port, error)

// serialPort adapts a go.bug.st/serial port to Port.
type serialPort struct {
	serial.Port
	mode serial.Mode
}

var _ Port = (*serialPort)(nil)

// lineMode returns the 8N1 mode used by the display. Flow control is off and
// the driver opens the device in raw mode.
func lineMode(rate int) serial.Mode {
	return serial.Mode{
		BaudRate: rate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// OpenSerialPort is the default PortOpener. It opens device in raw 8N1 mode.
func OpenSerialPort(device string, rate int) (Port, error) {
	mode := lineMode(rate)

	p, err := serial.Open(device, &mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}

	return &serialPort{Port: p, mode: mode}, nil
}

func (p *serialPort) SetBaudRate(rate int) error {
	mode := p.mode
	mode.BaudRate = rate
	if err := p.Port.SetMode(&mode); err != nil {
		return err
	}
	p.mode = mode

	return nil
}
