package display

import (
	"errors"

	"github.com/arloliu/go-ulcd/ulcd"
)

// ErrInvalidArgument is returned when a builder parameter is outside the range the device accepts.
var ErrInvalidArgument = errors.New("display: invalid argument")

// Device is the part of *ulcd.Connection the command builders need.
type Device interface {
	SendAndAck(frame ulcd.Frame) error
	Command(opcode uint16, params ...uint16) error
	CommandWord(opcode uint16, params ...uint16) (uint16, error)
	SendAndAckWord(frame ulcd.Frame) (uint16, error)
	ReadExact(n int) ([]byte, error)
}

var _ Device = (*ulcd.Connection)(nil)

// Display issues serial commands to a display through a Device.
//
// Display keeps no state besides the device; it is as safe for concurrent use
// as the Device it wraps.
type Display struct {
	dev Device
}

// New returns a Display sending its commands through dev.
func New(dev Device) *Display {
	return &Display{dev: dev}
}

// Point is a screen coordinate in pixels.
type Point struct {
	X uint16
	Y uint16
}

// Color is a 16-bit RGB565 color value.
type Color uint16

// RGB converts 8-bit color channels to RGB565.
func RGB(r, g, b uint8) Color {
	return Color(uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3))
}

// Common colors.
const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)
