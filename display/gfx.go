package display

import (
	"fmt"

	"github.com/arloliu/go-ulcd/ulcd"
)

// Contrast levels. ContrastOff turns the backlight off on displays without contrast control.
const (
	ContrastOff = 0
	ContrastMin = 1
	ContrastMax = 15
)

// ScreenMode is the display orientation.
type ScreenMode uint16

const (
	Landscape ScreenMode = iota
	LandscapeReverse
	Portrait
	PortraitReverse
)

func (m ScreenMode) String() string {
	switch m {
	case Landscape:
		return "Landscape"
	case LandscapeReverse:
		return "LandscapeReverse"
	case Portrait:
		return "Portrait"
	case PortraitReverse:
		return "PortraitReverse"
	default:
		return "Unknown"
	}
}

// ClearScreen clears the screen with the current background color.
func (d *Display) ClearScreen() error {
	return d.dev.Command(OpClearScreen)
}

// Polygon vertex limits. The upper bound is what fits in one command frame
// next to the opcode, the vertex count and the color.
const (
	MinPolygonPoints = 3
	MaxPolygonPoints = (ulcd.MaxFrameSize - 3*ulcd.WordSize) / (2 * ulcd.WordSize)
)

// Circle draws the outline of a circle around center.
func (d *Display) Circle(center Point, radius uint16, color Color) error {
	return d.dev.Command(OpCircle, center.X, center.Y, radius, uint16(color))
}

// FilledCircle draws a solid circle around center.
func (d *Display) FilledCircle(center Point, radius uint16, color Color) error {
	return d.dev.Command(OpCircleFilled, center.X, center.Y, radius, uint16(color))
}

// Rectangle draws the outline of the rectangle spanned by p1 and p2.
func (d *Display) Rectangle(p1, p2 Point, color Color) error {
	return d.dev.Command(OpRectangle, p1.X, p1.Y, p2.X, p2.Y, uint16(color))
}

// FilledRectangle draws the solid rectangle spanned by p1 and p2.
func (d *Display) FilledRectangle(p1, p2 Point, color Color) error {
	return d.dev.Command(OpRectangleFilled, p1.X, p1.Y, p2.X, p2.Y, uint16(color))
}

// Polygon draws the closed outline through points.
func (d *Display) Polygon(points []Point, color Color) error {
	return d.polygon(OpPolygon, points, color)
}

// FilledPolygon draws the solid polygon through points.
func (d *Display) FilledPolygon(points []Point, color Color) error {
	return d.polygon(OpPolygonFilled, points, color)
}

// polygon sends the vertex count, then all X coordinates, then all Y
// coordinates, then the color.
func (d *Display) polygon(opcode uint16, points []Point, color Color) error {
	n := len(points)
	if n < MinPolygonPoints || n > MaxPolygonPoints {
		return fmt.Errorf("%w: polygon with %d points, need [%d, %d]", ErrInvalidArgument, n, MinPolygonPoints, MaxPolygonPoints)
	}

	params := make([]uint16, 2*n+2)
	params[0] = uint16(n)
	for i, p := range points {
		params[1+i] = p.X
		params[1+n+i] = p.Y
	}
	params[2*n+1] = uint16(color)

	return d.dev.Command(opcode, params...)
}

// BitBlt copies a width x height block of pixels, row by row, to the screen
// with its top-left corner at origin. Header and pixels are acknowledged once.
func (d *Display) BitBlt(origin Point, width, height uint16, pixels []Color) error {
	if want := int(width) * int(height); want == 0 || len(pixels) != want {
		return fmt.Errorf("%w: %d pixels for a %dx%d block", ErrInvalidArgument, len(pixels), width, height)
	}

	frame := make(ulcd.Frame, 0, ulcd.WordSize*(5+len(pixels)))
	frame = ulcd.AppendWords(frame, OpBlitComToDisplay, origin.X, origin.Y, width, height)
	for _, px := range pixels {
		frame = ulcd.AppendWords(frame, uint16(px))
	}

	return d.dev.SendAndAck(frame)
}

// Contrast sets the contrast level and returns the previous one.
func (d *Display) Contrast(level int) (int, error) {
	if level < ContrastOff || level > ContrastMax {
		return 0, fmt.Errorf("%w: contrast %d out of range [%d, %d]", ErrInvalidArgument, level, ContrastOff, ContrastMax)
	}

	prev, err := d.dev.CommandWord(OpContrast, uint16(level))
	if err != nil {
		return 0, err
	}

	return int(prev), nil
}

// On turns the display on at full contrast.
func (d *Display) On() error {
	_, err := d.Contrast(ContrastMax)
	return err
}

// Off turns the display off.
func (d *Display) Off() error {
	_, err := d.Contrast(ContrastOff)
	return err
}

// SetScreenMode changes the orientation and returns the previous one.
func (d *Display) SetScreenMode(mode ScreenMode) (ScreenMode, error) {
	if mode > PortraitReverse {
		return 0, fmt.Errorf("%w: screen mode %d", ErrInvalidArgument, mode)
	}

	prev, err := d.dev.CommandWord(OpScreenMode, uint16(mode))
	if err != nil {
		return 0, err
	}

	return ScreenMode(prev), nil
}
