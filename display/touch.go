package display

// TouchSet modes.
const (
	touchSetInit    uint16 = 0
	touchSetDisable uint16 = 1
	touchSetReset   uint16 = 2
)

// TouchGet modes.
const (
	touchGetStatus uint16 = 0
	touchGetX      uint16 = 1
	touchGetY      uint16 = 2
)

// TouchStatus is the state of the touch panel as reported by the device.
type TouchStatus uint16

const (
	NoTouch TouchStatus = iota
	TouchPress
	TouchRelease
	TouchMoving
)

func (s TouchStatus) String() string {
	switch s {
	case NoTouch:
		return "NoTouch"
	case TouchPress:
		return "Press"
	case TouchRelease:
		return "Release"
	case TouchMoving:
		return "Moving"
	default:
		return "Unknown"
	}
}

// TouchEvent is a touch status with the coordinates of the touch. Point is
// zero when Status is NoTouch.
type TouchEvent struct {
	Status TouchStatus
	Point  Point
}

// TouchDetectRegion limits touch detection to the rectangle spanned by p1 and p2.
func (d *Display) TouchDetectRegion(p1, p2 Point) error {
	return d.dev.Command(OpTouchDetectRegion, p1.X, p1.Y, p2.X, p2.Y)
}

// TouchInit enables the touch panel.
func (d *Display) TouchInit() error {
	return d.dev.Command(OpTouchSet, touchSetInit)
}

// TouchDisable disables the touch panel.
func (d *Display) TouchDisable() error {
	return d.dev.Command(OpTouchSet, touchSetDisable)
}

// TouchReset resets the detect region to the full screen.
func (d *Display) TouchReset() error {
	return d.dev.Command(OpTouchSet, touchSetReset)
}

// TouchStatus returns the current touch status.
func (d *Display) TouchStatus() (TouchStatus, error) {
	v, err := d.dev.CommandWord(OpTouchGet, touchGetStatus)
	return TouchStatus(v), err
}

// TouchEvent polls the status and, if the panel is touched, the coordinates.
func (d *Display) TouchEvent() (TouchEvent, error) {
	var ev TouchEvent

	status, err := d.TouchStatus()
	if err != nil {
		return ev, err
	}
	ev.Status = status
	if status == NoTouch {
		return ev, nil
	}

	if ev.Point.X, err = d.dev.CommandWord(OpTouchGet, touchGetX); err != nil {
		return TouchEvent{}, err
	}
	if ev.Point.Y, err = d.dev.CommandWord(OpTouchGet, touchGetY); err != nil {
		return TouchEvent{}, err
	}

	return ev, nil
}
