package display

import "fmt"

// Info describes the connected display.
type Info struct {
	Model       string
	SPEVersion  uint16
	PmmCVersion uint16
}

// Model returns the display model name, e.g. "uLCD-43PT".
//
// The device answers with a length word followed by that many characters.
func (d *Display) Model() (string, error) {
	size, err := d.dev.CommandWord(OpGetDisplayModel)
	if err != nil {
		return "", err
	}

	name, err := d.dev.ReadExact(int(size))
	if err != nil {
		return "", fmt.Errorf("display: model name of %d bytes: %w", size, err)
	}

	return string(name), nil
}

// SPEVersion returns the version of the SPE environment running on the display.
func (d *Display) SPEVersion() (uint16, error) {
	return d.dev.CommandWord(OpGetSPEVersion)
}

// PmmCVersion returns the version of the display's PmmC firmware.
func (d *Display) PmmCVersion() (uint16, error) {
	return d.dev.CommandWord(OpGetPmmCVersion)
}

// Info queries model, SPE version and PmmC version in that order.
func (d *Display) Info() (Info, error) {
	var info Info
	var err error

	if info.Model, err = d.Model(); err != nil {
		return Info{}, err
	}
	if info.SPEVersion, err = d.SPEVersion(); err != nil {
		return Info{}, err
	}
	if info.PmmCVersion, err = d.PmmCVersion(); err != nil {
		return Info{}, err
	}

	return info, nil
}
