package display

import (
	"strings"
	"unicode/utf8"

	"github.com/arloliu/go-ulcd/ulcd"
)

// MaxStringLength is the longest string in bytes that PutString sends.
const MaxStringLength = 511

// MoveCursor moves the text cursor to line and column, counted in characters
// of the current font.
func (d *Display) MoveCursor(line, column uint16) error {
	return d.dev.Command(OpMoveCursor, line, column)
}

// PutString prints s at the cursor and returns the number of characters the
// device printed. The string is sent NUL terminated.
//
// The device reads a string up to the first NUL, so s is cut at an embedded
// NUL. Input longer than MaxStringLength bytes is truncated at the last rune
// boundary that fits.
func (d *Display) PutString(s string) (int, error) {
	s = clipString(s)

	frame := make(ulcd.Frame, 0, ulcd.WordSize+len(s)+1)
	frame = ulcd.AppendWords(frame, OpPutString)
	frame = append(frame, s...)
	frame = append(frame, 0)

	n, err := d.dev.SendAndAckWord(frame)
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

// clipString returns the part of s the device can print as one string.
func clipString(s string) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	if len(s) <= MaxStringLength {
		return s
	}

	cut := MaxStringLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut]
}
