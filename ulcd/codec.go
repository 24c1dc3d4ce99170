package ulcd

import (
	"encoding/binary"
)

// WordSize is the size in bytes of an opcode or parameter word on the wire.
const WordSize = 2

// MaxFrameSize is the size of the per-connection frame buffer.
const MaxFrameSize = 4096

// Frame is an encoded command: an opcode word followed by zero or more parameter words.
type Frame []byte

// NewFrame encodes opcode and params into a newly allocated Frame.
func NewFrame(opcode uint16, params ...uint16) Frame {
	buf := make([]byte, 0, WordSize*(len(params)+1))
	buf = AppendWords(buf, opcode)

	return AppendWords(buf, params...)
}

// Opcode returns the opcode word of the frame, or 0 if the frame is shorter than a word.
func (f Frame) Opcode() uint16 {
	if len(f) < WordSize {
		return 0
	}

	return DecodeWord(f)
}

// EncodeWord returns v in wire byte order (big-endian).
func EncodeWord(v uint16) [WordSize]byte {
	var b [WordSize]byte
	binary.BigEndian.PutUint16(b[:], v)

	return b
}

// PutWord writes v into dst in wire byte order and returns the number of bytes written.
// It panics if dst is shorter than WordSize.
func PutWord(dst []byte, v uint16) int {
	binary.BigEndian.PutUint16(dst, v)
	return WordSize
}

// DecodeWord decodes the first two bytes of b.
// It panics if b is shorter than WordSize.
func DecodeWord(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// EncodeWords writes values into dst in order, without delimiters, and returns the
// number of bytes written. It fails if dst cannot hold all values.
func EncodeWords(dst []byte, values ...uint16) (int, error) {
	need := len(values) * WordSize
	if need > len(dst) {
		return 0, configError("encode", "%d words need %d bytes, buffer holds %d", len(values), need, len(dst))
	}

	n := 0
	for _, v := range values {
		n += PutWord(dst[n:], v)
	}

	return n, nil
}

// AppendWords appends values to dst in wire byte order.
func AppendWords(dst []byte, values ...uint16) []byte {
	for _, v := range values {
		dst = binary.BigEndian.AppendUint16(dst, v)
	}

	return dst
}
