package ulcd

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error reported by a Connection.
type Kind int

const (
	// KindNone is the kind of a successful operation.
	KindNone Kind = iota
	// KindConfiguration covers unsupported baud rates, invalid options and
	// operations on a connection that is not open.
	KindConfiguration
	// KindOpen is reported when the serial device cannot be acquired or released.
	KindOpen
	// KindWrite is reported when the serial device rejects a write.
	KindWrite
	// KindRead is reported when a read fails for a reason other than a timeout.
	KindRead
	// KindTimeout is reported when a read attempt exceeded its bound.
	KindTimeout
	// KindNak is reported when the device answered NAK.
	KindNak
	// KindProtocol is reported when the device answered with an unrecognized byte.
	KindProtocol
	// KindResyncFailed is reported when the resynchronization attempts are exhausted.
	KindResyncFailed
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindConfiguration:
		return "ConfigurationError"
	case KindOpen:
		return "OpenError"
	case KindWrite:
		return "WriteError"
	case KindRead:
		return "ReadError"
	case KindTimeout:
		return "TimeoutError"
	case KindNak:
		return "NakError"
	case KindProtocol:
		return "ProtocolError"
	case KindResyncFailed:
		return "ResyncFailed"
	default:
		return "Unknown"
	}
}

// Sentinel errors, one per Kind. Every *Error matches the sentinel of its kind with errors.Is.
var (
	ErrConfiguration = errors.New("ulcd: configuration error")
	ErrOpen          = errors.New("ulcd: open error")
	ErrWrite         = errors.New("ulcd: write error")
	ErrRead          = errors.New("ulcd: read error")
	ErrTimeout       = errors.New("ulcd: read timeout")
	ErrNak           = errors.New("ulcd: device sent NAK")
	ErrProtocol      = errors.New("ulcd: unknown reply")
	ErrResyncFailed  = errors.New("ulcd: resynchronization failed")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfiguration:
		return ErrConfiguration
	case KindOpen:
		return ErrOpen
	case KindWrite:
		return ErrWrite
	case KindRead:
		return ErrRead
	case KindTimeout:
		return ErrTimeout
	case KindNak:
		return ErrNak
	case KindProtocol:
		return ErrProtocol
	case KindResyncFailed:
		return ErrResyncFailed
	default:
		return nil
	}
}

// Phase tells which step of a command exchange failed.
type Phase int

const (
	PhaseNone    Phase = iota // not part of a command exchange
	PhaseWrite                // writing the command frame
	PhaseAck                  // reading the acknowledgment byte
	PhasePayload              // reading the payload that follows an ACK
)

func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseWrite:
		return "write"
	case PhaseAck:
		return "ack"
	case PhasePayload:
		return "payload"
	default:
		return "unknown"
	}
}

// Error is the error type returned by all Connection operations.
type Error struct {
	Kind   Kind
	Phase  Phase
	Op     string // operation that failed, e.g. "send", "set baud rate"
	Detail string // human-readable detail
	Err    error  // underlying cause, may be nil
}

func newError(kind Kind, op string, detail string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: cause}
}

func configError(op string, format string, args ...any) *Error {
	return newError(KindConfiguration, op, fmt.Sprintf(format, args...), nil)
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("ulcd: ")
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Detail)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}

	return errs
}

// withPhase sets the exchange phase on err if it is an *Error and returns err.
func withPhase(err error, phase Phase) error {
	var e *Error
	if errors.As(err, &e) {
		e.Phase = phase
	}

	return err
}

// ReplyError carries the byte the device sent instead of ACK or NAK.
type ReplyError struct {
	Reply byte
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("unexpected reply byte 0x%02X", e.Reply)
}

// KindOf returns the Kind of err, KindNone for nil and for errors not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindNone
}
