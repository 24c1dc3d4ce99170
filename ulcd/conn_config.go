package ulcd

import (
	"time"

	"github.com/arloliu/go-ulcd/logger"
)

// Default connection parameters, taken from the display's power-on configuration.
const (
	DefaultBaudRate       = 9600
	DefaultTimeout        = 500 * time.Millisecond // per read attempt
	DefaultResyncTimeout  = 10 * time.Millisecond  // per read attempt while hunting the resync marker
	DefaultResyncAttempts = 10
	DefaultSettleDelay    = 200 * time.Millisecond // device retrain time after a baud change
)

// Range limits for the options below.
const (
	MinTimeout = time.Millisecond
	MaxTimeout = time.Minute

	MinResyncTimeout = time.Millisecond
	MaxResyncTimeout = 5 * time.Second

	MaxResyncAttempts = 1000

	MaxSettleDelay = 5 * time.Second
)

// TimeoutPolicy selects how the read timeout bounds a multi-chunk read.
type TimeoutPolicy int

const (
	// PerAttemptTimeout re-arms the timeout before every read call. A reply that
	// trickles in chunk by chunk may take longer than the timeout in total.
	PerAttemptTimeout TimeoutPolicy = iota
	// WholeCallTimeout treats the timeout as a deadline for the complete read.
	WholeCallTimeout
)

func (p TimeoutPolicy) String() string {
	switch p {
	case PerAttemptTimeout:
		return "per_attempt"
	case WholeCallTimeout:
		return "whole_call"
	default:
		return "unknown"
	}
}

// ParseTimeoutPolicy parses the names returned by TimeoutPolicy.String.
func ParseTimeoutPolicy(s string) (TimeoutPolicy, error) {
	switch s {
	case "per_attempt":
		return PerAttemptTimeout, nil
	case "whole_call":
		return WholeCallTimeout, nil
	default:
		return 0, configError("config", "unknown timeout policy %q", s)
	}
}

// BaudAckPolicy selects the line speed at which the SET_BAUD_RATE acknowledgment is read.
type BaudAckPolicy int

const (
	// BaudAckAtNewSpeed writes the command at the current speed, switches the
	// local port, waits for the settle delay and then reads the ACK.
	BaudAckAtNewSpeed BaudAckPolicy = iota
	// BaudAckAtOldSpeed reads the ACK at the current speed, then switches the
	// local port and waits for the settle delay.
	BaudAckAtOldSpeed
)

func (p BaudAckPolicy) String() string {
	switch p {
	case BaudAckAtNewSpeed:
		return "new_speed"
	case BaudAckAtOldSpeed:
		return "old_speed"
	default:
		return "unknown"
	}
}

// ParseBaudAckPolicy parses the names returned by BaudAckPolicy.String.
func ParseBaudAckPolicy(s string) (BaudAckPolicy, error) {
	switch s {
	case "new_speed":
		return BaudAckAtNewSpeed, nil
	case "old_speed":
		return BaudAckAtOldSpeed, nil
	default:
		return 0, configError("config", "unknown baud ack policy %q", s)
	}
}

// Direction tells whether traced bytes were sent to or received from the device.
type Direction int

const (
	DirSend Direction = iota
	DirRecv
)

func (d Direction) String() string {
	if d == DirSend {
		return "send"
	}

	return "recv"
}

// TraceFunc observes every chunk of bytes written to or read from the device.
// data must not be retained after the call returns.
type TraceFunc func(dir Direction, data []byte)

// ConnectionConfig holds the configuration of a display connection.
type ConnectionConfig struct {
	device string
	baud   BaudEntry

	timeout       time.Duration
	timeoutPolicy TimeoutPolicy

	resyncTimeout  time.Duration
	resyncAttempts int
	resyncDrain    bool
	resyncOnOpen   bool

	settleDelay   time.Duration
	baudAckPolicy BaudAckPolicy

	opener PortOpener
	trace  TraceFunc
	logger logger.Logger
}

// NewConnectionConfig creates a configuration for the serial device at path device.
//
// opts are functional options applied in order; see With* functions.
func NewConnectionConfig(device string, opts ...ConnOption) (*ConnectionConfig, error) {
	if device == "" {
		return nil, configError("config", "device must not be empty")
	}

	baud, err := LookupBaud(DefaultBaudRate)
	if err != nil {
		return nil, err
	}

	cfg := &ConnectionConfig{
		device:         device,
		baud:           baud,
		timeout:        DefaultTimeout,
		timeoutPolicy:  PerAttemptTimeout,
		resyncTimeout:  DefaultResyncTimeout,
		resyncAttempts: DefaultResyncAttempts,
		resyncDrain:    true,
		settleDelay:    DefaultSettleDelay,
		baudAckPolicy:  BaudAckAtNewSpeed,
		opener:         OpenSerialPort,
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// --- Getters ---

// Device returns the serial device path.
func (cfg *ConnectionConfig) Device() string { return cfg.device }

// BaudRate returns the initial logical line speed.
func (cfg *ConnectionConfig) BaudRate() int { return cfg.baud.Rate }

// Timeout returns the read timeout.
func (cfg *ConnectionConfig) Timeout() time.Duration { return cfg.timeout }

// TimeoutPolicy returns how the read timeout is applied.
func (cfg *ConnectionConfig) TimeoutPolicy() TimeoutPolicy { return cfg.timeoutPolicy }

// ResyncTimeout returns the per-read timeout used while resynchronizing.
func (cfg *ConnectionConfig) ResyncTimeout() time.Duration { return cfg.resyncTimeout }

// ResyncAttempts returns the number of zero bytes sent before giving up on resynchronization.
func (cfg *ConnectionConfig) ResyncAttempts() int { return cfg.resyncAttempts }

// ResyncDrain reports whether bytes following the resync marker are discarded.
func (cfg *ConnectionConfig) ResyncDrain() bool { return cfg.resyncDrain }

// ResyncOnOpen reports whether Open resynchronizes the link.
func (cfg *ConnectionConfig) ResyncOnOpen() bool { return cfg.resyncOnOpen }

// SettleDelay returns the pause after a baud rate change.
func (cfg *ConnectionConfig) SettleDelay() time.Duration { return cfg.settleDelay }

// BaudAckPolicy returns the line speed at which the baud change is acknowledged.
func (cfg *ConnectionConfig) BaudAckPolicy() BaudAckPolicy { return cfg.baudAckPolicy }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithBaudRate sets the line speed used when the device is opened.
// The rate must be present in the baud table.
func WithBaudRate(rate int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		entry, err := LookupBaud(rate)
		if err != nil {
			return err
		}
		cfg.baud = entry

		return nil
	})
}

// WithTimeout sets the read timeout.
func WithTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if err := checkTimeout(d); err != nil {
			return err
		}
		cfg.timeout = d

		return nil
	})
}

// WithTimeoutPolicy selects how the read timeout bounds multi-chunk reads.
// PerAttemptTimeout is the default.
func WithTimeoutPolicy(p TimeoutPolicy) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if p != PerAttemptTimeout && p != WholeCallTimeout {
			return configError("config", "unknown timeout policy %d", p)
		}
		cfg.timeoutPolicy = p

		return nil
	})
}

// WithResyncTimeout sets the per-read timeout used while hunting the resync marker.
func WithResyncTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < MinResyncTimeout || d > MaxResyncTimeout {
			return configError("config", "resync timeout %v out of range [%v, %v]", d, MinResyncTimeout, MaxResyncTimeout)
		}
		cfg.resyncTimeout = d

		return nil
	})
}

// WithResyncAttempts sets how many zero bytes Reset sends before failing.
func WithResyncAttempts(n int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if n < 1 || n > MaxResyncAttempts {
			return configError("config", "resync attempts %d out of range [1, %d]", n, MaxResyncAttempts)
		}
		cfg.resyncAttempts = n

		return nil
	})
}

// WithResyncDrain enables or disables discarding the bytes that follow the resync marker.
// Enabled by default.
func WithResyncDrain(enabled bool) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.resyncDrain = enabled

		return nil
	})
}

// WithResyncOnOpen makes Open resynchronize the link before returning. Some
// serial adapters leave garbage in the device's receive buffer on open.
func WithResyncOnOpen(enabled bool) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.resyncOnOpen = enabled

		return nil
	})
}

// WithSettleDelay sets the pause after switching the line speed.
func WithSettleDelay(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d < 0 || d > MaxSettleDelay {
			return configError("config", "settle delay %v out of range [0, %v]", d, MaxSettleDelay)
		}
		cfg.settleDelay = d

		return nil
	})
}

// WithBaudAckPolicy selects the line speed at which the baud change is acknowledged.
// BaudAckAtNewSpeed is the default.
func WithBaudAckPolicy(p BaudAckPolicy) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if p != BaudAckAtNewSpeed && p != BaudAckAtOldSpeed {
			return configError("config", "unknown baud ack policy %d", p)
		}
		cfg.baudAckPolicy = p

		return nil
	})
}

// WithPortOpener replaces the function used to acquire the serial device.
func WithPortOpener(opener PortOpener) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if opener == nil {
			return configError("config", "port opener must not be nil")
		}
		cfg.opener = opener

		return nil
	})
}

// WithTrace installs a hook called with every chunk sent to or received from the device.
func WithTrace(fn TraceFunc) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		cfg.trace = fn

		return nil
	})
}

// WithLogger sets the logger for the connection.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return configError("config", "logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}

func checkTimeout(d time.Duration) error {
	if d < MinTimeout || d > MaxTimeout {
		return configError("config", "timeout %v out of range [%v, %v]", d, MinTimeout, MaxTimeout)
	}

	return nil
}
