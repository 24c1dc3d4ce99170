package ulcd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/go-ulcd/logger"
)

// Connection is a session with one serial display.
//
// A Connection is created closed, opened once with Open, used for any number
// of command exchanges and closed with Close. Only one exchange may be in
// flight at a time: a Connection holds no lock, so callers sharing it between
// goroutines must serialize access themselves.
//
// Every public operation records its outcome; LastError returns the error of
// the most recent operation, or nil if it succeeded.
type Connection struct {
	cfg    *ConnectionConfig
	logger logger.Logger

	state atomicOpState
	// portMu orders the port handoff in Open against a concurrent Close.
	portMu sync.Mutex
	port   Port

	baud          BaudEntry
	timeout       time.Duration
	timeoutPolicy TimeoutPolicy

	lastErr  *Error
	ackState AckState

	// private scratch buffers, never shared between connections
	frameBuf [MaxFrameSize]byte
	replyBuf [WordSize]byte

	metrics ConnectionMetrics
}

// NewConnection creates a closed Connection for cfg.
func NewConnection(cfg *ConnectionConfig) (*Connection, error) {
	if cfg == nil {
		return nil, configError("new connection", "connection config is nil")
	}

	c := &Connection{
		cfg:           cfg,
		logger:        cfg.logger.With("device", cfg.device),
		baud:          cfg.baud,
		timeout:       cfg.timeout,
		timeoutPolicy: cfg.timeoutPolicy,
	}
	c.state.set(ClosedState)

	return c, nil
}

// Open acquires the serial device at the recorded baud rate.
//
// Opening an open connection is a configuration error. If the device is held
// by another Connection, or cannot be opened, Open fails with KindOpen. When
// resync-on-open is enabled and the resynchronization fails, the port is
// closed again before Open returns. A Close that runs while the device is
// being opened wins: the freshly opened port is closed and Open fails with
// KindOpen.
func (c *Connection) Open() error {
	const op = "open"

	if !c.state.toOpening() {
		return c.record(configError(op, "connection is %s", c.state.get()))
	}

	if !claimDevice(c.cfg.device, c) {
		c.state.set(ClosedState)
		return c.record(newError(KindOpen, op, fmt.Sprintf("device %s is in use by another connection", c.cfg.device), nil))
	}

	port, err := c.cfg.opener(c.cfg.device, c.baud.Rate)
	if err != nil {
		releaseDevice(c.cfg.device, c)
		c.state.set(ClosedState)

		return c.record(newError(KindOpen, op, "unable to open serial device", err))
	}

	c.portMu.Lock()
	opened := c.state.toOpened()
	if opened {
		c.port = port
	}
	c.portMu.Unlock()

	if !opened {
		if closeErr := port.Close(); closeErr != nil {
			c.logger.Warn("ulcd: close after interrupted open", "error", closeErr)
		}
		releaseDevice(c.cfg.device, c)

		return c.record(newError(KindOpen, op, "connection was closed while opening", nil))
	}

	if c.cfg.resyncOnOpen {
		if err := c.resync(); err != nil {
			if closeErr := c.close(); closeErr != nil {
				c.logger.Warn("ulcd: close after failed resync", "error", closeErr)
			}

			return c.record(err)
		}
	}

	c.logger.Info("ulcd: device opened", "baudRate", c.baud.Rate, "timeout", c.timeout, "timeoutPolicy", c.timeoutPolicy)

	return c.record(nil)
}

// Close releases the serial device. It is safe to call Close more than once;
// the port is closed exactly once.
func (c *Connection) Close() error {
	return c.record(c.close())
}

func (c *Connection) close() error {
	if !c.state.toClosing() {
		return nil
	}

	c.portMu.Lock()
	port := c.port
	c.port = nil
	c.portMu.Unlock()

	var err error
	if port != nil {
		if closeErr := port.Close(); closeErr != nil {
			err = newError(KindOpen, "close", "unable to close serial device", closeErr)
		}
	}

	releaseDevice(c.cfg.device, c)
	c.state.toClosed()
	c.logger.Info("ulcd: device closed")

	return err
}

// IsOpen reports whether the connection holds an open port.
func (c *Connection) IsOpen() bool {
	return c.state.isOpened()
}

// State returns the lifecycle state.
func (c *Connection) State() OpState {
	return c.state.get()
}

// Device returns the serial device path.
func (c *Connection) Device() string {
	return c.cfg.device
}

// BaudRate returns the current logical line speed.
func (c *Connection) BaudRate() int {
	return c.baud.Rate
}

// BaudIndex returns the device-side table index of the current line speed.
func (c *Connection) BaudIndex() uint16 {
	return c.baud.Index
}

// Timeout returns the read timeout.
func (c *Connection) Timeout() time.Duration {
	return c.timeout
}

// SetTimeout changes the read timeout used by subsequent operations.
func (c *Connection) SetTimeout(d time.Duration) error {
	if err := checkTimeout(d); err != nil {
		return c.record(err)
	}
	c.timeout = d

	return c.record(nil)
}

// TimeoutPolicy returns how the read timeout bounds multi-chunk reads.
func (c *Connection) TimeoutPolicy() TimeoutPolicy {
	return c.timeoutPolicy
}

// SetTimeoutPolicy changes how the read timeout bounds multi-chunk reads.
func (c *Connection) SetTimeoutPolicy(p TimeoutPolicy) error {
	if p != PerAttemptTimeout && p != WholeCallTimeout {
		return c.record(configError("config", "unknown timeout policy %d", p))
	}
	c.timeoutPolicy = p

	return c.record(nil)
}

// ReadExact reads exactly n bytes from the device under the connection's
// timeout policy. Command builders use it for trailers whose size is only
// known from an earlier reply.
func (c *Connection) ReadExact(n int) ([]byte, error) {
	if err := c.requireOpen("read"); err != nil {
		return nil, c.record(err)
	}
	if n < 0 {
		return nil, c.record(configError("read", "negative read size %d", n))
	}

	buf := make([]byte, n)
	if err := c.readExact("read", buf, c.timeout, c.timeoutPolicy); err != nil {
		c.countTimeout(err)
		return nil, c.record(err)
	}

	return buf, c.record(nil)
}

// LastError returns the error recorded by the most recent operation, or nil
// if it succeeded.
func (c *Connection) LastError() error {
	if c.lastErr == nil {
		return nil
	}

	return c.lastErr
}

// LastErrorKind returns the kind of LastError, KindNone after a success.
func (c *Connection) LastErrorKind() Kind {
	if c.lastErr == nil {
		return KindNone
	}

	return c.lastErr.Kind
}

// Metrics returns the connection's counters.
func (c *Connection) Metrics() *ConnectionMetrics {
	return &c.metrics
}

func (c *Connection) requireOpen(op string) error {
	if !c.state.isOpened() {
		return configError(op, "connection is not open")
	}

	return nil
}

// record stores err as the last error and returns it unchanged.
func (c *Connection) record(err error) error {
	if err == nil {
		c.lastErr = nil
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		e = newError(KindNone, "", "unclassified error", err)
	}
	c.lastErr = e
	c.logger.Debug("ulcd: operation failed", "kind", e.Kind, "phase", e.Phase, "error", err)

	return err
}
