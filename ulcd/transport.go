package ulcd

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/arloliu/go-ulcd/logger"
)

// drainLimit bounds the bytes discarded by drainInput, so a device that keeps
// talking cannot hold the caller forever.
const drainLimit = 1024

// writeAll writes data to the port, looping over partial writes.
//
// A write that returns an error, or that makes no progress, fails with a
// WriteError wrapping the underlying error.
func (c *Connection) writeAll(op string, data []byte) error {
	for written := 0; written < len(data); {
		n, err := c.port.Write(data[written:])
		if n > 0 {
			c.traceChunk(DirSend, data[written:written+n])
			c.metrics.addBytesWritten(n)
			written += n
		}

		if err != nil {
			return newError(KindWrite, op, fmt.Sprintf("unable to send data to device after %d of %d bytes", written, len(data)), err)
		}
		if n <= 0 {
			return newError(KindWrite, op, fmt.Sprintf("unable to send data to device after %d of %d bytes", written, len(data)), io.ErrNoProgress)
		}
	}

	return nil
}

// readExact fills buf from the port, looping over partial reads.
//
// With PerAttemptTimeout every read call may block for up to timeout; the
// timeout is re-armed after each chunk. With WholeCallTimeout the read calls
// share a single deadline. A read call that returns no data within its bound
// fails with a TimeoutError, any other read failure with a ReadError.
func (c *Connection) readExact(op string, buf []byte, timeout time.Duration, policy TimeoutPolicy) error {
	deadline := time.Now().Add(timeout)

	for read := 0; read < len(buf); {
		attempt := timeout
		if policy == WholeCallTimeout {
			attempt = time.Until(deadline)
			if attempt <= 0 {
				return c.timeoutError(op, read, len(buf), nil)
			}
		}

		if err := c.port.SetReadTimeout(attempt); err != nil {
			return newError(KindRead, op, "unable to set read timeout", err)
		}

		n, err := c.port.Read(buf[read:])
		if n > 0 {
			c.traceChunk(DirRecv, buf[read:read+n])
			c.metrics.addBytesRead(n)
			read += n
		}

		switch {
		case err != nil && isTimeout(err):
			return c.timeoutError(op, read, len(buf), err)
		case err != nil:
			return newError(KindRead, op, fmt.Sprintf("unable to read data from device after %d of %d bytes", read, len(buf)), err)
		case n == 0:
			return c.timeoutError(op, read, len(buf), nil)
		}
	}

	return nil
}

func (c *Connection) timeoutError(op string, read int, want int, cause error) error {
	return newError(KindTimeout, op, fmt.Sprintf("timed out while reading data from device after %d of %d bytes", read, want), cause)
}

// drainInput reads and discards bytes until the line is silent for timeout.
func (c *Connection) drainInput(timeout time.Duration) int {
	var buf [64]byte

	drained := 0
	for drained < drainLimit {
		if err := c.port.SetReadTimeout(timeout); err != nil {
			break
		}

		n, err := c.port.Read(buf[:])
		if n > 0 {
			c.traceChunk(DirRecv, buf[:n])
			c.metrics.addBytesRead(n)
			drained += n
		}
		if err != nil || n == 0 {
			break
		}
	}

	return drained
}

func (c *Connection) traceChunk(dir Direction, data []byte) {
	if c.cfg.trace != nil {
		c.cfg.trace(dir, data)
	}
	if c.logger.Level() <= logger.DebugLevel {
		c.logger.Debug("ulcd: "+dir.String(), "bytes", fmt.Sprintf("% x", data), "len", len(data))
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
