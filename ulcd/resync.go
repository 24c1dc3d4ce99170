package ulcd

import (
	"errors"
	"fmt"
)

// resyncMarker is what the device sends once zero bytes have pushed it back
// to the start of a command.
var resyncMarker = [3]byte{0x06, 0x00, 0x09}

// resyncMaxBytesPerAttempt bounds the bytes inspected after one zero byte, so
// a device streaming garbage still moves on to the next attempt.
const resyncMaxBytesPerAttempt = 256

// resyncMatcher is the marker automaton with states 0, 1, 2 and matched (3).
// On a mismatch it falls back to state 0 and re-examines the byte as a
// possible marker start, so "06 06 00 09" matches at the second 06.
type resyncMatcher struct {
	pos int
}

// feed advances the automaton by b and reports whether the marker is complete.
func (m *resyncMatcher) feed(b byte) bool {
	if m.pos == len(resyncMarker) {
		return true
	}

	switch {
	case b == resyncMarker[m.pos]:
		m.pos++
	case b == resyncMarker[0]:
		m.pos = 1
	default:
		m.pos = 0
	}

	return m.pos == len(resyncMarker)
}

// Reset recovers a connection that has lost framing alignment, e.g. after a
// malformed command. It writes single zero bytes, up to the configured number
// of attempts, until the device answers with the marker 06 00 09.
//
// Input pending before the first zero byte is discarded. Read timeouts end
// the current attempt; write and read failures abort immediately. When all
// attempts are used up Reset fails with KindResyncFailed.
func (c *Connection) Reset() error {
	if err := c.requireOpen("reset"); err != nil {
		return c.record(err)
	}

	return c.record(c.resync())
}

func (c *Connection) resync() error {
	const op = "reset"

	var m resyncMatcher

	zero := c.frameBuf[:1]
	reply := c.replyBuf[:1]

	// stale input predates the first zero byte and cannot belong to the marker
	if err := c.port.ResetInputBuffer(); err != nil {
		c.logger.Debug("ulcd: unable to discard input before resync", "error", err)
	}

	for attempt := 1; attempt <= c.cfg.resyncAttempts; attempt++ {
		zero[0] = 0x00
		if err := c.writeAll(op, zero); err != nil {
			return err
		}

		for n := 0; n < resyncMaxBytesPerAttempt; n++ {
			err := c.readExact(op, reply, c.cfg.resyncTimeout, PerAttemptTimeout)
			if errors.Is(err, ErrTimeout) {
				break
			}
			if err != nil {
				return err
			}

			if m.feed(reply[0]) {
				drained := 0
				if c.cfg.resyncDrain {
					drained = c.drainInput(c.cfg.resyncTimeout)
				}
				c.metrics.incResyncCount()
				c.logger.Info("ulcd: device has been reset", "attempts", attempt, "drained", drained)

				return nil
			}
		}

		c.logger.Debug("ulcd: resync attempt without marker", "attempt", attempt, "matchPos", m.pos)
	}

	c.metrics.incResyncFailCount()
	c.logger.Warn("ulcd: resync failed", "attempts", c.cfg.resyncAttempts)

	return newError(KindResyncFailed, op, fmt.Sprintf("marker % x not received after %d attempts", resyncMarker[:], c.cfg.resyncAttempts), nil)
}
