package ulcd

import (
	"fmt"

	"github.com/arloliu/go-ulcd/internal/pool"
)

// OpSetBaudRate is the SET_BAUD_RATE opcode. Its single parameter is a baud table index.
const OpSetBaudRate uint16 = 0x0026

// BaudEntry maps a logical line speed to the index the device expects in SET_BAUD_RATE.
// Rate is also the speed handed to the local serial driver.
type BaudEntry struct {
	Rate  int
	Index uint16
}

// baudTable holds the device indices of the rates that the host serial
// driver supports. The device accepts more indices (e.g. 14400, 31250) that
// have no standard host line speed.
var baudTable = []BaudEntry{
	{Rate: 110, Index: 0},
	{Rate: 300, Index: 1},
	{Rate: 600, Index: 2},
	{Rate: 1200, Index: 3},
	{Rate: 2400, Index: 4},
	{Rate: 4800, Index: 5},
	{Rate: 9600, Index: 6},
	{Rate: 19200, Index: 8},
	{Rate: 38400, Index: 10},
	{Rate: 57600, Index: 12},
	{Rate: 115200, Index: 13},
	{Rate: 500000, Index: 18},
}

// LookupBaud returns the table entry for rate. An unsupported rate is a
// configuration error.
func LookupBaud(rate int) (BaudEntry, error) {
	for _, e := range baudTable {
		if e.Rate == rate {
			return e, nil
		}
	}

	return BaudEntry{}, configError("set baud rate", "baud rate %d is not supported", rate)
}

// SupportedBaudRates returns the logical rates of the baud table in ascending order.
func SupportedBaudRates() []int {
	rates := make([]int, len(baudTable))
	for i, e := range baudTable {
		rates[i] = e.Rate
	}

	return rates
}

// SetBaudRate changes the line speed to rate.
//
// On a connection that is not open the rate is only recorded and used by Open.
// Otherwise the change is negotiated with the device: SET_BAUD_RATE is sent at
// the current speed, the output queue is drained, the local port is
// switched and the settle delay is
// observed before returning. The configured BaudAckPolicy decides whether the
// acknowledgment is read before the switch or after the settle delay.
//
// With BaudAckAtNewSpeed the local speed stays switched even if the
// acknowledgment is missing, since the device has most likely retrained already.
// With BaudAckAtOldSpeed a rejected command leaves the local speed unchanged.
func (c *Connection) SetBaudRate(rate int) error {
	const op = "set baud rate"

	entry, err := LookupBaud(rate)
	if err != nil {
		return c.record(err)
	}

	if !c.state.isOpened() {
		c.baud = entry
		c.logger.Debug("ulcd: baud rate recorded for open", "baudRate", entry.Rate)

		return c.record(nil)
	}

	frame, err := c.encode(OpSetBaudRate, []uint16{entry.Index})
	if err != nil {
		return c.record(err)
	}

	switch c.cfg.baudAckPolicy {
	case BaudAckAtOldSpeed:
		if err := c.exchange(op, frame); err != nil {
			return c.record(err)
		}
		if err := c.switchLineSpeed(op, entry); err != nil {
			return c.record(err)
		}
		c.settle()

	default:
		if err := c.sendFrame(op, frame); err != nil {
			return c.record(err)
		}
		if err := c.switchLineSpeed(op, entry); err != nil {
			c.ackState = AckTransportFailed
			return c.record(err)
		}
		c.settle()
		if err := c.awaitAck(op); err != nil {
			return c.record(err)
		}
	}

	c.metrics.incBaudChangeCount()
	c.logger.Info("ulcd: baud rate changed", "baudRate", entry.Rate, "index", entry.Index)

	return c.record(nil)
}

// switchLineSpeed waits for the output queue to empty, then changes the local
// line speed. A frame still leaving the UART would otherwise be clocked out
// partly at the new speed.
func (c *Connection) switchLineSpeed(op string, entry BaudEntry) error {
	if err := c.port.Drain(); err != nil {
		return newError(KindWrite, op, "unable to drain output before switching line speed", err)
	}
	if err := c.port.SetBaudRate(entry.Rate); err != nil {
		return newError(KindConfiguration, op, fmt.Sprintf("unable to set local line speed to %d", entry.Rate), err)
	}
	c.baud = entry

	return nil
}

// settle blocks for the configured settle delay while the device retrains.
func (c *Connection) settle() {
	pool.Sleep(c.cfg.settleDelay)
}
