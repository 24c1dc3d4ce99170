package ulcd

import (
	"fmt"
)

// Reply bytes sent by the display.
const (
	ACK byte = 0x06 // command accepted
	NAK byte = 0x15 // command rejected
)

// AckState is the state of a command exchange.
//
//	AckIdle -> AckSent -> AckAwaiting -> AckAcked | AckNacked | AckUnknownReply
//
// A transport failure in any phase ends in AckTransportFailed.
type AckState int

const (
	AckIdle AckState = iota
	AckSent
	AckAwaiting
	AckAcked
	AckNacked
	AckUnknownReply
	AckTransportFailed
)

func (s AckState) String() string {
	switch s {
	case AckIdle:
		return "Idle"
	case AckSent:
		return "Sent"
	case AckAwaiting:
		return "AwaitingAck"
	case AckAcked:
		return "Acked"
	case AckNacked:
		return "Nacked"
	case AckUnknownReply:
		return "UnknownReply"
	case AckTransportFailed:
		return "TransportFailed"
	default:
		return "Unknown"
	}
}

// SendAndAck writes frame and waits for the one-byte acknowledgment.
//
// It returns nil on ACK, an error of kind KindNak on NAK and an error of kind
// KindProtocol wrapping a *ReplyError for any other byte. Transport failures
// are returned with their own kind and the Phase in which they happened.
func (c *Connection) SendAndAck(frame Frame) error {
	if err := c.requireOpen("send"); err != nil {
		return c.record(err)
	}

	return c.record(c.exchange("send", frame))
}

// SendAndAckWithPayload writes frame, waits for ACK and then reads exactly size
// payload bytes. A failure while reading the payload is reported with
// Phase == PhasePayload.
func (c *Connection) SendAndAckWithPayload(frame Frame, size int) ([]byte, error) {
	if err := c.requireOpen("send"); err != nil {
		return nil, c.record(err)
	}
	if size < 0 {
		return nil, c.record(configError("send", "negative payload size %d", size))
	}

	payload := make([]byte, size)
	if err := c.exchangeWithPayload("send", frame, payload); err != nil {
		return nil, c.record(err)
	}

	return payload, c.record(nil)
}

// SendAndAckWord writes frame, waits for ACK and decodes the two-byte reply.
func (c *Connection) SendAndAckWord(frame Frame) (uint16, error) {
	if err := c.requireOpen("send"); err != nil {
		return 0, c.record(err)
	}

	if err := c.exchangeWithPayload("send", frame, c.replyBuf[:WordSize]); err != nil {
		return 0, c.record(err)
	}

	return DecodeWord(c.replyBuf[:WordSize]), c.record(nil)
}

// Command encodes opcode and params into the connection's frame buffer and
// sends it with SendAndAck.
func (c *Connection) Command(opcode uint16, params ...uint16) error {
	frame, err := c.encode(opcode, params)
	if err != nil {
		return c.record(err)
	}

	return c.SendAndAck(frame)
}

// CommandWord encodes opcode and params and sends them with SendAndAckWord.
func (c *Connection) CommandWord(opcode uint16, params ...uint16) (uint16, error) {
	frame, err := c.encode(opcode, params)
	if err != nil {
		return 0, c.record(err)
	}

	return c.SendAndAckWord(frame)
}

// CommandPayload encodes opcode and params and sends them with SendAndAckWithPayload.
func (c *Connection) CommandPayload(size int, opcode uint16, params ...uint16) ([]byte, error) {
	frame, err := c.encode(opcode, params)
	if err != nil {
		return nil, c.record(err)
	}

	return c.SendAndAckWithPayload(frame, size)
}

// LastAckState returns the state in which the most recent exchange ended.
func (c *Connection) LastAckState() AckState {
	return c.ackState
}

func (c *Connection) encode(opcode uint16, params []uint16) (Frame, error) {
	n := PutWord(c.frameBuf[:], opcode)
	m, err := EncodeWords(c.frameBuf[n:], params...)
	if err != nil {
		return nil, err
	}

	return Frame(c.frameBuf[:n+m]), nil
}

// exchange runs Idle -> Sent -> AwaitingAck -> terminal state.
func (c *Connection) exchange(op string, frame Frame) error {
	if err := c.sendFrame(op, frame); err != nil {
		return err
	}

	return c.awaitAck(op)
}

func (c *Connection) exchangeWithPayload(op string, frame Frame, payload []byte) error {
	if err := c.exchange(op, frame); err != nil {
		return err
	}

	if err := c.readExact(op, payload, c.timeout, c.timeoutPolicy); err != nil {
		c.countTimeout(err)
		return withPhase(err, PhasePayload)
	}

	return nil
}

func (c *Connection) sendFrame(op string, frame Frame) error {
	c.ackState = AckIdle
	if len(frame) < WordSize {
		return configError(op, "frame of %d bytes has no opcode", len(frame))
	}

	if err := c.writeAll(op, frame); err != nil {
		c.ackState = AckTransportFailed
		return withPhase(err, PhaseWrite)
	}
	c.ackState = AckSent
	c.metrics.incFrameSendCount()

	return nil
}

func (c *Connection) awaitAck(op string) error {
	c.ackState = AckAwaiting

	reply := c.replyBuf[:1]
	if err := c.readExact(op, reply, c.timeout, c.timeoutPolicy); err != nil {
		c.ackState = AckTransportFailed
		c.countTimeout(err)

		return withPhase(err, PhaseAck)
	}

	switch reply[0] {
	case ACK:
		c.ackState = AckAcked
		c.metrics.incAckCount()

		return nil
	case NAK:
		c.ackState = AckNacked
		c.metrics.incNakCount()
		err := newError(KindNak, op, "device sent NAK, expected ACK", nil)
		err.Phase = PhaseAck

		return err
	default:
		c.ackState = AckUnknownReply
		c.metrics.incUnknownReplyCount()
		err := newError(KindProtocol, op,
			fmt.Sprintf("device sent unknown reply 0x%02X instead of ACK", reply[0]),
			&ReplyError{Reply: reply[0]},
		)
		err.Phase = PhaseAck

		return err
	}
}

func (c *Connection) countTimeout(err error) {
	if KindOf(err) == KindTimeout {
		c.metrics.incTimeoutCount()
	}
}
