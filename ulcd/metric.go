package ulcd

import (
	"sync/atomic"
)

// ConnectionMetrics contains atomic metrics for a display connection.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ConnectionMetrics struct {
	// FrameSendCount indicates the number of command frames written completely.
	FrameSendCount atomic.Uint64
	// AckCount indicates the number of ACK replies.
	AckCount atomic.Uint64
	// NakCount indicates the number of NAK replies.
	NakCount atomic.Uint64
	// UnknownReplyCount indicates the number of replies that were neither ACK nor NAK.
	UnknownReplyCount atomic.Uint64
	// TimeoutCount indicates the number of reads that failed with a timeout, resync reads excluded.
	TimeoutCount atomic.Uint64
	// ResyncCount indicates the number of successful resynchronizations.
	ResyncCount atomic.Uint64
	// ResyncFailCount indicates the number of resynchronizations that exhausted their attempts.
	ResyncFailCount atomic.Uint64
	// BaudChangeCount indicates the number of line speed changes negotiated with the device.
	BaudChangeCount atomic.Uint64

	// BytesWritten and BytesRead count raw bytes on the line.
	BytesWritten atomic.Uint64
	BytesRead    atomic.Uint64
}

func (m *ConnectionMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *ConnectionMetrics) incAckCount() {
	m.AckCount.Add(1)
}

func (m *ConnectionMetrics) incNakCount() {
	m.NakCount.Add(1)
}

func (m *ConnectionMetrics) incUnknownReplyCount() {
	m.UnknownReplyCount.Add(1)
}

func (m *ConnectionMetrics) incTimeoutCount() {
	m.TimeoutCount.Add(1)
}

func (m *ConnectionMetrics) incResyncCount() {
	m.ResyncCount.Add(1)
}

func (m *ConnectionMetrics) incResyncFailCount() {
	m.ResyncFailCount.Add(1)
}

func (m *ConnectionMetrics) incBaudChangeCount() {
	m.BaudChangeCount.Add(1)
}

func (m *ConnectionMetrics) addBytesWritten(n int) {
	m.BytesWritten.Add(uint64(n))
}

func (m *ConnectionMetrics) addBytesRead(n int) {
	m.BytesRead.Add(uint64(n))
}
