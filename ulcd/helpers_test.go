package ulcd

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/go-ulcd/internal/pool"
	"github.com/arloliu/go-ulcd/logger"
)

// garbledByte is what the simulator delivers for bytes sent at a line speed
// other than the one the host port is set to.
const garbledByte byte = 0xF8

var errSimClosed = errors.New("sim: port closed")

type simChunk struct {
	data []byte
	rate int // 0: readable at any speed
}

// simPort is an in-memory Port with a scripted device on the other end.
//
// Writes are split into chunks of at most writeChunk bytes and reads return
// at most readChunk bytes, so tests can force partial I/O. Read blocks until
// data arrives or the read timeout expires, then returns (0, nil) like
// go.bug.st/serial.
type simPort struct {
	mu       sync.Mutex
	notify   chan struct{}
	rx       []simChunk
	written  []byte
	timeout  time.Duration
	timeouts []time.Duration
	baud     int
	bauds    []int
	closed   int
	resets   int

	// txPending is set by Write and cleared by Drain; a speed switch while it is
	// set counts as switchedInFlight.
	txPending        bool
	switchedInFlight int
	drains           int
	drainErr         error

	readChunk  int
	writeChunk int
	writeErr   error
	readErr    error

	// onWrite is called with every accepted chunk, outside the lock.
	onWrite func(p *simPort, chunk []byte)
}

var _ Port = (*simPort)(nil)

func newSimPort() *simPort {
	return &simPort{
		notify:  make(chan struct{}, 1),
		timeout: time.Second,
	}
}

// push queues bytes readable at any line speed.
func (p *simPort) push(data ...byte) {
	p.pushAt(0, data...)
}

// pushAt queues bytes that the device transmits at rate.
func (p *simPort) pushAt(rate int, data ...byte) {
	p.mu.Lock()
	p.rx = append(p.rx, simChunk{data: append([]byte(nil), data...), rate: rate})
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// pushLater queues data after delay from another goroutine.
func (p *simPort) pushLater(delay time.Duration, data ...byte) {
	go func() {
		pool.Sleep(delay)
		p.push(data...)
	}()
}

func (p *simPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	deadline := time.Now().Add(p.timeout)
	p.mu.Unlock()

	for {
		p.mu.Lock()
		if p.closed > 0 {
			p.mu.Unlock()
			return 0, errSimClosed
		}
		if p.readErr != nil {
			err := p.readErr
			p.mu.Unlock()

			return 0, err
		}
		if len(p.rx) > 0 {
			n := p.take(b)
			p.mu.Unlock()

			return n, nil
		}
		p.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, nil
		}

		t := pool.GetTimer(remaining)
		select {
		case <-p.notify:
		case <-t.C:
		}
		pool.PutTimer(t)
	}
}

// take copies queued bytes into b. Must be called with p.mu held.
func (p *simPort) take(b []byte) int {
	limit := len(b)
	if p.readChunk > 0 && p.readChunk < limit {
		limit = p.readChunk
	}

	n := 0
	for n < limit && len(p.rx) > 0 {
		head := &p.rx[0]
		k := copy(b[n:limit], head.data)
		if head.rate != 0 && head.rate != p.baud {
			for i := n; i < n+k; i++ {
				b[i] = garbledByte
			}
		}
		n += k
		head.data = head.data[k:]
		if len(head.data) == 0 {
			p.rx = p.rx[1:]
		}
	}

	return n
}

func (p *simPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed > 0 {
		p.mu.Unlock()
		return 0, errSimClosed
	}
	if p.writeErr != nil {
		err := p.writeErr
		p.mu.Unlock()

		return 0, err
	}

	n := len(b)
	if p.writeChunk > 0 && p.writeChunk < n {
		n = p.writeChunk
	}
	chunk := append([]byte(nil), b[:n]...)
	p.written = append(p.written, chunk...)
	p.txPending = true
	onWrite := p.onWrite
	p.mu.Unlock()

	if onWrite != nil {
		onWrite(p, chunk)
	}

	return n, nil
}

func (p *simPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed++

	return nil
}

func (p *simPort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timeout = t
	p.timeouts = append(p.timeouts, t)

	return nil
}

func (p *simPort) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.drains++
	if p.drainErr != nil {
		return p.drainErr
	}
	p.txPending = false

	return nil
}

func (p *simPort) SetBaudRate(rate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.txPending {
		p.switchedInFlight++
	}
	p.baud = rate
	p.bauds = append(p.bauds, rate)

	return nil
}

func (p *simPort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rx = nil
	p.resets++

	return nil
}

func (p *simPort) writtenBytes() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]byte(nil), p.written...)
}

func (p *simPort) closeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

func (p *simPort) currentBaud() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.baud
}

func (p *simPort) pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.rx {
		n += len(c.data)
	}

	return n
}

// replyPerFrame makes the device answer every frameLen written bytes with the
// next reply from replies. Frames beyond the last reply get no answer.
func replyPerFrame(frameLen int, replies ...[]byte) func(*simPort, []byte) {
	var mu sync.Mutex
	received := 0
	next := 0

	return func(p *simPort, chunk []byte) {
		mu.Lock()
		defer mu.Unlock()

		received += len(chunk)
		for received >= frameLen {
			received -= frameLen
			if next < len(replies) {
				p.push(replies[next]...)
				next++
			}
		}
	}
}

// simOpener returns a PortOpener handing out p at the requested speed.
func simOpener(p *simPort) PortOpener {
	return func(_ string, rate int) (Port, error) {
		p.mu.Lock()
		p.baud = rate
		p.mu.Unlock()

		return p, nil
	}
}

// testDevice returns a device path unique to the running test.
func testDevice(t *testing.T) string {
	t.Helper()

	return "/dev/sim/" + strings.ReplaceAll(t.Name(), "/", "_")
}

// newTestConfig creates a ConnectionConfig with short timeouts suitable for tests.
func newTestConfig(t *testing.T, p *simPort, opts ...ConnOption) *ConnectionConfig {
	t.Helper()

	defaults := []ConnOption{
		WithPortOpener(simOpener(p)),
		WithTimeout(50 * time.Millisecond),
		WithResyncTimeout(5 * time.Millisecond),
		WithSettleDelay(5 * time.Millisecond),
		WithLogger(logger.GetLogger()),
	}

	cfg, err := NewConnectionConfig(testDevice(t), append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

// newOpenConn creates and opens a Connection backed by p, closed on cleanup.
func newOpenConn(t *testing.T, p *simPort, opts ...ConnOption) *Connection {
	t.Helper()

	c, err := NewConnection(newTestConfig(t, p, opts...))
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	if err := c.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}
