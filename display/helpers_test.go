package display

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/arloliu/go-ulcd/ulcd"
)

// mockDevice is a testify mock implementing Device.
type mockDevice struct {
	mock.Mock
}

var _ Device = (*mockDevice)(nil)

func (m *mockDevice) SendAndAck(frame ulcd.Frame) error {
	args := m.Called(frame)
	return args.Error(0)
}

func (m *mockDevice) Command(opcode uint16, p ...uint16) error {
	args := m.Called(opcode, params(p...))
	return args.Error(0)
}

func (m *mockDevice) CommandWord(opcode uint16, p ...uint16) (uint16, error) {
	args := m.Called(opcode, params(p...))
	return args.Get(0).(uint16), args.Error(1)
}

func (m *mockDevice) SendAndAckWord(frame ulcd.Frame) (uint16, error) {
	args := m.Called(frame)
	return args.Get(0).(uint16), args.Error(1)
}

func (m *mockDevice) ReadExact(n int) ([]byte, error) {
	args := m.Called(n)
	b, _ := args.Get(0).([]byte)

	return b, args.Error(1)
}

// params normalizes a variadic parameter list so that no parameters record as
// an empty slice rather than nil.
func params(p ...uint16) []uint16 {
	if p == nil {
		return []uint16{}
	}

	return p
}

// scriptedPort is a ulcd.Port answering each complete request with a canned reply.
// Reads never block: an empty queue reads as a timeout.
type scriptedPort struct {
	mu      sync.Mutex
	replies map[string][]byte
	pending []byte
	rx      bytes.Buffer
	written bytes.Buffer
}

func newScriptedPort() *scriptedPort {
	return &scriptedPort{replies: make(map[string][]byte)}
}

// on registers reply for the request frame.
func (p *scriptedPort) on(frame ulcd.Frame, reply ...byte) {
	p.replies[string(frame)] = reply
}

func (p *scriptedPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.written.Write(b)
	p.pending = append(p.pending, b...)
	if reply, ok := p.replies[string(p.pending)]; ok {
		p.rx.Write(reply)
		p.pending = p.pending[:0]
	}

	return len(b), nil
}

func (p *scriptedPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rx.Len() == 0 {
		return 0, nil
	}

	return p.rx.Read(b)
}

func (p *scriptedPort) Close() error                       { return nil }
func (p *scriptedPort) SetReadTimeout(time.Duration) error { return nil }
func (p *scriptedPort) SetBaudRate(int) error              { return nil }
func (p *scriptedPort) Drain() error                       { return nil }
func (p *scriptedPort) ResetInputBuffer() error            { return nil }

// newScriptedDisplay opens a connection over port and returns a Display using it.
func newScriptedDisplay(t *testing.T, port *scriptedPort) *Display {
	t.Helper()

	cfg, err := ulcd.NewConnectionConfig("/dev/sim/display/"+t.Name(),
		ulcd.WithPortOpener(func(string, int) (ulcd.Port, error) { return port, nil }),
		ulcd.WithTimeout(10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewConnectionConfig: %v", err)
	}

	conn, err := ulcd.NewConnection(cfg)
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	if err := conn.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	return New(conn)
}
