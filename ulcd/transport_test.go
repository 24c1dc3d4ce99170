package ulcd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-ulcd/logger"
)

// zeroWritePort accepts nothing and reports no error.
type zeroWritePort struct {
	*simPort
}

func (zeroWritePort) Write(_ []byte) (int, error) { return 0, nil }

// deadlinePort reports timeouts the way net.Conn and os.File do.
type deadlinePort struct {
	*simPort
}

func (deadlinePort) Read(_ []byte) (int, error) { return 0, os.ErrDeadlineExceeded }

func TestWriteAll_PartialWrites(t *testing.T) {
	whole := newSimPort()
	fragmented := newSimPort()
	fragmented.writeChunk = 1

	frame := NewFrame(0xFF39, 0, 0, 479, 271)

	for name, p := range map[string]*simPort{"whole": whole, "fragmented": fragmented} {
		t.Run(name, func(t *testing.T) {
			c := newOpenConn(t, p)
			require.NoError(t, c.writeAll("send", frame))
			assert.Equal(t, []byte(frame), p.writtenBytes())
			assert.Equal(t, uint64(len(frame)), c.Metrics().BytesWritten.Load())
		})
	}
}

func TestWriteAll_WriteError(t *testing.T) {
	p := newSimPort()
	cause := errors.New("input/output error")
	p.writeErr = cause
	c := newOpenConn(t, p)

	err := c.writeAll("send", NewFrame(0xFFCD))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindWrite, KindOf(err))
}

func TestWriteAll_NoProgress(t *testing.T) {
	p := newSimPort()
	c := newOpenConn(t, p)
	c.port = zeroWritePort{p}

	err := c.writeAll("send", NewFrame(0xFFCD))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)
	assert.ErrorIs(t, err, io.ErrNoProgress)
}

func TestReadExact_FragmentedEqualsWhole(t *testing.T) {
	payload := []byte{0x06, 0x00, 0x1B, 0x75, 0x4C, 0x43, 0x44}

	read := func(chunk int) []byte {
		p := newSimPort()
		p.readChunk = chunk
		p.push(payload...)
		c := newOpenConn(t, p)
		defer func() { _ = c.Close() }()

		buf := make([]byte, len(payload))
		require.NoError(t, c.readExact("read", buf, c.timeout, PerAttemptTimeout))

		return buf
	}

	whole := read(0)
	assert.Equal(t, payload, whole)
	assert.Equal(t, whole, read(1))
	assert.Equal(t, whole, read(3))
}

func TestReadExact_TimeoutBounds(t *testing.T) {
	for _, policy := range []TimeoutPolicy{PerAttemptTimeout, WholeCallTimeout} {
		t.Run(policy.String(), func(t *testing.T) {
			p := newSimPort()
			c := newOpenConn(t, p, WithTimeout(80*time.Millisecond))

			begin := time.Now()
			err := c.readExact("read", make([]byte, 1), c.timeout, policy)
			elapsed := time.Since(begin)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTimeout)
			assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond)
			assert.Less(t, elapsed, 80*time.Millisecond+150*time.Millisecond)
		})
	}
}

func TestReadExact_PerAttemptRearmsAfterEachChunk(t *testing.T) {
	p := newSimPort()
	c := newOpenConn(t, p, WithTimeout(60*time.Millisecond))

	// Three bytes, 40ms apart: every gap is within the timeout, the total is not.
	go func() {
		for _, b := range []byte{0x01, 0x02, 0x03} {
			time.Sleep(40 * time.Millisecond)
			p.push(b)
		}
	}()

	buf := make([]byte, 3)
	begin := time.Now()
	require.NoError(t, c.readExact("read", buf, c.timeout, PerAttemptTimeout))
	assert.Greater(t, time.Since(begin), 60*time.Millisecond)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, buf)
}

func TestReadExact_WholeCallIsDeadline(t *testing.T) {
	p := newSimPort()
	c := newOpenConn(t, p, WithTimeout(60*time.Millisecond))

	go func() {
		for _, b := range []byte{0x01, 0x02, 0x03} {
			time.Sleep(40 * time.Millisecond)
			p.push(b)
		}
	}()

	begin := time.Now()
	err := c.readExact("read", make([]byte, 3), c.timeout, WholeCallTimeout)
	elapsed := time.Since(begin)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Contains(t, err.Error(), "after 1 of 3 bytes")
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestReadExact_ReadError(t *testing.T) {
	p := newSimPort()
	cause := errors.New("device disconnected")
	p.readErr = cause
	c := newOpenConn(t, p)

	err := c.readExact("read", make([]byte, 2), c.timeout, PerAttemptTimeout)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestReadExact_DeadlineErrorIsTimeout(t *testing.T) {
	p := newSimPort()
	c := newOpenConn(t, p)
	c.port = deadlinePort{p}

	err := c.readExact("read", make([]byte, 1), c.timeout, PerAttemptTimeout)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func TestReadExact_SetsTimeoutPerAttempt(t *testing.T) {
	p := newSimPort()
	p.readChunk = 1
	p.push(0x01, 0x02)
	c := newOpenConn(t, p, WithTimeout(70*time.Millisecond))

	require.NoError(t, c.readExact("read", make([]byte, 2), c.timeout, PerAttemptTimeout))

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, []time.Duration{70 * time.Millisecond, 70 * time.Millisecond}, p.timeouts)
}

func TestTrace_SeesEveryChunk(t *testing.T) {
	var mu sync.Mutex
	var events []string
	trace := func(dir Direction, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, fmt.Sprintf("%s % x", dir, data))
	}

	p := newSimPort()
	p.writeChunk = 2
	p.onWrite = replyPerFrame(4, []byte{ACK})
	c := newOpenConn(t, p, WithTrace(trace))

	require.NoError(t, c.Command(0xFF9C, 0x000F))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"send ff 9c", "send 00 0f", "recv 06"}, events)
}

func TestTrace_ByteDumpOnlyAtDebugLevel(t *testing.T) {
	ml := logger.NewMockLogger()
	ml.On("Level").Return(logger.InfoLevel)
	ml.AllowAll()

	traced := 0
	p := newSimPort()
	p.onWrite = replyPerFrame(2, []byte{ACK})
	c := newOpenConn(t, p, WithLogger(ml), WithTrace(func(Direction, []byte) { traced++ }))

	require.NoError(t, c.Command(0xFFCD))
	assert.Equal(t, 2, traced, "the trace hook sees every chunk regardless of level")
	ml.AssertNotCalled(t, "Debug", "ulcd: send", mock.Anything)
	ml.AssertNotCalled(t, "Debug", "ulcd: recv", mock.Anything)
}

func TestTrace_NoAllocationsWhenDebugDisabled(t *testing.T) {
	p := newSimPort()
	c := newOpenConn(t, p, WithLogger(logger.NewSlogWithWriter(io.Discard, logger.InfoLevel, false)))
	data := []byte{0xFF, 0xC2, 0x00, 0x64}

	allocs := testing.AllocsPerRun(100, func() {
		c.traceChunk(DirSend, data)
	})
	assert.Zero(t, allocs)
}

func TestDrainInput(t *testing.T) {
	p := newSimPort()
	p.push(0x01, 0x02, 0x03)
	c := newOpenConn(t, p)

	assert.Equal(t, 3, c.drainInput(5*time.Millisecond))
	assert.Zero(t, p.pending())
	assert.Zero(t, c.drainInput(5*time.Millisecond))
}
