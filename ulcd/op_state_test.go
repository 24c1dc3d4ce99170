package ulcd

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpState_String(t *testing.T) {
	tests := []struct {
		state    OpState
		expected string
	}{
		{ClosedState, "Closed"},
		{ClosingState, "Closing"},
		{OpeningState, "Opening"},
		{OpenedState, "Opened"},
		{OpState(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}

func TestAtomicOpState_Transitions(t *testing.T) {
	var st atomicOpState

	assert.Equal(t, ClosedState, st.get())
	assert.False(t, st.toOpened(), "cannot skip Opening")
	assert.False(t, st.toClosing(), "closed state cannot close")

	assert.True(t, st.toOpening())
	assert.False(t, st.toOpening())
	assert.True(t, st.toOpened())
	assert.True(t, st.isOpened())

	assert.True(t, st.toClosing())
	assert.False(t, st.isOpened())
	assert.False(t, st.toClosing())
	assert.True(t, st.toClosed())
	assert.False(t, st.toClosed())

	assert.True(t, st.toOpening())
	assert.True(t, st.toClosing(), "an opening connection can be closed")
}

func TestAtomicOpState_ClosingOnce(t *testing.T) {
	var st atomicOpState
	st.set(OpenedState)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if st.toClosing() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
