package ulcd

import "sync/atomic"

// OpState is the lifecycle state of a Connection.
type OpState uint32

const (
	ClosedState OpState = iota
	ClosingState
	OpeningState
	OpenedState
)

func (s OpState) String() string {
	switch s {
	case ClosedState:
		return "Closed"
	case ClosingState:
		return "Closing"
	case OpeningState:
		return "Opening"
	case OpenedState:
		return "Opened"
	default:
		return "Unknown"
	}
}

// atomicOpState guards the open/close transitions so that a port is acquired
// once per Open and released exactly once per Close.
type atomicOpState struct {
	state atomic.Uint32
}

func (st *atomicOpState) get() OpState {
	return OpState(st.state.Load())
}

func (st *atomicOpState) set(state OpState) {
	st.state.Store(uint32(state))
}

func (st *atomicOpState) isOpened() bool {
	return st.get() == OpenedState
}

func (st *atomicOpState) toOpening() bool {
	return st.state.CompareAndSwap(uint32(ClosedState), uint32(OpeningState))
}

func (st *atomicOpState) toOpened() bool {
	return st.state.CompareAndSwap(uint32(OpeningState), uint32(OpenedState))
}

func (st *atomicOpState) toClosing() bool {
	if st.state.CompareAndSwap(uint32(OpenedState), uint32(ClosingState)) {
		return true
	}

	return st.state.CompareAndSwap(uint32(OpeningState), uint32(ClosingState))
}

func (st *atomicOpState) toClosed() bool {
	return st.state.CompareAndSwap(uint32(ClosingState), uint32(ClosedState))
}
