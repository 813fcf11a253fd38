package client

import (
	"errors"
	"sync"
)

// State tracks the analysis lifecycle. The at-most-one-in-flight invariant
// lives here, not in any UI enablement.
type State int

const (
	StateIdle State = iota
	StateUploading
	StateRendering
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StateRendering:
		return "rendering"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrBusy is returned when an analysis is already in flight.
var ErrBusy = errors.New("分析进行中，请等待当前分析完成")

type stateMachine struct {
	mu sync.Mutex
	s  State
}

// begin moves a resting state (idle or failed) to uploading.
func (m *stateMachine) begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == StateUploading || m.s == StateRendering {
		return ErrBusy
	}
	m.s = StateUploading
	return nil
}

func (m *stateMachine) toRendering() {
	m.mu.Lock()
	m.s = StateRendering
	m.mu.Unlock()
}

// settle returns to a resting state. Every analysis path ends here.
func (m *stateMachine) settle(ok bool) {
	m.mu.Lock()
	if ok {
		m.s = StateIdle
	} else {
		m.s = StateFailed
	}
	m.mu.Unlock()
}

func (m *stateMachine) state() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}
