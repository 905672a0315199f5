// Package swap implements the swap state machine driving the
// ccx <-> wccx bridge protocol.
package swap

import (
	"sync"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/bridgeapi"
	"github.com/ThrownLemon/conceal-bridge-ux-sub000/params"
)

// Direction of one swap. Immutable once a swap starts.
// One side is always the native ccx chain.
type Direction string

// swap directions
const (
	DirectionCcxToEvm Direction = "ccx-to-evm"
	DirectionEvmToCcx Direction = "evm-to-ccx"
)

// IsValid reports whether the direction is a known one
func (d Direction) IsValid() bool {
	return d == DirectionCcxToEvm || d == DirectionEvmToCcx
}

// Step of the swap state machine. Strictly forward within a session.
type Step int

// swap steps
const (
	StepCollectInput Step = iota // collecting input, idle
	StepAwaitConfirm             // payment sent, awaiting backend confirmation
	StepComplete                 // settled
)

// Context is the complete read-only environment of one swap attempt
type Context struct {
	Direction  Direction
	NetworkKey string
	Chain      *params.Network
	Config     *bridgeapi.ChainConfig
}

// Snapshot read-only view of a session
type Snapshot struct {
	Step          Step
	IsBusy        bool
	PaymentID     string
	EvmTxHash     string
	SwapState     *bridgeapi.SwapTxData
	StatusMessage string
	PageError     string
	PollingError  string
}

// Session is the mutable state of one swap attempt. Mutated only by
// the Orchestrator; consumers read snapshots or subscribe to changes.
type Session struct {
	mu sync.RWMutex

	step      Step
	isBusy    bool
	paymentID string
	evmTxHash string
	swapState *bridgeapi.SwapTxData

	statusMessage string
	pageError     string
	pollingError  string

	listenerSeq int
	listeners   map[int]func(Snapshot)
}

// NewSession new idle session at step 0
func NewSession() *Session {
	return &Session{listeners: make(map[int]func(Snapshot))}
}

// Snapshot get a read-only state snapshot
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Step:          s.step,
		IsBusy:        s.isBusy,
		PaymentID:     s.paymentID,
		EvmTxHash:     s.evmTxHash,
		SwapState:     s.swapState,
		StatusMessage: s.statusMessage,
		PageError:     s.pageError,
		PollingError:  s.pollingError,
	}
}

// Step current state machine step
func (s *Session) Step() Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.step
}

// IsBusy reports whether an irreversible action is in flight
func (s *Session) IsBusy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isBusy
}

// PaymentID backend issued correlation id, empty until init succeeds
func (s *Session) PaymentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paymentID
}

// Subscribe register a change listener; returned func detaches it.
// Listeners run synchronously on the mutating goroutine.
func (s *Session) Subscribe(listener func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	s.listenerSeq++
	id := s.listenerSeq
	s.listeners[id] = listener
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// mutate run fn under the write lock and notify listeners
func (s *Session) mutate(fn func()) {
	s.mu.Lock()
	fn()
	snapshot := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()
	for _, listener := range listeners {
		listener(snapshot)
	}
}

// ClearMessages clear transient status and error texts
func (s *Session) ClearMessages() {
	s.mutate(func() {
		s.statusMessage = ""
		s.pageError = ""
		s.pollingError = ""
	})
}
