package domain

import (
	"fmt"
	"sync"
)

// SellState is a step of the approve-then-sell saga.
type SellState int

const (
	SellIdle SellState = iota
	SellValidating
	SellCheckingLiquidity
	SellCheckingAllowance
	SellApproving
	SellSelling
	SellConfirmed
	SellFailed
)

var sellStateNames = map[SellState]string{
	SellIdle:              "idle",
	SellValidating:        "validating",
	SellCheckingLiquidity: "checking_liquidity",
	SellCheckingAllowance: "checking_allowance",
	SellApproving:         "approving",
	SellSelling:           "selling",
	SellConfirmed:         "confirmed",
	SellFailed:            "failed",
}

func (s SellState) String() string {
	if name, ok := sellStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SellState(%d)", int(s))
}

// Terminal reports whether no further transition is possible.
func (s SellState) Terminal() bool {
	return s == SellConfirmed || s == SellFailed
}

// allowed lists the forward edges. Any non-terminal state may also fail.
var allowed = map[SellState][]SellState{
	SellIdle:              {SellValidating},
	SellValidating:        {SellCheckingLiquidity},
	SellCheckingLiquidity: {SellCheckingAllowance},
	SellCheckingAllowance: {SellApproving, SellSelling},
	SellApproving:         {SellSelling},
	SellSelling:           {SellConfirmed},
}

// SellTransition is reported to observers on every state change.
type SellTransition struct {
	From SellState
	To   SellState

	// Err is set on the transition to SellFailed.
	Err error
}

// SellObserver receives saga transitions in order.
type SellObserver func(SellTransition)

// SellSaga tracks one sell attempt. It has no persisted state: a failed
// saga is never resumed, a new attempt starts from SellIdle.
type SellSaga struct {
	mu        sync.Mutex
	state     SellState
	history   []SellState
	failure   error
	observers []SellObserver
}

// NewSellSaga starts a saga in SellIdle.
func NewSellSaga(observers ...SellObserver) *SellSaga {
	return &SellSaga{
		state:     SellIdle,
		history:   []SellState{SellIdle},
		observers: observers,
	}
}

// State returns the current state.
func (s *SellSaga) State() SellState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns every state visited, in order.
func (s *SellSaga) History() []SellState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SellState(nil), s.history...)
}

// Err returns the failure reason, if the saga failed.
func (s *SellSaga) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Advance moves to the next state. Edges not in the forward graph are
// rejected.
func (s *SellSaga) Advance(to SellState) error {
	s.mu.Lock()
	from := s.state
	if !canMove(from, to) {
		s.mu.Unlock()
		return fmt.Errorf("sell saga: illegal transition %s -> %s", from, to)
	}
	s.state = to
	s.history = append(s.history, to)
	s.mu.Unlock()

	s.notify(SellTransition{From: from, To: to})
	return nil
}

// Fail moves to SellFailed and returns err unchanged. Failing a terminal
// saga is a no-op.
func (s *SellSaga) Fail(err error) error {
	s.mu.Lock()
	from := s.state
	if from.Terminal() {
		s.mu.Unlock()
		return err
	}
	s.state = SellFailed
	s.history = append(s.history, SellFailed)
	s.failure = err
	s.mu.Unlock()

	s.notify(SellTransition{From: from, To: SellFailed, Err: err})
	return err
}

func (s *SellSaga) notify(t SellTransition) {
	for _, obs := range s.observers {
		if obs != nil {
			obs(t)
		}
	}
}

func canMove(from, to SellState) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}
