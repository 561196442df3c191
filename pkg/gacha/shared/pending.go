package shared

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of a time-bounded pending operation
type State int

const (
	StateOpen State = iota
	StateResolved
	StateCancelled
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateResolved:
		return "resolved"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ErrAlreadyResolved is returned by Attempt once another attempt succeeded
var ErrAlreadyResolved = errors.New("already resolved")

// Pending is a one-shot operation waiting for an external signal. It leaves
// StateOpen exactly once: to Resolved through a successful Attempt or
// Resolve, to Cancelled through Cancel, or to Expired when the deadline
// passes first.
type Pending struct {
	mu       sync.Mutex
	state    State
	deadline time.Time
	timer    *time.Timer
	done     chan struct{}
	onClose  func(State)
}

// NewPending opens an operation that expires after timeout. onClose, when
// not nil, runs once after the operation leaves StateOpen.
func NewPending(timeout time.Duration, onClose func(State)) *Pending {
	p := &Pending{
		state:    StateOpen,
		deadline: time.Now().Add(timeout),
		done:     make(chan struct{}),
		onClose:  onClose,
	}
	p.mu.Lock()
	p.timer = time.AfterFunc(timeout, func() { p.Expire() })
	p.mu.Unlock()
	return p
}

// State returns the current state
func (p *Pending) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns nil while open, else the error Attempt would return
func (p *Pending) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closedErr()
}

// Deadline returns the wall-clock expiry time
func (p *Pending) Deadline() time.Time {
	return p.deadline
}

// Done is closed when the operation leaves StateOpen
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Attempt runs fn while the operation is open, holding it open for the
// duration of fn. A nil result from fn resolves the operation; an error
// leaves it open. Closed operations return ErrAlreadyResolved, ErrCancelled
// or ErrTimeout without calling fn.
func (p *Pending) Attempt(fn func() error) error {
	p.mu.Lock()
	if err := p.closedErr(); err != nil {
		p.mu.Unlock()
		return err
	}

	if err := fn(); err != nil {
		p.mu.Unlock()
		return err
	}

	p.closeLocked(StateResolved)
	p.mu.Unlock()
	p.notify(StateResolved)
	return nil
}

// Resolve closes the operation successfully; false if it was not open
func (p *Pending) Resolve() bool {
	return p.transition(StateResolved)
}

// Cancel closes the operation without effect; false if it was not open
func (p *Pending) Cancel() bool {
	return p.transition(StateCancelled)
}

// Expire closes the operation as timed out; false if it was not open
func (p *Pending) Expire() bool {
	return p.transition(StateExpired)
}

// Wait blocks until the operation closes or ctx ends
func (p *Pending) Wait(ctx context.Context) (State, error) {
	select {
	case <-p.done:
		return p.State(), nil
	case <-ctx.Done():
		return p.State(), ctx.Err()
	}
}

func (p *Pending) transition(to State) bool {
	p.mu.Lock()
	if p.state != StateOpen {
		p.mu.Unlock()
		return false
	}
	p.closeLocked(to)
	p.mu.Unlock()
	p.notify(to)
	return true
}

func (p *Pending) closeLocked(to State) {
	p.state = to
	p.timer.Stop()
	close(p.done)
}

func (p *Pending) notify(state State) {
	if p.onClose != nil {
		p.onClose(state)
	}
}

func (p *Pending) closedErr() error {
	switch p.state {
	case StateOpen:
		return nil
	case StateResolved:
		return ErrAlreadyResolved
	case StateCancelled:
		return ErrCancelled
	default:
		return ErrTimeout
	}
}
