package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/comalice/mvix/internal/primitives"
)

type stateSnapshot[S any] struct {
	state   S
	version uint64
}

// StateCell holds the current state. It has a single writer (the reduction
// loop) and any number of lock-free readers; every publish swaps one pointer.
type StateCell[S any] struct {
	current atomic.Pointer[stateSnapshot[S]]

	mu     sync.Mutex
	notify chan struct{} // closed and replaced on every publish
	closed bool
}

// NewStateCell seeds the cell with the initial state at version 0.
func NewStateCell[S any](initial S) *StateCell[S] {
	c := &StateCell[S]{notify: make(chan struct{})}
	c.current.Store(&stateSnapshot[S]{state: initial})
	return c
}

// Load returns the latest published state.
func (c *StateCell[S]) Load() S {
	return c.current.Load().state
}

// Version returns the number of publishes so far.
func (c *StateCell[S]) Version() uint64 {
	return c.current.Load().version
}

// Publish replaces the current state and wakes subscribers.
func (c *StateCell[S]) Publish(s S) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.current.Load().version
	}
	next := &stateSnapshot[S]{state: s, version: c.current.Load().version + 1}
	c.current.Store(next)
	close(c.notify)
	c.notify = make(chan struct{})
	return next.version
}

// Close completes every subscription. The last state stays readable.
func (c *StateCell[S]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.notify)
}

// Subscribe starts a conflating subscription: the first Next returns the
// current state, later calls return the latest state once it has changed.
func (c *StateCell[S]) Subscribe() *StateSubscription[S] {
	return &StateSubscription[S]{cell: c}
}

// StateSubscription is a single subscriber's view of a StateCell.
// It must not be shared between goroutines.
type StateSubscription[S any] struct {
	cell    *StateCell[S]
	started bool
	seen    uint64
}

// Next blocks until there is a state this subscriber has not observed yet.
func (s *StateSubscription[S]) Next(ctx context.Context) (S, error) {
	var zero S
	for {
		s.cell.mu.Lock()
		if s.cell.closed {
			s.cell.mu.Unlock()
			return zero, primitives.ErrClosed
		}
		snap := s.cell.current.Load()
		if !s.started || snap.version > s.seen {
			s.cell.mu.Unlock()
			s.started = true
			s.seen = snap.version
			return snap.state, nil
		}
		wait := s.cell.notify
		s.cell.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-wait:
		}
	}
}
