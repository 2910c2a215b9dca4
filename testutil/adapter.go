// Package testutil holds helpers for testing code built on mvix containers.
// Every wait is bounded so a broken container fails the test instead of
// hanging it.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/comalice/mvix"
)

// DefaultTimeout bounds waits in tests that do not pass their own.
const DefaultTimeout = 2 * time.Second

// Harness drives one container the way a view would: it submits intents
// and waits for the state to settle.
type Harness[S, I, A, E any] struct {
	initial S
	machine mvix.StateMachine[S, I, A, E]
	opts    []mvix.Option
	c       *mvix.Container[S, I, A, E]
}

// NewHarness prepares a container. Nothing runs until Start.
func NewHarness[S, I, A, E any](initial S, machine mvix.StateMachine[S, I, A, E], opts ...mvix.Option) *Harness[S, I, A, E] {
	return &Harness[S, I, A, E]{initial: initial, machine: machine, opts: opts}
}

func (h *Harness[S, I, A, E]) Start(ctx context.Context) error {
	c, err := mvix.New[S, I, A, E](ctx, h.initial, h.machine, h.opts...)
	if err != nil {
		return err
	}
	h.c = c
	return nil
}

// Stop closes the container and waits for it to finish.
func (h *Harness[S, I, A, E]) Stop() error {
	if h.c == nil {
		return nil
	}
	if err := h.c.Close(); err != nil {
		return err
	}
	select {
	case <-h.c.Done():
		return nil
	case <-time.After(DefaultTimeout):
		return fmt.Errorf("container %s did not stop within %v", h.c.ID(), DefaultTimeout)
	}
}

// Container returns the running container, nil before Start.
func (h *Harness[S, I, A, E]) Container() *mvix.Container[S, I, A, E] {
	return h.c
}

func (h *Harness[S, I, A, E]) Submit(intent I) error {
	return h.c.SubmitIntent(context.Background(), intent)
}

func (h *Harness[S, I, A, E]) State() S {
	return h.c.CurrentState()
}

// WaitForState blocks until the published state satisfies pred.
func (h *Harness[S, I, A, E]) WaitForState(pred func(S) bool, timeout time.Duration) (S, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sub := h.c.StateStream().Subscribe()
	for {
		s, err := sub.Next(ctx)
		if err != nil {
			return s, fmt.Errorf("waiting for state: %w (last %s)", err, describe(h.c.CurrentState()))
		}
		if pred(s) {
			return s, nil
		}
	}
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%+v", v)
}
