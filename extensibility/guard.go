package extensibility

import (
	"context"
	"errors"
	"fmt"

	"github.com/comalice/mvix"
)

// ErrIntentRejected is returned for intents a guard refuses.
var ErrIntentRejected = errors.New("intent rejected by guard")

// Guard decides whether intent may be handled in state.
type Guard[S, I any] func(state S, intent I) bool

// All passes only when every guard passes.
func All[S, I any](guards ...Guard[S, I]) Guard[S, I] {
	return func(state S, intent I) bool {
		for _, g := range guards {
			if g != nil && !g(state, intent) {
				return false
			}
		}
		return true
	}
}

// GuardedMachine refuses intents its guard rejects before the wrapped
// machine sees them. Refusals reach OnIntentError like any handler error.
type GuardedMachine[S, I, A, E any] struct {
	inner mvix.StateMachine[S, I, A, E]
	guard Guard[S, I]
}

// WithGuard wraps inner. A nil guard lets everything through.
func WithGuard[S, I, A, E any](inner mvix.StateMachine[S, I, A, E], guard Guard[S, I]) *GuardedMachine[S, I, A, E] {
	return &GuardedMachine[S, I, A, E]{inner: inner, guard: guard}
}

func (m *GuardedMachine[S, I, A, E]) HandleIntent(ctx context.Context, intent I, d mvix.Dispatcher[S, A, E]) error {
	if !m.allows(d.State(), intent) {
		return fmt.Errorf("%w: %s", ErrIntentRejected, describe(intent))
	}
	return m.inner.HandleIntent(ctx, intent, d)
}

func (m *GuardedMachine[S, I, A, E]) Reduce(ctx context.Context, state S, action A) (S, error) {
	return m.inner.Reduce(ctx, state, action)
}

func (m *GuardedMachine[S, I, A, E]) OnIntentError(ctx context.Context, intent I, err error, d mvix.Dispatcher[S, A, E]) {
	if eh, ok := m.inner.(mvix.IntentErrorHandler[S, I, A, E]); ok {
		eh.OnIntentError(ctx, intent, err, d)
	}
}

// allows fails closed: a panicking guard rejects.
func (m *GuardedMachine[S, I, A, E]) allows(state S, intent I) (ok bool) {
	if m.guard == nil {
		return true
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return m.guard(state, intent)
}

func describe(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%+v", v)
}
