package mvix

import "context"

// Dispatcher is the capability handed to HandleIntent. It stays valid after
// the handler returns, so goroutines started by the handler may dispatch
// later. Once the container is closed both Dispatch and Emit return ErrClosed.
type Dispatcher[S, A, E any] interface {
	// Dispatch enqueues an action for reduction.
	Dispatch(action A) error
	// Emit publishes a one-shot event.
	Emit(event E) error
	// State returns the latest published state.
	State() S
}

// StateMachine is implemented by concrete containers.
//
// HandleIntent runs on the intent loop, one intent at a time. Returning an
// error, or panicking, does not stop the loop.
//
// Reduce must be pure: it returns the next state for action without side
// effects. A returned error leaves the state unchanged.
type StateMachine[S, I, A, E any] interface {
	HandleIntent(ctx context.Context, intent I, d Dispatcher[S, A, E]) error
	Reduce(ctx context.Context, state S, action A) (S, error)
}

// IntentErrorHandler is an optional extension of StateMachine. When
// implemented, OnIntentError is called with every error HandleIntent returns
// and with a *PanicError for every recovered panic, and may translate them
// into actions or events.
type IntentErrorHandler[S, I, A, E any] interface {
	OnIntentError(ctx context.Context, intent I, err error, d Dispatcher[S, A, E])
}

// Funcs adapts plain functions to StateMachine. A nil HandleFunc ignores
// intents; a nil ReduceFunc keeps the state.
type Funcs[S, I, A, E any] struct {
	HandleFunc func(ctx context.Context, intent I, d Dispatcher[S, A, E]) error
	ReduceFunc func(ctx context.Context, state S, action A) (S, error)
	ErrorFunc  func(ctx context.Context, intent I, err error, d Dispatcher[S, A, E])
}

func (f Funcs[S, I, A, E]) HandleIntent(ctx context.Context, intent I, d Dispatcher[S, A, E]) error {
	if f.HandleFunc == nil {
		return nil
	}
	return f.HandleFunc(ctx, intent, d)
}

func (f Funcs[S, I, A, E]) Reduce(ctx context.Context, state S, action A) (S, error) {
	if f.ReduceFunc == nil {
		return state, nil
	}
	return f.ReduceFunc(ctx, state, action)
}

func (f Funcs[S, I, A, E]) OnIntentError(ctx context.Context, intent I, err error, d Dispatcher[S, A, E]) {
	if f.ErrorFunc != nil {
		f.ErrorFunc(ctx, intent, err, d)
	}
}
