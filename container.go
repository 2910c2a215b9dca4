package mvix

import (
	"context"
	"errors"
	"log/slog"

	"github.com/comalice/mvix/internal/core"
)

// Container runs one StateMachine. It is safe for concurrent use.
type Container[S, I, A, E any] struct {
	rt *core.Runtime[S, I, A, E]
	d  *dispatcher[S, I, A, E]
}

// New starts a container holding initial. The container lives until Close
// is called or ctx is done, whichever comes first.
func New[S, I, A, E any](ctx context.Context, initial S, machine StateMachine[S, I, A, E], opts ...Option) (*Container[S, I, A, E], error) {
	if machine == nil {
		return nil, errors.New("mvix: nil state machine")
	}

	rt := core.NewRuntime[S, I, A, E](initial, opts...)
	d := &dispatcher[S, I, A, E]{rt: rt}
	h := core.Handlers[S, I, A]{
		Handle: func(ctx context.Context, intent I) error {
			return machine.HandleIntent(ctx, intent, d)
		},
		Reduce: machine.Reduce,
	}
	if eh, ok := machine.(IntentErrorHandler[S, I, A, E]); ok {
		h.OnIntentError = func(ctx context.Context, intent I, err error) {
			eh.OnIntentError(ctx, intent, err, d)
		}
	}

	if err := rt.Start(ctx, h); err != nil {
		return nil, err
	}
	return &Container[S, I, A, E]{rt: rt, d: d}, nil
}

// ID returns the container's identifier.
func (c *Container[S, I, A, E]) ID() string {
	return c.rt.ID()
}

// Logger returns the container's logger, tagged with its ID.
func (c *Container[S, I, A, E]) Logger() *slog.Logger {
	return c.rt.Logger()
}

// CurrentState returns the latest published state without blocking.
func (c *Container[S, I, A, E]) CurrentState() S {
	return c.rt.State()
}

// StateStream returns a stream whose subscriptions yield the current state
// first and then every newer state a subscriber has not yet seen. A slow
// subscriber skips intermediate states.
func (c *Container[S, I, A, E]) StateStream() Stream[S] {
	return StreamFunc[S](func() Subscription[S] {
		return c.rt.SubscribeState()
	})
}

// EventStream returns a stream of one-shot events. Each event is delivered
// to exactly one subscription; events emitted while nobody listens are kept
// until a subscriber takes them.
func (c *Container[S, I, A, E]) EventStream() Stream[E] {
	return StreamFunc[E](func() Subscription[E] {
		return c.rt.SubscribeEvents()
	})
}

// SubmitIntent enqueues intent. It never waits for processing. ctx only
// matters when a bounded intent queue is full under OverflowBlock.
func (c *Container[S, I, A, E]) SubmitIntent(ctx context.Context, intent I) error {
	return c.rt.Submit(ctx, intent)
}

// PendingEvents returns the number of emitted events nobody has taken yet.
func (c *Container[S, I, A, E]) PendingEvents() int {
	return c.rt.PendingEvents()
}

// Close disposes the container. In-flight handlers see a cancelled context,
// queued intents and actions are dropped and every stream completes with
// ErrClosed. Close does not wait; use Done for that.
func (c *Container[S, I, A, E]) Close() error {
	return c.rt.Stop()
}

// Done is closed once both loops have exited and publishers are closed.
func (c *Container[S, I, A, E]) Done() <-chan struct{} {
	return c.rt.Done()
}

type dispatcher[S, I, A, E any] struct {
	rt *core.Runtime[S, I, A, E]
}

func (d *dispatcher[S, I, A, E]) Dispatch(action A) error {
	return d.rt.Dispatch(action)
}

func (d *dispatcher[S, I, A, E]) Emit(event E) error {
	return d.rt.Emit(event)
}

func (d *dispatcher[S, I, A, E]) State() S {
	return d.rt.State()
}
