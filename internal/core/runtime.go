// Package core provides the runtime tier of the container: the intent and
// reduction loops, the state cell, the event channel and their lifecycle.
//
//go:generate go test ./... -race
package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/comalice/mvix/internal/primitives"
)

// Handlers are the callbacks supplied by a concrete state machine.
type Handlers[S, I, A any] struct {
	Handle        IntentHandler[I]
	OnIntentError IntentErrorHandler[I]
	Reduce        Reducer[S, A]
}

// Runtime owns the queues, the loops, the state cell and the event channel
// of one container. Runtimes share nothing with each other.
type Runtime[S, I, A, E any] struct {
	settings Settings
	logger   *slog.Logger
	metrics  *Metrics

	intents *primitives.Queue[I]
	actions *primitives.Queue[A]
	events  *EventChannel[E]
	state   *StateCell[S]

	mu       sync.Mutex
	started  bool
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	doneOnce sync.Once
	done     chan struct{}
}

// NewRuntime creates a stopped runtime holding the initial state.
func NewRuntime[S, I, A, E any](initial S, opts ...Option) *Runtime[S, I, A, E] {
	settings := NewSettings(opts...)
	r := &Runtime[S, I, A, E]{
		settings: settings,
		logger:   settings.Logger.With("component", "mvix", "container", settings.ID),
		metrics:  NewMetrics(settings.Scope),
		state:    NewStateCell(initial),
		done:     make(chan struct{}),
	}
	r.intents = primitives.NewQueue(
		primitives.WithCapacity[I](settings.IntentCapacity, settings.IntentPolicy),
		primitives.WithDropHandler(func(i I) {
			r.metrics.intentOverflow.Inc(1)
			r.logger.Warn("intent queue full, dropping oldest intent", "intent", describeLazily(i))
		}),
	)
	r.actions = primitives.NewQueue(
		primitives.WithCapacity[A](settings.ActionCapacity, settings.ActionPolicy),
		primitives.WithDropHandler(func(a A) {
			r.metrics.actionOverflow.Inc(1)
			r.logger.Warn("action queue full, dropping oldest action", "action", describeLazily(a))
		}),
	)
	r.events = NewEventChannel[E](func() { r.metrics.eventsConsumed.Inc(1) })
	return r
}

// Start launches both loops bound to parent. Cancelling parent stops the
// runtime exactly like Stop.
func (r *Runtime[S, I, A, E]) Start(parent context.Context, h Handlers[S, I, A]) error {
	if h.Handle == nil || h.Reduce == nil {
		return errors.New("runtime requires both an intent handler and a reducer")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("runtime already started")
	}
	select {
	case <-r.done:
		return primitives.ErrClosed
	default:
	}
	r.started = true
	r.ctx, r.cancel = context.WithCancel(parent)
	context.AfterFunc(r.ctx, r.shutdown)

	intentLoop := NewIntentLoop(r.intents, h.Handle, h.OnIntentError, r.logger, r.metrics)
	reductionLoop := NewReductionLoop(r.actions, h.Reduce, r.state, r.settings.StrictReduce, r.publish, r.logger, r.metrics)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		intentLoop.Run(r.ctx)
	}()
	go func() {
		defer wg.Done()
		reductionLoop.Run(r.ctx)
	}()
	go func() {
		wg.Wait()
		r.closePublishers()
		r.logger.Debug("container stopped")
		r.finish()
	}()

	r.logger.Debug("container started", "state", describeLazily(r.state.Load()))
	return nil
}

// Stop disposes the runtime: both loops are cancelled, in-flight handlers
// see a cancelled context, and every stream completes. Queues reject new
// values once Stop returns. Safe to call multiple times and from inside a
// handler; it does not wait for the loops. Use Done for that.
func (r *Runtime[S, I, A, E]) Stop() error {
	r.mu.Lock()
	started := r.started
	cancel := r.cancel
	r.mu.Unlock()

	if started {
		cancel()
		r.shutdown()
		return nil
	}
	r.shutdown()
	r.closePublishers()
	r.finish()
	return nil
}

func (r *Runtime[S, I, A, E]) shutdown() {
	r.stopOnce.Do(func() {
		r.intents.Close()
		r.actions.Close()
		r.events.Close()
		r.state.Close()
	})
}

func (r *Runtime[S, I, A, E]) finish() {
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *Runtime[S, I, A, E]) closePublishers() {
	for _, p := range r.settings.Publishers {
		if err := p.Close(); err != nil {
			r.logger.Warn("closing transition publisher", "error", err)
		}
	}
}

func (r *Runtime[S, I, A, E]) publish(ctx context.Context, t Transition[S, A]) {
	if len(r.settings.Publishers) == 0 {
		return
	}
	record := t.Record(r.settings.ID)
	for _, p := range r.settings.Publishers {
		if err := p.Publish(ctx, record); err != nil {
			r.logger.Warn("publishing transition", "seq", record.Seq, "error", err)
		}
	}
}

// Lifetime is the runtime's context once started, context.Background before.
// Producers block on it under OverflowBlock.
func (r *Runtime[S, I, A, E]) Lifetime() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// Submit enqueues an intent.
func (r *Runtime[S, I, A, E]) Submit(ctx context.Context, intent I) error {
	if err := r.intents.Push(ctx, intent); err != nil {
		return err
	}
	r.metrics.intentsSubmitted.Inc(1)
	return nil
}

// Dispatch enqueues an action for the reduction loop.
func (r *Runtime[S, I, A, E]) Dispatch(action A) error {
	if err := r.actions.Push(r.Lifetime(), action); err != nil {
		return err
	}
	r.metrics.actionsDispatched.Inc(1)
	return nil
}

// Emit publishes a one-shot event.
func (r *Runtime[S, I, A, E]) Emit(event E) error {
	if err := r.events.Publish(event); err != nil {
		return err
	}
	r.metrics.eventsEmitted.Inc(1)
	r.logger.Debug("event emitted", "event", describeLazily(event))
	return nil
}

// ID returns the runtime's identifier.
func (r *Runtime[S, I, A, E]) ID() string {
	return r.settings.ID
}

// Logger returns the runtime's logger, already tagged with the container ID.
func (r *Runtime[S, I, A, E]) Logger() *slog.Logger {
	return r.logger
}

// State returns the latest published state.
func (r *Runtime[S, I, A, E]) State() S {
	return r.state.Load()
}

// SubscribeState starts a conflating state subscription.
func (r *Runtime[S, I, A, E]) SubscribeState() *StateSubscription[S] {
	return r.state.Subscribe()
}

// SubscribeEvents starts an event subscription.
func (r *Runtime[S, I, A, E]) SubscribeEvents() *EventSubscription[E] {
	return r.events.Subscribe()
}

// PendingEvents returns the number of emitted events nobody has consumed.
func (r *Runtime[S, I, A, E]) PendingEvents() int {
	return r.events.Pending()
}

// PendingIntents returns the number of queued intents.
func (r *Runtime[S, I, A, E]) PendingIntents() int {
	return r.intents.Len()
}

// Done is closed once the runtime has fully stopped.
func (r *Runtime[S, I, A, E]) Done() <-chan struct{} {
	return r.done
}
