// Package lifecycle binds stream collection to the lifetime of a view. A
// Binding is an explicit state machine over Inactive, Active and Destroyed:
// blocks registered with Repeat run while the binding is Active and are
// cancelled when it leaves that state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State is the lifecycle state of a Binding.
type State int

const (
	Inactive State = iota
	Active
	Destroyed
)

func (s State) String() string {
	switch s {
	case Inactive:
		return "inactive"
	case Active:
		return "active"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when the binding cannot move to the
// requested state, for example Activate after Destroy.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// transitions lists the allowed moves. Destroyed is terminal.
var transitions = map[State][]State{
	Inactive: {Active, Destroyed},
	Active:   {Inactive, Destroyed},
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionHook observes every state change. It runs with the binding
// locked and must not call back into it.
type TransitionHook func(from, to State)

// Option configures a Binding.
type Option func(*Binding)

// WithLogger sets the logger for state changes. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binding) {
		b.logger = logger
	}
}

// WithTransitionHook adds fn to the hooks called on each state change.
func WithTransitionHook(fn TransitionHook) Option {
	return func(b *Binding) {
		if fn != nil {
			b.hooks = append(b.hooks, fn)
		}
	}
}

// Binding is safe for concurrent use.
type Binding struct {
	mu     sync.Mutex
	state  State
	parent context.Context
	logger *slog.Logger
	hooks  []TransitionHook

	repeats []func(context.Context)
	pending []func(context.Context)

	activeCtx    context.Context
	cancelActive context.CancelFunc
	running      sync.WaitGroup

	stopAfter func() bool
	done      chan struct{}
}

// New creates an Inactive binding. Cancelling parent destroys it.
func New(parent context.Context, opts ...Option) *Binding {
	b := &Binding{
		state:  Inactive,
		parent: parent,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.stopAfter = context.AfterFunc(parent, func() { _ = b.Destroy() })
	return b
}

// State returns the current lifecycle state.
func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Done is closed when the binding is destroyed.
func (b *Binding) Done() <-chan struct{} {
	return b.done
}

// Activate moves Inactive to Active, starting every Repeat block and
// running the blocks queued by WhenActive. Activating an active binding is a
// no-op.
func (b *Binding) Activate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Active {
		return nil
	}
	if err := b.moveLocked(Active); err != nil {
		return err
	}

	b.activeCtx, b.cancelActive = context.WithCancel(b.parent)
	for _, block := range b.repeats {
		b.startLocked(block)
	}
	for _, fn := range b.pending {
		b.startLocked(fn)
	}
	b.pending = nil
	return nil
}

// Deactivate moves Active to Inactive and cancels every running block.
// Deactivating an inactive binding is a no-op.
func (b *Binding) Deactivate() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Inactive {
		return nil
	}
	if err := b.moveLocked(Inactive); err != nil {
		return err
	}
	b.cancelLocked()
	return nil
}

// Destroy cancels every running block, drops every registration and closes
// Done. Later calls are no-ops.
func (b *Binding) Destroy() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Destroyed {
		return nil
	}
	if err := b.moveLocked(Destroyed); err != nil {
		return err
	}
	b.cancelLocked()
	b.repeats = nil
	b.pending = nil
	b.stopAfter()
	close(b.done)
	return nil
}

// Wait blocks until every block started by the binding has returned.
func (b *Binding) Wait() {
	b.running.Wait()
}

// Repeat registers block to run on every Inactive to Active transition. The
// context passed to block is cancelled when the binding leaves Active. If
// the binding is Active now, block starts immediately. Repeat on a
// destroyed binding does nothing.
func (b *Binding) Repeat(block func(ctx context.Context)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Destroyed:
		return
	case Active:
		b.startLocked(block)
	}
	b.repeats = append(b.repeats, block)
}

// WhenActive runs fn once, now if the binding is Active, otherwise on the
// next activation. It is dropped if the binding is destroyed first.
func (b *Binding) WhenActive(fn func(ctx context.Context)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Destroyed:
	case Active:
		b.startLocked(fn)
	default:
		b.pending = append(b.pending, fn)
	}
}

func (b *Binding) moveLocked(to State) error {
	from := b.state
	if !allowed(from, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, from, to)
	}
	b.state = to
	b.logger.Debug("lifecycle transition", "from", from, "to", to)
	for _, hook := range b.hooks {
		hook(from, to)
	}
	return nil
}

func (b *Binding) startLocked(block func(context.Context)) {
	ctx := b.activeCtx
	b.running.Add(1)
	go func() {
		defer b.running.Done()
		block(ctx)
	}()
}

func (b *Binding) cancelLocked() {
	if b.cancelActive != nil {
		b.cancelActive()
		b.cancelActive = nil
	}
}
