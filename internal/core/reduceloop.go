package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/comalice/mvix/internal/primitives"
)

// Reducer computes the next state. It must not perform I/O or dispatch.
type Reducer[S, A any] func(ctx context.Context, state S, action A) (S, error)

// ReductionLoop folds actions into state, one at a time, in the order they
// were dispatched. The fold is seeded once with the initial state and lives
// as long as the loop.
type ReductionLoop[S, A any] struct {
	queue   *primitives.Queue[A]
	reduce  Reducer[S, A]
	cell    *StateCell[S]
	current S
	seq     uint64
	strict  bool
	observe func(ctx context.Context, t Transition[S, A])
	logger  *slog.Logger
	metrics *Metrics
}

// NewReductionLoop wires a loop that publishes into cell. observe may be nil.
func NewReductionLoop[S, A any](queue *primitives.Queue[A], reduce Reducer[S, A], cell *StateCell[S], strict bool, observe func(context.Context, Transition[S, A]), logger *slog.Logger, metrics *Metrics) *ReductionLoop[S, A] {
	return &ReductionLoop[S, A]{
		queue:   queue,
		reduce:  reduce,
		cell:    cell,
		current: cell.Load(),
		strict:  strict,
		observe: observe,
		logger:  logger,
		metrics: metrics,
	}
}

// Run reduces actions until ctx is cancelled or the queue is closed.
func (l *ReductionLoop[S, A]) Run(ctx context.Context) {
	for {
		action, err := l.queue.Pop(ctx)
		if err != nil {
			return
		}
		l.step(ctx, action)
	}
}

func (l *ReductionLoop[S, A]) step(ctx context.Context, action A) {
	l.logger.Debug("reducing action", "action", describeLazily(action), "old_state", describeLazily(l.current))

	start := time.Now()
	next, err := l.reduce(ctx, l.current, action)
	if ctx.Err() != nil {
		// Cancelled mid-reduction: nothing partial is published.
		l.logger.Debug("reduction cancelled", "action", describeLazily(action))
		return
	}
	l.metrics.reduced(start, err)
	if err != nil {
		if l.strict {
			panic(fmt.Sprintf("mvix: reduce %s in state %s: %v", Describe(action), Describe(l.current), err))
		}
		l.logger.Error("reduce failed, state unchanged",
			"action", describeLazily(action), "state", describeLazily(l.current), "error", err)
		return
	}

	prev := l.current
	l.current = next
	l.seq++
	l.cell.Publish(next)
	l.logger.Debug("new state", "state", describeLazily(next), "seq", l.seq)

	if l.observe != nil {
		l.observe(ctx, Transition[S, A]{
			Seq:    l.seq,
			Action: action,
			From:   prev,
			To:     next,
			At:     time.Now(),
		})
	}
}
