package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/comalice/mvix/internal/primitives"
)

// IntentHandler handles a single intent.
type IntentHandler[I any] func(ctx context.Context, intent I) error

// IntentErrorHandler receives the failure of a single intent.
type IntentErrorHandler[I any] func(ctx context.Context, intent I, err error)

// PanicError is a recovered panic from an intent handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("intent handler panic: %v", e.Value)
}

// IntentLoop dequeues intents in submission order and hands each one to the
// handler. The next intent is dequeued only after the handler returns;
// goroutines started by the handler are not awaited.
type IntentLoop[I any] struct {
	queue   *primitives.Queue[I]
	handle  IntentHandler[I]
	onError IntentErrorHandler[I]
	logger  *slog.Logger
	metrics *Metrics
}

// NewIntentLoop wires a loop over queue. onError may be nil.
func NewIntentLoop[I any](queue *primitives.Queue[I], handle IntentHandler[I], onError IntentErrorHandler[I], logger *slog.Logger, metrics *Metrics) *IntentLoop[I] {
	return &IntentLoop[I]{
		queue:   queue,
		handle:  handle,
		onError: onError,
		logger:  logger,
		metrics: metrics,
	}
}

// Run processes intents until ctx is cancelled or the queue is closed.
func (l *IntentLoop[I]) Run(ctx context.Context) {
	for {
		intent, err := l.queue.Pop(ctx)
		if err != nil {
			return
		}
		l.process(ctx, intent)
	}
}

func (l *IntentLoop[I]) process(ctx context.Context, intent I) {
	l.logger.Debug("processing intent", "intent", describeLazily(intent))

	start := time.Now()
	err := l.invoke(ctx, intent)
	l.metrics.intentHandled(start, err)
	if err == nil {
		return
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		l.logger.Debug("intent cancelled", "intent", describeLazily(intent))
		return
	}

	l.logger.Error("intent handler failed", "intent", describeLazily(intent), "error", err)
	if l.onError == nil {
		return
	}
	if herr := l.recoverInto(func() { l.onError(ctx, intent, err) }); herr != nil {
		l.logger.Error("intent error handler failed", "intent", describeLazily(intent), "error", herr)
	}
}

func (l *IntentLoop[I]) invoke(ctx context.Context, intent I) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return l.handle(ctx, intent)
}

func (l *IntentLoop[I]) recoverInto(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}
