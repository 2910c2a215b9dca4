package extensibility

import (
	"context"
	"log/slog"
	"time"

	"github.com/comalice/mvix"
)

// LoggingMachine wraps a StateMachine and logs every intent and reduction
// with its duration.
type LoggingMachine[S, I, A, E any] struct {
	inner  mvix.StateMachine[S, I, A, E]
	logger *slog.Logger
}

// WithLogging wraps inner. A nil logger means slog.Default().
func WithLogging[S, I, A, E any](inner mvix.StateMachine[S, I, A, E], logger *slog.Logger) *LoggingMachine[S, I, A, E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingMachine[S, I, A, E]{inner: inner, logger: logger}
}

func (m *LoggingMachine[S, I, A, E]) HandleIntent(ctx context.Context, intent I, d mvix.Dispatcher[S, A, E]) error {
	m.logger.DebugContext(ctx, "handling intent", "intent", intent)
	start := time.Now()
	err := m.inner.HandleIntent(ctx, intent, d)
	m.logger.DebugContext(ctx, "intent handled", "intent", intent, "duration", time.Since(start), "error", err)
	return err
}

func (m *LoggingMachine[S, I, A, E]) Reduce(ctx context.Context, state S, action A) (S, error) {
	start := time.Now()
	next, err := m.inner.Reduce(ctx, state, action)
	m.logger.DebugContext(ctx, "action reduced", "action", action, "duration", time.Since(start), "error", err)
	return next, err
}

// OnIntentError forwards to the wrapped machine when it handles errors.
func (m *LoggingMachine[S, I, A, E]) OnIntentError(ctx context.Context, intent I, err error, d mvix.Dispatcher[S, A, E]) {
	m.logger.DebugContext(ctx, "intent failed", "intent", intent, "error", err)
	if eh, ok := m.inner.(mvix.IntentErrorHandler[S, I, A, E]); ok {
		eh.OnIntentError(ctx, intent, err, d)
	}
}
