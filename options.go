package mvix

import (
	"log/slog"

	"github.com/comalice/mvix/config"
	"github.com/comalice/mvix/internal/core"
	"github.com/comalice/mvix/internal/primitives"
)

// Option configures a Container.
type Option = core.Option

// OverflowPolicy decides what a full bounded queue does with a new value.
type OverflowPolicy = primitives.OverflowPolicy

const (
	OverflowBlock      = primitives.OverflowBlock
	OverflowDropOldest = primitives.OverflowDropOldest
	OverflowReject     = primitives.OverflowReject
)

// TransitionRecord describes one successful reduction.
type TransitionRecord = core.TransitionRecord

// TransitionPublisher receives a TransitionRecord after every successful
// reduction, in order, on the reduction goroutine.
type TransitionPublisher = core.TransitionPublisher

var (
	WithID           = core.WithID
	WithLogger       = core.WithLogger
	WithMetrics      = core.WithMetrics
	WithIntentQueue  = core.WithIntentQueue
	WithActionQueue  = core.WithActionQueue
	WithPublisher    = core.WithPublisher
	WithStrictReduce = core.WithStrictReduce
)

// WithConfig applies a loaded configuration. Options given after it win.
// Metrics settings are left to the caller, which owns the reporter.
// An unknown overflow policy falls back to block and is logged.
func WithConfig(cfg *config.Config) Option {
	return func(s *core.Settings) {
		if cfg == nil {
			return
		}
		if cfg.ID != "" {
			s.ID = cfg.ID
		}
		s.Logger = cfg.Logging.NewLogger(nil)
		s.IntentCapacity, s.IntentPolicy = queueSettings(s.Logger, "intents", cfg.Intents)
		s.ActionCapacity, s.ActionPolicy = queueSettings(s.Logger, "actions", cfg.Actions)
		s.StrictReduce = cfg.StrictReduce
	}
}

func queueSettings(logger *slog.Logger, queue string, q config.QueueConfig) (int, OverflowPolicy) {
	policy, err := primitives.ParseOverflowPolicy(q.Overflow)
	if err != nil {
		logger.Warn("invalid queue config, using block policy", "queue", queue, "error", err)
	}
	return q.Capacity, policy
}
