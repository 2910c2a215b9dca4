// Options for configuring Runtime instances.
package core

import (
	"log/slog"

	"github.com/comalice/mvix/internal/primitives"
	"github.com/google/uuid"
	"github.com/uber-go/tally/v4"
)

// Settings is the non-generic configuration shared by every Runtime.
type Settings struct {
	ID             string
	Logger         *slog.Logger
	Scope          tally.Scope
	IntentCapacity int
	IntentPolicy   primitives.OverflowPolicy
	ActionCapacity int
	ActionPolicy   primitives.OverflowPolicy
	Publishers     []TransitionPublisher
	StrictReduce   bool
}

// Option applies configuration via the functional options pattern.
type Option func(*Settings)

// NewSettings applies opts over the defaults: random ID, slog.Default(),
// no metrics, unbounded queues.
func NewSettings(opts ...Option) Settings {
	s := Settings{}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	if s.Scope == nil {
		s.Scope = tally.NoopScope
	}
	return s
}

// WithID names the container in logs, metrics tags and transition records.
func WithID(id string) Option {
	return func(s *Settings) {
		s.ID = id
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Settings) {
		s.Logger = logger
	}
}

// WithMetrics reports runtime metrics to scope.
func WithMetrics(scope tally.Scope) Option {
	return func(s *Settings) {
		s.Scope = scope
	}
}

// WithIntentQueue bounds the intent queue. Capacity 0 keeps it unbounded.
func WithIntentQueue(capacity int, policy primitives.OverflowPolicy) Option {
	return func(s *Settings) {
		s.IntentCapacity = capacity
		s.IntentPolicy = policy
	}
}

// WithActionQueue bounds the action queue. Capacity 0 keeps it unbounded.
func WithActionQueue(capacity int, policy primitives.OverflowPolicy) Option {
	return func(s *Settings) {
		s.ActionCapacity = capacity
		s.ActionPolicy = policy
	}
}

// WithPublisher adds a transition publisher. May be given multiple times.
func WithPublisher(p TransitionPublisher) Option {
	return func(s *Settings) {
		if p != nil {
			s.Publishers = append(s.Publishers, p)
		}
	}
}

// WithStrictReduce makes a failed reduction panic instead of being logged.
func WithStrictReduce() Option {
	return func(s *Settings) {
		s.StrictReduce = true
	}
}
