package core

import (
	"context"
	"sync"

	"github.com/comalice/mvix/internal/primitives"
)

// EventChannel is an unbounded, ordered log of consumable events.
//
// Events stay in the log until some subscriber extracts them, so an event
// published while nobody listens is delivered to the next subscriber. Once
// extracted, an event is never delivered again.
type EventChannel[E any] struct {
	mu      sync.Mutex
	entries []*primitives.Consumable[E]
	base    uint64 // sequence number of entries[0]
	notify  chan struct{}
	closed  bool

	onConsume func()
}

// NewEventChannel creates an open channel. onConsume may be nil.
func NewEventChannel[E any](onConsume func()) *EventChannel[E] {
	return &EventChannel[E]{
		notify:    make(chan struct{}),
		onConsume: onConsume,
	}
}

// Publish appends an event. It never blocks; it fails only after Close.
func (c *EventChannel[E]) Publish(event E) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return primitives.ErrClosed
	}
	c.entries = append(c.entries, primitives.NewConsumable(event))
	close(c.notify)
	c.notify = make(chan struct{})
	return nil
}

// Pending returns the number of events not yet consumed.
func (c *EventChannel[E]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if !e.Consumed() {
			n++
		}
	}
	return n
}

// Close completes all subscriptions and discards unconsumed events.
func (c *EventChannel[E]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.entries = nil
	close(c.notify)
}

// Subscribe returns a subscription that starts at the oldest retained event.
func (c *EventChannel[E]) Subscribe() *EventSubscription[E] {
	return &EventSubscription[E]{ch: c}
}

// prune drops consumed entries from the head. Caller holds mu.
func (c *EventChannel[E]) prune() {
	i := 0
	for i < len(c.entries) && c.entries[i].Consumed() {
		c.entries[i] = nil
		i++
	}
	c.entries = c.entries[i:]
	c.base += uint64(i)
}

// EventSubscription walks the channel and yields only events it wins.
// It must not be shared between goroutines.
type EventSubscription[E any] struct {
	ch   *EventChannel[E]
	next uint64
}

// Next returns the next event this subscriber manages to extract. Events
// taken by competing subscribers are skipped. Extraction happens only while
// the caller is waiting, so a cancelled Next never loses an event.
func (s *EventSubscription[E]) Next(ctx context.Context) (E, error) {
	var zero E
	c := s.ch
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return zero, primitives.ErrClosed
		}
		if s.next < c.base {
			s.next = c.base
		}
		for s.next < c.base+uint64(len(c.entries)) {
			entry := c.entries[s.next-c.base]
			s.next++
			if v, ok := entry.Extract(); ok {
				c.prune()
				c.mu.Unlock()
				if c.onConsume != nil {
					c.onConsume()
				}
				return v, nil
			}
		}
		wait := c.notify
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-wait:
		}
	}
}
