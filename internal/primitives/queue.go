package primitives

import (
	"context"
	"sync"
)

// Queue is an ordered multi-producer, single-consumer queue.
//
// A zero capacity makes the queue unbounded: Push never blocks and never
// fails while the queue is open. Bounded queues apply their OverflowPolicy.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	policy   OverflowPolicy
	onDrop   func(T)

	ready  chan struct{} // wakes the consumer, cap 1
	space  chan struct{} // closed and replaced when a bounded queue frees a slot
	done   chan struct{}
	closed bool
}

// QueueOption configures a Queue.
type QueueOption[T any] func(*Queue[T])

// WithCapacity bounds the queue. Values <= 0 keep it unbounded.
func WithCapacity[T any](capacity int, policy OverflowPolicy) QueueOption[T] {
	return func(q *Queue[T]) {
		if capacity <= 0 {
			return
		}
		q.capacity = capacity
		q.policy = policy
	}
}

// WithDropHandler is called with every value evicted by OverflowDropOldest.
func WithDropHandler[T any](fn func(T)) QueueOption[T] {
	return func(q *Queue[T]) {
		q.onDrop = fn
	}
}

// NewQueue creates an open queue.
func NewQueue[T any](opts ...QueueOption[T]) *Queue[T] {
	q := &Queue[T]{
		ready: make(chan struct{}, 1),
		space: make(chan struct{}),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends v. ctx only matters for a full queue with OverflowBlock.
func (q *Queue[T]) Push(ctx context.Context, v T) error {
	q.mu.Lock()
	for {
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if q.capacity == 0 || len(q.items) < q.capacity {
			q.items = append(q.items, v)
			q.mu.Unlock()
			q.signal()
			return nil
		}

		switch q.policy {
		case OverflowReject:
			q.mu.Unlock()
			return ErrQueueFull
		case OverflowDropOldest:
			evicted := q.items[0]
			q.items = append(q.items[1:], v)
			q.mu.Unlock()
			q.signal()
			if q.onDrop != nil {
				q.onDrop(evicted)
			}
			return nil
		}

		space := q.space
		q.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
		case <-space:
		}
		q.mu.Lock()
	}
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes the head, waiting until a value is available. It returns
// ErrClosed once the queue is closed; values still queued are discarded.
// Only one goroutine may call Pop.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return zero, ErrClosed
		}
		if len(q.items) > 0 {
			v := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			if q.capacity > 0 {
				close(q.space)
				q.space = make(chan struct{})
			}
			q.mu.Unlock()
			return v, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-q.done:
		case <-q.ready:
		}
	}
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further pushes and wakes every waiter. Safe to call multiple times.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	close(q.done)
}
