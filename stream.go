package mvix

import (
	"context"
	"iter"
)

// Subscription is one subscriber's cursor into a stream. Next blocks until a
// value is available, ctx is done, or the stream completes with ErrClosed.
// A Subscription must not be shared between goroutines.
type Subscription[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Stream is a cold source of subscriptions. For state streams every
// subscription starts with the current state and then conflates; for event
// streams each event goes to exactly one subscription across all of them.
type Stream[T any] interface {
	Subscribe() Subscription[T]
}

// StreamFunc adapts a function to Stream.
type StreamFunc[T any] func() Subscription[T]

func (f StreamFunc[T]) Subscribe() Subscription[T] {
	return f()
}

// Seq subscribes to stream each time the returned sequence is ranged over
// and yields values until ctx is done, the stream completes, or the loop
// breaks.
func Seq[T any](ctx context.Context, stream Stream[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		sub := stream.Subscribe()
		for {
			v, err := sub.Next(ctx)
			if err != nil {
				return
			}
			if !yield(v) {
				return
			}
		}
	}
}
