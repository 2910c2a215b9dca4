package lifecycle

import (
	"context"

	"github.com/comalice/mvix"
)

// Collect subscribes to stream each time b becomes Active and calls fn with
// every value until b leaves Active or the stream completes. A state stream
// therefore replays the current state on every activation, while an event
// stream resumes with whatever events are still pending.
func Collect[T any](b *Binding, stream mvix.Stream[T], fn func(T)) {
	b.Repeat(func(ctx context.Context) {
		for v := range mvix.Seq(ctx, stream) {
			fn(v)
		}
	})
}

// SubmitWhenActive submits intent to c the next time b is Active. Intents
// meant for a visible view are not delivered while it is in the background.
func SubmitWhenActive[S, I, A, E any](b *Binding, c *mvix.Container[S, I, A, E], intent I) {
	b.WhenActive(func(ctx context.Context) {
		if err := c.SubmitIntent(ctx, intent); err != nil {
			c.Logger().Warn("submitting intent on activation", "error", err)
		}
	})
}
