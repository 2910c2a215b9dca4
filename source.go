package mvix

import "errors"

// IntentSource is an external producer of intents. The channel is closed
// when the source is exhausted.
type IntentSource[I any] interface {
	Intents() <-chan I
}

// Attach forwards every intent from src until src closes its channel or the
// container is closed. Rejected intents are logged and skipped.
func (c *Container[S, I, A, E]) Attach(src IntentSource[I]) {
	ch := src.Intents()
	go func() {
		for {
			select {
			case <-c.Done():
				return
			case intent, ok := <-ch:
				if !ok {
					return
				}
				err := c.SubmitIntent(c.rt.Lifetime(), intent)
				if errors.Is(err, ErrClosed) {
					return
				}
				if err != nil {
					c.rt.Logger().Warn("dropping intent from source", "error", err)
				}
			}
		}
	}()
}
