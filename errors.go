package mvix

import (
	"errors"
	"fmt"

	"github.com/comalice/mvix/internal/core"
	"github.com/comalice/mvix/internal/primitives"
)

var (
	// ErrClosed is returned by every operation on a closed container and
	// completes its streams.
	ErrClosed = primitives.ErrClosed
	// ErrQueueFull is returned when a bounded queue rejects a value.
	ErrQueueFull = primitives.ErrQueueFull
	// ErrInvalidTransition marks an action the current state cannot accept.
	ErrInvalidTransition = errors.New("invalid transition")
)

// PanicError carries a value recovered from a panicking intent handler.
type PanicError = core.PanicError

// InvalidTransition builds an error wrapping ErrInvalidTransition, for
// reducers that reject an action in the given state.
func InvalidTransition(state, action any) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, core.Describe(action), core.Describe(state))
}
