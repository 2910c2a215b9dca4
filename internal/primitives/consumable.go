package primitives

import "sync/atomic"

// Consumable is a single-use box around a value.
//
// Any number of goroutines may race on Extract; exactly one of them receives
// the value.
type Consumable[T any] struct {
	value   T
	handled atomic.Bool
}

// NewConsumable wraps v.
func NewConsumable[T any](v T) *Consumable[T] {
	return &Consumable[T]{value: v}
}

// Extract returns the wrapped value and true on the first call only.
// Every other call returns the zero value and false.
func (c *Consumable[T]) Extract() (T, bool) {
	if c.handled.CompareAndSwap(false, true) {
		return c.value, true
	}
	var zero T
	return zero, false
}

// Consumed reports whether the value has already been extracted.
func (c *Consumable[T]) Consumed() bool {
	return c.handled.Load()
}
