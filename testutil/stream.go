package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/comalice/mvix"
)

// Next returns the next value of sub or fails the test after timeout.
func Next[T any](tb testing.TB, sub mvix.Subscription[T], timeout time.Duration) T {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	v, err := sub.Next(ctx)
	if err != nil {
		tb.Fatalf("no value within %v: %v", timeout, err)
	}
	return v
}

// ExpectNoValue fails the test if sub yields a value within wait. A stream
// completing with ErrClosed counts as no value.
func ExpectNoValue[T any](tb testing.TB, sub mvix.Subscription[T], wait time.Duration) {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()

	v, err := sub.Next(ctx)
	switch {
	case err == nil:
		tb.Fatalf("unexpected value %+v", v)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, mvix.ErrClosed):
	default:
		tb.Fatalf("unexpected error: %v", err)
	}
}

// AwaitValue subscribes to stream and returns the first value satisfying
// pred, failing the test after timeout.
func AwaitValue[T any](tb testing.TB, stream mvix.Stream[T], pred func(T) bool, timeout time.Duration) T {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sub := stream.Subscribe()
	for {
		v, err := sub.Next(ctx)
		if err != nil {
			tb.Fatalf("no matching value within %v: %v", timeout, err)
		}
		if pred(v) {
			return v
		}
	}
}

// Eventually polls cond until it holds or fails the test after timeout.
func Eventually(tb testing.TB, cond func() bool, timeout time.Duration, msg string) {
	tb.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			tb.Fatalf("timed out after %v: %s", timeout, msg)
		}
		time.Sleep(time.Millisecond)
	}
}
