package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/comalice/mvix"
)

// FactorialState is what the screen shows.
type FactorialState struct {
	Input     int
	Pending   int
	Result    string
	Digits    int
	Error     string
	Completed int
}

func (s FactorialState) String() string {
	switch {
	case s.Pending > 0:
		return fmt.Sprintf("computing %d!", s.Input)
	case s.Error != "":
		return "error: " + s.Error
	case s.Result != "":
		return fmt.Sprintf("%d! has %d digits", s.Input, s.Digits)
	default:
		return "idle"
	}
}

// Compute asks for n!. RequestID ties the notification back to the request.
type Compute struct {
	N         int
	RequestID string
}

type factorialAction interface{ isFactorialAction() }

type started struct{ N int }

type completed struct {
	N      int
	Result string
}

// failed reports a request that ended in error. InFlight is set when the
// request had already been started.
type failed struct {
	N        int
	Reason   string
	InFlight bool
}

func (started) isFactorialAction()   {}
func (completed) isFactorialAction() {}
func (failed) isFactorialAction()    {}

// Notification is the one-shot event shown once a result is ready.
type Notification struct {
	RequestID string
	Title     string
	Message   string
}

// maxInput keeps results printable.
const maxInput = 5000

// FactorialMachine computes factorials off the intent loop and notifies once
// per result.
type FactorialMachine struct{}

func (FactorialMachine) HandleIntent(ctx context.Context, intent Compute, d mvix.Dispatcher[FactorialState, factorialAction, Notification]) error {
	if intent.N < 0 || intent.N > maxInput {
		return fmt.Errorf("input %d out of range [0, %d]", intent.N, maxInput)
	}
	if err := d.Dispatch(started{N: intent.N}); err != nil {
		return err
	}

	go func() {
		result, err := factorial(ctx, intent.N)
		if err != nil {
			_ = d.Dispatch(failed{N: intent.N, Reason: err.Error(), InFlight: true})
			return
		}
		text := result.String()
		if err := d.Dispatch(completed{N: intent.N, Result: text}); err != nil {
			return
		}
		_ = d.Emit(Notification{
			RequestID: intent.RequestID,
			Title:     "Factorial computed",
			Message:   fmt.Sprintf("%d! = %s", intent.N, abbreviate(text)),
		})
	}()
	return nil
}

func (FactorialMachine) OnIntentError(ctx context.Context, intent Compute, err error, d mvix.Dispatcher[FactorialState, factorialAction, Notification]) {
	_ = d.Dispatch(failed{N: intent.N, Reason: err.Error()})
}

func (FactorialMachine) Reduce(ctx context.Context, s FactorialState, a factorialAction) (FactorialState, error) {
	switch a := a.(type) {
	case started:
		return FactorialState{Input: a.N, Pending: s.Pending + 1, Completed: s.Completed}, nil
	case completed:
		if s.Pending == 0 {
			return s, mvix.InvalidTransition(s, a)
		}
		s.Pending--
		s.Completed++
		// Only the latest request's result is shown.
		if a.N == s.Input {
			s.Result, s.Digits, s.Error = a.Result, len(a.Result), ""
		}
		return s, nil
	case failed:
		if a.InFlight {
			if s.Pending == 0 {
				return s, mvix.InvalidTransition(s, a)
			}
			s.Pending--
		}
		s.Completed++
		s.Input, s.Result, s.Digits, s.Error = a.N, "", 0, a.Reason
		return s, nil
	}
	return s, mvix.InvalidTransition(s, a)
}

func factorial(ctx context.Context, n int) (*big.Int, error) {
	result := big.NewInt(1)
	for i := 2; i <= n; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		result.Mul(result, big.NewInt(int64(i)))
	}
	return result, nil
}

func abbreviate(s string) string {
	if len(s) <= 24 {
		return s
	}
	return fmt.Sprintf("%s...%s (%d digits)", s[:10], s[len(s)-10:], len(s))
}
