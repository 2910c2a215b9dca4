// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/comalice/mvix"
	"github.com/comalice/mvix/production"
)

// Counter is the benchmark state: a running total plus the number of
// reductions applied.
type Counter struct {
	Total   int64
	Applied int64
}

// CounterMachine dispatches every intent as an action and emits an event for
// negative intents. reduced is incremented after every reduction when non-nil.
func CounterMachine(reduced *atomic.Int64) mvix.Funcs[Counter, int64, int64, int64] {
	return mvix.Funcs[Counter, int64, int64, int64]{
		HandleFunc: func(ctx context.Context, intent int64, d mvix.Dispatcher[Counter, int64, int64]) error {
			if intent < 0 {
				return d.Emit(intent)
			}
			return d.Dispatch(intent)
		},
		ReduceFunc: func(ctx context.Context, s Counter, a int64) (Counter, error) {
			if reduced != nil {
				reduced.Add(1)
			}
			return Counter{Total: s.Total + a, Applied: s.Applied + 1}, nil
		},
	}
}

// NewCounter starts a counter container with logging discarded.
func NewCounter(ctx context.Context, reduced *atomic.Int64, opts ...mvix.Option) (*mvix.Container[Counter, int64, int64, int64], error) {
	opts = append([]mvix.Option{mvix.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return mvix.New[Counter, int64, int64, int64](ctx, Counter{}, CounterMachine(reduced), opts...)
}

// GenTrace creates n transition records cycling through states s0..s(states-1).
func GenTrace(n, states int) []mvix.TransitionRecord {
	if states < 1 {
		states = 1
	}
	at := time.Now()
	records := make([]mvix.TransitionRecord, n)
	for i := range records {
		records[i] = mvix.TransitionRecord{
			ContainerID: "bench",
			Seq:         uint64(i + 1),
			Action:      "tick",
			From:        fmt.Sprintf("s%d", i%states),
			To:          fmt.Sprintf("s%d", (i+1)%states),
			Timestamp:   at.Add(time.Duration(i) * time.Millisecond),
		}
	}
	return records
}

// GenTraceYAML renders GenTrace(n, states) the way YAMLTraceWriter writes it.
func GenTraceYAML(n, states int) []byte {
	var buf bytes.Buffer
	w := production.NewYAMLTraceWriter(&buf)
	for _, r := range GenTrace(n, states) {
		if err := w.Publish(context.Background(), r); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}
