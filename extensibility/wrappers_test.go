package extensibility

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/comalice/mvix"
	"github.com/comalice/mvix/testutil"
)

type counter struct {
	Count   int
	Refused int
}

// counterMachine increments on "tick" and counts refusals reported through
// OnIntentError.
func counterMachine() mvix.Funcs[counter, string, string, string] {
	return mvix.Funcs[counter, string, string, string]{
		HandleFunc: func(ctx context.Context, intent string, d mvix.Dispatcher[counter, string, string]) error {
			return d.Dispatch(intent)
		},
		ReduceFunc: func(ctx context.Context, s counter, a string) (counter, error) {
			switch a {
			case "tick":
				s.Count++
			case "refused":
				s.Refused++
			}
			return s, nil
		},
		ErrorFunc: func(ctx context.Context, intent string, err error, d mvix.Dispatcher[counter, string, string]) {
			if errors.Is(err, ErrIntentRejected) {
				_ = d.Dispatch("refused")
			}
		},
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// syncBuffer lets the test read log output written by the container goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWithLogging(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	m := WithLogging[counter, string, string, string](counterMachine(), logger)
	c, err := mvix.New[counter, string, string, string](context.Background(), counter{}, m, mvix.WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.SubmitIntent(context.Background(), "tick"); err != nil {
		t.Fatal(err)
	}
	testutil.AwaitValue(t, c.StateStream(), func(s counter) bool { return s.Count == 1 }, testutil.DefaultTimeout)
	testutil.Eventually(t, func() bool { return strings.Contains(out.String(), "action reduced") }, testutil.DefaultTimeout, "reduce logged")

	logs := out.String()
	for _, want := range []string{"handling intent", "intent handled", "duration="} {
		if !strings.Contains(logs, want) {
			t.Errorf("log output missing %q:\n%s", want, logs)
		}
	}
}

func TestWithGuard(t *testing.T) {
	below := func(limit int) Guard[counter, string] {
		return func(s counter, intent string) bool { return s.Count < limit }
	}
	m := WithGuard[counter, string, string, string](counterMachine(), All(below(3), nil))

	c, err := mvix.New[counter, string, string, string](context.Background(), counter{}, m, mvix.WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 5; i++ {
		if err := c.SubmitIntent(context.Background(), "tick"); err != nil {
			t.Fatal(err)
		}
		// Guards read the published state, so wait for each tick to land.
		testutil.AwaitValue(t, c.StateStream(), func(s counter) bool { return s.Count+s.Refused == i+1 }, testutil.DefaultTimeout)
	}

	got := c.CurrentState()
	if got.Count != 3 || got.Refused != 2 {
		t.Errorf("got %+v, want Count=3 Refused=2", got)
	}
}

func TestWithGuard_PanicFailsClosed(t *testing.T) {
	m := WithGuard[counter, string, string, string](counterMachine(), func(counter, string) bool {
		panic("guard bug")
	})
	d := &stubDispatcher{}
	err := m.HandleIntent(context.Background(), "tick", d)
	if !errors.Is(err, ErrIntentRejected) {
		t.Fatalf("panicking guard must reject, got %v", err)
	}
	if len(d.dispatched) != 0 {
		t.Errorf("rejected intent dispatched %v", d.dispatched)
	}
}

type stubDispatcher struct {
	state      counter
	dispatched []string
}

func (d *stubDispatcher) Dispatch(a string) error {
	d.dispatched = append(d.dispatched, a)
	return nil
}

func (d *stubDispatcher) Emit(string) error { return nil }

func (d *stubDispatcher) State() counter { return d.state }

// A ticker feeding a guarded, logged machine: ticks stop counting at the limit.
func TestSourceWrapperIntegration(t *testing.T) {
	source := NewTickerSource(5*time.Millisecond, func(time.Time) string { return "tick" })
	defer source.Stop()

	m := WithLogging[counter, string, string, string](
		WithGuard[counter, string, string, string](counterMachine(), func(s counter, _ string) bool { return s.Count < 3 }),
		quiet(),
	)
	c, err := mvix.New[counter, string, string, string](context.Background(), counter{}, m, mvix.WithLogger(quiet()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.Attach(source)

	testutil.AwaitValue(t, c.StateStream(), func(s counter) bool { return s.Refused >= 2 }, testutil.DefaultTimeout)
	// The guard reads the last published state, so a tick racing the third
	// reduction may still get through.
	if got := c.CurrentState().Count; got < 3 {
		t.Errorf("Count = %d, want at least 3", got)
	}
}
