package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/comalice/mvix"
	"github.com/comalice/mvix/testutil"
	"github.com/stretchr/testify/require"
)

func TestBinding_Transitions(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	b := New(context.Background(), WithTransitionHook(func(from, to State) {
		mu.Lock()
		seen = append(seen, from.String()+"->"+to.String())
		mu.Unlock()
	}))

	require.Equal(t, Inactive, b.State())
	require.NoError(t, b.Activate())
	require.NoError(t, b.Activate())
	require.NoError(t, b.Deactivate())
	require.NoError(t, b.Deactivate())
	require.NoError(t, b.Destroy())
	require.NoError(t, b.Destroy())

	require.ErrorIs(t, b.Activate(), ErrInvalidTransition)
	require.ErrorIs(t, b.Deactivate(), ErrInvalidTransition)
	require.Equal(t, Destroyed, b.State())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"inactive->active", "active->inactive", "inactive->destroyed"}, seen)
}

func TestBinding_RepeatRestartsPerActivation(t *testing.T) {
	b := New(context.Background())
	var starts, stops atomic.Int32
	b.Repeat(func(ctx context.Context) {
		starts.Add(1)
		<-ctx.Done()
		stops.Add(1)
	})

	require.Zero(t, starts.Load(), "blocks do not run while inactive")

	for round := int32(1); round <= 3; round++ {
		require.NoError(t, b.Activate())
		testutil.Eventually(t, func() bool { return starts.Load() == round }, testutil.DefaultTimeout, "block started")
		require.NoError(t, b.Deactivate())
		testutil.Eventually(t, func() bool { return stops.Load() == round }, testutil.DefaultTimeout, "block cancelled")
	}

	require.NoError(t, b.Destroy())
	b.Wait()
}

func TestBinding_RepeatWhileActiveStartsNow(t *testing.T) {
	b := New(context.Background())
	require.NoError(t, b.Activate())

	started := make(chan struct{})
	b.Repeat(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	select {
	case <-started:
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("block registered while active did not start")
	}
	require.NoError(t, b.Destroy())
	b.Wait()
}

func TestBinding_WhenActiveRunsOnce(t *testing.T) {
	b := New(context.Background())
	var runs atomic.Int32
	b.WhenActive(func(context.Context) { runs.Add(1) })

	require.NoError(t, b.Activate())
	testutil.Eventually(t, func() bool { return runs.Load() == 1 }, testutil.DefaultTimeout, "one-shot ran")
	require.NoError(t, b.Deactivate())
	require.NoError(t, b.Activate())
	require.NoError(t, b.Destroy())
	b.Wait()
	require.Equal(t, int32(1), runs.Load())
}

func TestBinding_DestroyedIgnoresRegistrations(t *testing.T) {
	b := New(context.Background())
	require.NoError(t, b.Destroy())

	called := false
	b.Repeat(func(context.Context) { called = true })
	b.WhenActive(func(context.Context) { called = true })
	b.Wait()
	require.False(t, called)
}

func TestBinding_ParentCancelDestroys(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := New(ctx)
	require.NoError(t, b.Activate())

	cancel()
	select {
	case <-b.Done():
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal("binding outlived its parent")
	}
	require.Equal(t, Destroyed, b.State())
}

type view struct {
	Title string
	Count int
}

func viewMachine() mvix.Funcs[view, string, string, string] {
	return mvix.Funcs[view, string, string, string]{
		HandleFunc: func(ctx context.Context, intent string, d mvix.Dispatcher[view, string, string]) error {
			if intent == "notify" {
				return d.Emit("hello")
			}
			return d.Dispatch(intent)
		},
		ReduceFunc: func(ctx context.Context, s view, a string) (view, error) {
			s.Count++
			s.Title = a
			return s, nil
		},
	}
}

func TestCollect_OnlyWhileActive(t *testing.T) {
	c, err := mvix.New[view, string, string, string](context.Background(), view{}, viewMachine(), mvix.WithLogger(testLogger()))
	require.NoError(t, err)
	defer c.Close()

	b := New(context.Background())
	defer b.Destroy()

	var mu sync.Mutex
	var rendered []view
	var events []string
	Collect(b, c.StateStream(), func(v view) {
		mu.Lock()
		rendered = append(rendered, v)
		mu.Unlock()
	})
	Collect(b, c.EventStream(), func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	// Emitted while inactive: kept until the binding collects again.
	require.NoError(t, c.SubmitIntent(context.Background(), "notify"))
	require.NoError(t, c.SubmitIntent(context.Background(), "first"))
	testutil.Eventually(t, func() bool { return c.CurrentState().Count == 1 && c.PendingEvents() == 1 }, testutil.DefaultTimeout, "intents processed")

	mu.Lock()
	require.Empty(t, rendered)
	require.Empty(t, events)
	mu.Unlock()

	require.NoError(t, b.Activate())
	testutil.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1 && len(rendered) > 0 && rendered[len(rendered)-1].Count == 1
	}, testutil.DefaultTimeout, "pending event and current state collected on activation")

	require.NoError(t, b.Deactivate())
	b.Wait()
	mu.Lock()
	before := len(rendered)
	mu.Unlock()

	require.NoError(t, c.SubmitIntent(context.Background(), "second"))
	testutil.Eventually(t, func() bool { return c.CurrentState().Count == 2 }, testutil.DefaultTimeout, "second reduction")
	mu.Lock()
	require.Len(t, rendered, before, "nothing rendered while inactive")
	mu.Unlock()

	// Reactivation replays the latest state.
	require.NoError(t, b.Activate())
	testutil.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return rendered[len(rendered)-1].Title == "second"
	}, testutil.DefaultTimeout, "latest state collected after reactivation")
}

func TestSubmitWhenActive(t *testing.T) {
	c, err := mvix.New[view, string, string, string](context.Background(), view{}, viewMachine(), mvix.WithLogger(testLogger()))
	require.NoError(t, err)
	defer c.Close()

	b := New(context.Background())
	defer b.Destroy()

	SubmitWhenActive(b, c, "resumed")
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, c.CurrentState().Count, "intent held back while inactive")

	require.NoError(t, b.Activate())
	testutil.AwaitValue(t, c.StateStream(), func(v view) bool { return v.Title == "resumed" }, testutil.DefaultTimeout)
}

func TestCollect_StreamCompletesOnClose(t *testing.T) {
	c, err := mvix.New[view, string, string, string](context.Background(), view{}, viewMachine(), mvix.WithLogger(testLogger()))
	require.NoError(t, err)

	b := New(context.Background())
	defer b.Destroy()
	Collect(b, c.StateStream(), func(view) {})
	require.NoError(t, b.Activate())

	require.NoError(t, c.Close())
	waited := make(chan struct{})
	go func() {
		b.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(testutil.DefaultTimeout):
		t.Fatal(errors.New("collector kept running after the container closed"))
	}
}
