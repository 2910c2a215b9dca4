// Tests for ChannelPublisher delivery and container integration.
package production

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/comalice/mvix"
	"github.com/comalice/mvix/testutil"
)

func TestChannelPublisher_Delivery(t *testing.T) {
	ch := make(chan mvix.TransitionRecord, 10)
	p := NewChannelPublisher(ch)

	rec := mvix.TransitionRecord{ContainerID: "test-container", Seq: 1, Action: "go", From: "s1", To: "s2", Timestamp: time.Now()}
	if err := p.Publish(context.Background(), rec); err != nil {
		t.Errorf("Publish failed: %v", err)
	}

	select {
	case got := <-ch:
		if got.ContainerID != rec.ContainerID || got.Action != rec.Action || got.To != rec.To {
			t.Errorf("record mismatch: got %+v, want %+v", got, rec)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("No record delivered")
	}
}

func TestChannelPublisher_BackpressureDrop(t *testing.T) {
	ch := make(chan mvix.TransitionRecord, 1)
	p := NewChannelPublisher(ch)
	ch <- mvix.TransitionRecord{} // Fill buffer

	if err := p.Publish(context.Background(), mvix.TransitionRecord{Seq: 2}); err != nil {
		t.Errorf("Publish on full channel failed: %v", err)
	}
	if p.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", p.Dropped())
	}
}

func TestChannelPublisher_CloseTwice(t *testing.T) {
	ch := make(chan mvix.TransitionRecord)
	p := NewChannelPublisher(ch)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("channel not closed")
	}
}

func TestRecorder_Limit(t *testing.T) {
	r := NewRecorder(2)
	if _, ok := r.Last(); ok {
		t.Fatal("empty recorder reported a record")
	}
	for seq := uint64(1); seq <= 3; seq++ {
		_ = r.Publish(context.Background(), mvix.TransitionRecord{Seq: seq})
	}
	got := r.Records()
	if len(got) != 2 || got[0].Seq != 2 || got[1].Seq != 3 {
		t.Errorf("Records() = %+v, want seqs 2,3", got)
	}
	if last, _ := r.Last(); last.Seq != 3 {
		t.Errorf("Last().Seq = %d, want 3", last.Seq)
	}
}

func counterMachine() mvix.Funcs[int, string, string, string] {
	return mvix.Funcs[int, string, string, string]{
		HandleFunc: func(ctx context.Context, intent string, d mvix.Dispatcher[int, string, string]) error {
			return d.Dispatch(intent)
		},
		ReduceFunc: func(ctx context.Context, s int, a string) (int, error) {
			if a == "inc" {
				return s + 1, nil
			}
			return s - 1, nil
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishers_ContainerIntegration(t *testing.T) {
	ch := make(chan mvix.TransitionRecord, 16)
	rec := NewRecorder(0)
	c, err := mvix.New[int, string, string, string](context.Background(), 0, counterMachine(),
		mvix.WithID("counter"),
		mvix.WithLogger(quietLogger()),
		mvix.WithPublisher(NewChannelPublisher(ch)),
		mvix.WithPublisher(rec),
	)
	if err != nil {
		t.Fatal(err)
	}

	for _, intent := range []string{"inc", "inc", "dec"} {
		if err := c.SubmitIntent(context.Background(), intent); err != nil {
			t.Fatal(err)
		}
	}
	testutil.Eventually(t, func() bool { return len(rec.Records()) == 3 }, testutil.DefaultTimeout, "three transitions recorded")

	last, _ := rec.Last()
	if last.Action != "dec" || last.From != "2" || last.To != "1" || last.Seq != 3 {
		t.Errorf("last transition = %+v", last)
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	<-c.Done()

	var seqs []uint64
	for r := range ch {
		if r.ContainerID != "counter" {
			t.Errorf("ContainerID = %q", r.ContainerID)
		}
		seqs = append(seqs, r.Seq)
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[2] != 3 {
		t.Errorf("seqs = %v, want [1 2 3]", seqs)
	}
}
