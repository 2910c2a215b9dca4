package primitives

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestConsumableFirstExtractReturnsValue(t *testing.T) {
	for _, content := range []bool{true, false} {
		c := NewConsumable(content)
		got, ok := c.Extract()
		if !ok {
			t.Fatalf("first Extract() on %v returned empty", content)
		}
		if got != content {
			t.Errorf("Extract() = %v, want %v", got, content)
		}
	}
}

func TestConsumableSecondExtractIsEmpty(t *testing.T) {
	c := NewConsumable("payload")
	c.Extract()

	for i := 0; i < 5; i++ {
		if v, ok := c.Extract(); ok {
			t.Fatalf("Extract() #%d returned %q after consumption", i+2, v)
		}
	}
	if !c.Consumed() {
		t.Error("Consumed() = false after extraction")
	}
}

func TestConsumableConcurrentExtract(t *testing.T) {
	const callers = 64
	for round := 0; round < 50; round++ {
		c := NewConsumable(round)
		var winners atomic.Int32
		var start sync.WaitGroup
		var wg sync.WaitGroup
		start.Add(1)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start.Wait()
				if v, ok := c.Extract(); ok {
					if v != round {
						t.Errorf("winner got %d, want %d", v, round)
					}
					winners.Add(1)
				}
			}()
		}
		start.Done()
		wg.Wait()
		if n := winners.Load(); n != 1 {
			t.Fatalf("round %d: %d winners, want exactly 1", round, n)
		}
	}
}
