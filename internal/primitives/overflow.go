package primitives

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by operations on a closed queue or channel.
	ErrClosed = errors.New("closed")
	// ErrQueueFull is returned by Push on a full queue with OverflowReject.
	ErrQueueFull = errors.New("queue full")
)

// OverflowPolicy decides what Push does when a bounded queue is full.
// Unbounded queues (capacity 0) never overflow.
type OverflowPolicy int

const (
	// OverflowBlock waits for space, the pushing context or queue close.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropOldest evicts the head of the queue to make room.
	OverflowDropOldest
	// OverflowReject fails the push with ErrQueueFull.
	OverflowReject
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBlock:
		return "block"
	case OverflowDropOldest:
		return "drop_oldest"
	case OverflowReject:
		return "reject"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy maps a config string to a policy. Empty means block.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return OverflowBlock, nil
	case "drop_oldest":
		return OverflowDropOldest, nil
	case "reject":
		return OverflowReject, nil
	default:
		return OverflowBlock, fmt.Errorf("unknown overflow policy %q", s)
	}
}
