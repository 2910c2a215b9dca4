// Package production provides production integrations for containers:
// transition publishing, trace journals and visualization.
package production

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/comalice/mvix"
)

// ChannelPublisher forwards transition records to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch      chan<- mvix.TransitionRecord
	dropped atomic.Uint64
	once    sync.Once
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
// The channel is closed when the container stops.
func NewChannelPublisher(ch chan<- mvix.TransitionRecord) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, record mvix.TransitionRecord) error {
	select {
	case p.ch <- record:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped.Add(1)
		return nil
	}
}

// Dropped returns the number of records discarded because the channel was full.
func (p *ChannelPublisher) Dropped() uint64 {
	return p.dropped.Load()
}

func (p *ChannelPublisher) Close() error {
	p.once.Do(func() { close(p.ch) })
	return nil
}

// Recorder keeps the most recent transition records in memory.
type Recorder struct {
	mu      sync.Mutex
	limit   int
	records []mvix.TransitionRecord
}

// NewRecorder keeps at most limit records. A limit of 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Publish(_ context.Context, record mvix.TransitionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	if r.limit > 0 && len(r.records) > r.limit {
		r.records = append(r.records[:0], r.records[len(r.records)-r.limit:]...)
	}
	return nil
}

func (r *Recorder) Close() error { return nil }

// Records returns a copy of the retained records, oldest first.
func (r *Recorder) Records() []mvix.TransitionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mvix.TransitionRecord(nil), r.records...)
}

// Last returns the most recent record, which names the last reduced action.
func (r *Recorder) Last() (mvix.TransitionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return mvix.TransitionRecord{}, false
	}
	return r.records[len(r.records)-1], true
}
