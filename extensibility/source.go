package extensibility

import (
	"sync"
	"time"
)

// ChannelSource is an intent source backed by a Go channel.
// Provides a simple way to feed external intents into a container via Attach.
type ChannelSource[I any] struct {
	ch chan I
}

// NewChannelSource creates a ChannelSource over ch. Closing ch detaches the
// source from every container it was attached to.
func NewChannelSource[I any](ch chan I) *ChannelSource[I] {
	return &ChannelSource[I]{ch: ch}
}

// Intents returns the receive-only channel for intents.
func (s *ChannelSource[I]) Intents() <-chan I {
	return s.ch
}

// TickerSource produces an intent every period. Useful for polling and
// heartbeat intents.
type TickerSource[I any] struct {
	ch     chan I
	build  func(time.Time) I
	ticker *time.Ticker
	stop   chan struct{}
	once   sync.Once
}

// NewTickerSource starts a ticker that builds an intent from each tick. Ticks
// are dropped while the consumer is behind.
func NewTickerSource[I any](period time.Duration, build func(time.Time) I) *TickerSource[I] {
	t := &TickerSource[I]{
		ch:     make(chan I, 10),
		build:  build,
		ticker: time.NewTicker(period),
		stop:   make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TickerSource[I]) run() {
	for {
		select {
		case now := <-t.ticker.C:
			select {
			case t.ch <- t.build(now):
			default:
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Intents returns the intent channel. It is closed after Stop.
func (t *TickerSource[I]) Intents() <-chan I {
	return t.ch
}

// Stop stops the ticker and closes the channel. Safe to call more than once.
func (t *TickerSource[I]) Stop() {
	t.once.Do(func() { close(t.stop) })
}
