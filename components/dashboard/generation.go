package dashboard

import (
	"sync"
	"sync/atomic"
)

// Broadcaster fans the refresh generation out to in-process subscribers.
// Bumping the generation forces every widget engine to reload in
// lockstep, which is how the dashboard resynchronizes immediately after
// a bulk cloud sync completes.
type Broadcaster struct {
	gen  atomic.Uint64
	mu   sync.RWMutex
	subs map[int]chan uint64
	next int
}

// NewBroadcaster creates a broadcaster at generation zero.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs: make(map[int]chan uint64),
	}
}

// Generation returns the current refresh generation.
func (b *Broadcaster) Generation() uint64 {
	return b.gen.Load()
}

// Bump increments the generation and notifies every subscriber. Slow
// subscribers are skipped rather than blocked; they observe the counter
// on their next receive.
func (b *Broadcaster) Bump() uint64 {
	gen := b.gen.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- gen:
		default:
		}
	}
	return gen
}

// Subscribe returns a channel of generation bumps and a cancel func.
func (b *Broadcaster) Subscribe() (<-chan uint64, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan uint64, 8)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
