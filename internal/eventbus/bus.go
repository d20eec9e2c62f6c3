// Package eventbus is a small in-memory fan-out used to hand journal
// entries from the tick loop to background writers.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Bus delivers values of T to every subscriber.
//
// Publish never blocks: subscribers get buffered channels and a full
// buffer drops the value. The tick loop must never wait on a writer.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    map[uint64]chan T
	seq     atomic.Uint64
	dropped atomic.Uint64
}

func New[T any]() *Bus[T] {
	return &Bus[T]{subs: map[uint64]chan T{}}
}

// Publish offers v to every subscriber and reports whether all took it.
func (b *Bus[T]) Publish(v T) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	all := true
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			all = false
			b.dropped.Add(1)
		}
	}
	return all
}

// Dropped is the number of deliveries lost to full buffers.
func (b *Bus[T]) Dropped() uint64 { return b.dropped.Load() }

// Subscribe registers a buffered channel. The returned func unsubscribes
// and closes the channel; it is safe to call more than once.
func (b *Bus[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan T, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			// Holding the write lock means no Publish is mid-send on ch.
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
}
