package botbus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription is an independent read cursor over a Broadcaster. It only
// observes messages published after it was created.
type Subscription struct {
	id string
	ch chan Message
	b  *Broadcaster
}

// ID returns the subscription's unique identifier.
func (s *Subscription) ID() string { return s.id }

// C is the receive channel. It is closed when the subscription or the
// broadcaster is closed; ranging over it terminates cleanly at end-of-stream.
func (s *Subscription) C() <-chan Message { return s.ch }

// Close detaches the subscription from the broadcaster. Idempotent.
func (s *Subscription) Close() {
	s.b.unsubscribe(s)
}

// Broadcaster fans published messages out to every live subscription through
// bounded per-subscription queues. Publishing never blocks: a subscription
// that falls behind by more than its capacity loses its oldest unread
// messages and observes a gap.
type Broadcaster struct {
	capacity int

	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool

	dropped atomic.Uint64
}

// NewBroadcaster creates a broadcaster whose subscriptions buffer up to
// capacity messages each.
func NewBroadcaster(capacity int) *Broadcaster {
	if capacity < 1 {
		capacity = 1024
	}
	return &Broadcaster{
		capacity: capacity,
		subs:     make(map[string]*Subscription),
	}
}

// Subscribe creates a new read cursor. Returns nil on a closed broadcaster.
func (b *Broadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	s := &Subscription{
		id: uuid.NewString(),
		ch: make(chan Message, b.capacity),
		b:  b,
	}
	b.subs[s.id] = s
	return s
}

// Publish pushes m to all live subscriptions without ever blocking. It
// returns how many frames were discarded from lagging subscriptions.
func (b *Broadcaster) Publish(m Message) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0
	}

	dropped := 0
	for _, s := range b.subs {
		select {
		case s.ch <- m:
			continue
		default:
		}
		// Queue full: evict the oldest unread frame, then retry once. The
		// retry cannot fail while the lock is held, but stay non-blocking.
		select {
		case <-s.ch:
			dropped++
		default:
		}
		select {
		case s.ch <- m:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.dropped.Add(uint64(dropped))
	}
	return dropped
}

// Len returns the number of live subscriptions.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped returns the total number of frames discarded from lagging
// subscriptions over the broadcaster's lifetime.
func (b *Broadcaster) Dropped() uint64 { return b.dropped.Load() }

// Close permanently shuts the broadcaster down, closing every subscription
// channel so readers terminate at end-of-stream. Idempotent.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		close(s.ch)
		delete(b.subs, id)
	}
}

func (b *Broadcaster) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[s.id]; !ok {
		return
	}
	delete(b.subs, s.id)
	close(s.ch)
}
