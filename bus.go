package botbus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

var _ API = (*Bus)(nil)
var _ HealthChecker = (*Bus)(nil)

// Bus is the central publish point of the platform. It owns the latest-value
// cache and the broadcaster behind one lock: a publish upserts the cache and
// fans out atomically, so a snapshot taken after a publish always observes
// that publish's effect.
type Bus struct {
	mu          sync.Mutex
	broadcaster *Broadcaster
	latest      map[string]Message

	addr   string
	codec  Codec
	clock  xclock.Clock
	logger *xlog.Logger

	observerPool *ObserverPool
	observersMu  sync.RWMutex
	observers    []Observer

	metrics   *busMetrics
	closed    atomic.Bool
	closeOnce sync.Once
}

// Codec returns the configured codec (Strategy).
func (b *Bus) Codec() Codec { return b.codec }

// Publish upserts m into the latest-value cache (when m carries a cache key)
// and fans it out to all live subscriptions. It never blocks and never fails:
// frames evicted from lagging subscriptions are logged and counted, nothing
// more. Publishing on a closed bus is a no-op.
func (b *Bus) Publish(m Message) {
	if m == nil || b.closed.Load() {
		return
	}

	start := b.clock.Now()
	cacheKey := m.CacheKey()

	b.mu.Lock()
	if cacheKey != "" {
		b.latest[cacheKey] = m
		b.metrics.cacheUpserts.Add(1)
	}
	dropped := b.broadcaster.Publish(m)
	b.mu.Unlock()

	b.metrics.published.Add(1)

	if dropped > 0 {
		b.metrics.dropped.Add(uint64(dropped))
		b.logger.Warn().
			Str("kind", m.Kind()).
			Msg("botbus: subscriber lagging, oldest frames evicted")
		b.notifyAsync(Event{Type: FrameDrop, Kind: m.Kind()})
	}

	b.notifyAsync(Event{
		Type:     PublishDone,
		Kind:     m.Kind(),
		CacheKey: cacheKey,
		Duration: b.clock.Since(start),
	})
}

// Latest returns a copy of all currently cached latest values, one per cache
// key, in unspecified order. Cost is proportional to the number of distinct
// cache keys, not to message volume.
func (b *Bus) Latest() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Message, 0, len(b.latest))
	for _, m := range b.latest {
		out = append(out, m)
	}
	return out
}

// Subscribe creates a new read cursor on the broadcaster. The cursor observes
// only messages published after this call; use Latest (or Attach) to backfill
// current state. Returns nil on a closed bus.
func (b *Bus) Subscribe() *Subscription {
	if b.closed.Load() {
		return nil
	}

	b.mu.Lock()
	s := b.broadcaster.Subscribe()
	b.mu.Unlock()

	if s != nil {
		b.metrics.subscriptions.Add(1)
		b.notifyAsync(Event{Type: Subscribed, SubID: s.id})
	}
	return s
}

// Attach atomically takes a cache snapshot and creates a subscription in one
// critical section: no publish can fall between the two, so a consumer that
// writes the snapshot first and then drains the subscription sees every
// frame exactly once. Returns a nil subscription on a closed bus.
func (b *Bus) Attach() ([]Message, *Subscription) {
	if b.closed.Load() {
		return nil, nil
	}

	b.mu.Lock()
	snapshot := make([]Message, 0, len(b.latest))
	for _, m := range b.latest {
		snapshot = append(snapshot, m)
	}
	s := b.broadcaster.Subscribe()
	b.mu.Unlock()

	if s != nil {
		b.metrics.subscriptions.Add(1)
		b.notifyAsync(Event{Type: Subscribed, SubID: s.id})
	}
	return snapshot, s
}

// Close shuts the bus down: the broadcaster closes (terminating all
// connection handlers at end-of-stream) and the observer pool drains.
// Idempotent.
func (b *Bus) Close(ctx context.Context) error {
	var closeErr error

	b.closeOnce.Do(func() {
		b.closed.Store(true)

		b.mu.Lock()
		b.broadcaster.Close()
		b.mu.Unlock()

		if b.observerPool != nil {
			if err := b.observerPool.Close(5 * time.Second); err != nil {
				b.logger.Warn().Err(err).Msg("botbus: observer pool shutdown timeout")
				closeErr = err
			}
		}
	})

	return closeErr
}

// AddObserver registers an observer (thread-safe).
func (b *Bus) AddObserver(obs Observer) {
	if obs == nil {
		return
	}
	b.observersMu.Lock()
	b.observers = append(b.observers, obs)
	b.observersMu.Unlock()
}

// RemoveObserver removes an observer.
func (b *Bus) RemoveObserver(obs Observer) {
	if obs == nil {
		return
	}
	b.observersMu.Lock()
	defer b.observersMu.Unlock()

	for i, o := range b.observers {
		if o == obs {
			b.observers = append(b.observers[:i], b.observers[i+1:]...)
			break
		}
	}
}

// notifyAsync dispatches events through the observer pool (non-blocking).
func (b *Bus) notifyAsync(e Event) {
	if b.observerPool == nil {
		return
	}

	b.observersMu.RLock()
	if len(b.observers) == 0 {
		b.observersMu.RUnlock()
		return
	}
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.observersMu.RUnlock()

	b.observerPool.Notify(e, observers)
}
