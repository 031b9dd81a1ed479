package botbus

import (
	"context"
	"sync/atomic"
	"time"
)

// busMetrics uses lock-free atomics on the hot path.
type busMetrics struct {
	published     atomic.Uint64
	cacheUpserts  atomic.Uint64
	dropped       atomic.Uint64
	subscriptions atomic.Uint64
	connections   atomic.Int64
	bytesWritten  atomic.Uint64
}

// Metrics defines observable telemetry for the bus.
type Metrics struct {
	Published       uint64
	CacheUpserts    uint64
	CachedKinds     int
	FramesDropped   uint64
	Subscriptions   uint64
	OpenConnections int64
	BytesWritten    uint64
	EventsDropped   uint64
}

// HealthStatus indicates bus health for liveness probes.
type HealthStatus struct {
	Status    string // "healthy", "degraded", "unhealthy"
	Metrics   Metrics
	Timestamp time.Time
	Message   string
}

// GetMetrics returns current bus metrics.
func (b *Bus) GetMetrics() Metrics {
	b.mu.Lock()
	cachedKinds := len(b.latest)
	b.mu.Unlock()

	m := Metrics{
		Published:       b.metrics.published.Load(),
		CacheUpserts:    b.metrics.cacheUpserts.Load(),
		CachedKinds:     cachedKinds,
		FramesDropped:   b.metrics.dropped.Load(),
		Subscriptions:   b.metrics.subscriptions.Load(),
		OpenConnections: b.metrics.connections.Load(),
		BytesWritten:    b.metrics.bytesWritten.Load(),
	}
	if b.observerPool != nil {
		m.EventsDropped = b.observerPool.Stats().Dropped
	}
	return m
}

// Health checks bus health. Implements HealthChecker.
func (b *Bus) Health(ctx context.Context) HealthStatus {
	if b.closed.Load() {
		return HealthStatus{
			Status:    "unhealthy",
			Timestamp: time.Now(),
			Message:   "bus is closed",
		}
	}

	metrics := b.GetMetrics()
	status := "healthy"

	// Degraded if more than 5% of published frames were evicted from
	// lagging subscriptions.
	if metrics.FramesDropped > 0 && metrics.Published > 0 {
		dropRate := float64(metrics.FramesDropped) / float64(metrics.Published)
		if dropRate > 0.05 {
			status = "degraded"
		}
	}

	return HealthStatus{
		Status:    status,
		Metrics:   metrics,
		Timestamp: time.Now(),
	}
}
