package botbus

import (
	"context"
	"net"
)

// HealthChecker provides health status for process monitoring.
type HealthChecker interface {
	Health(ctx context.Context) HealthStatus
}

// API represents the complete bus surface for extensibility.
type API interface {
	Publish(m Message)
	Latest() []Message
	Subscribe() *Subscription
	Attach() ([]Message, *Subscription)
	Listen(ctx context.Context) error
	Serve(ctx context.Context, ln net.Listener) error
	Close(ctx context.Context) error
	GetMetrics() Metrics
	Health(ctx context.Context) HealthStatus
	AddObserver(obs Observer)
	RemoveObserver(obs Observer)
}
