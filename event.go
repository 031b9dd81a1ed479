package botbus

import "time"

// EventType enumerates internal lifecycle events for the Observer pattern.
type EventType string

const (
	PublishDone EventType = "publish_done"
	FrameDrop   EventType = "frame_drop"
	Subscribed  EventType = "subscribed"
	ConnOpen    EventType = "conn_open"
	ConnClose   EventType = "conn_close"
	Error       EventType = "error"
)

// Event carries telemetry for observers.
type Event struct {
	Type     EventType
	Kind     string // message kind, for publish/drop events
	CacheKey string // cache slot touched by a publish, if any
	SubID    string // subscription identifier
	Remote   string // remote address, for connection events
	Duration time.Duration
	Err      error

	// Internal: attached for async dispatch
	observers []Observer
}
