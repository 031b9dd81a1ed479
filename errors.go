package botbus

import "fmt"

var (
	// ErrBusClosed is returned by operations against a closed bus.
	ErrBusClosed = fmt.Errorf("botbus: bus is closed")
	// ErrSubscriptionClosed is returned when receiving on a closed subscription.
	ErrSubscriptionClosed = fmt.Errorf("botbus: subscription is closed")
	// ErrObserverPoolShutdownTimeout signals the observer pool did not drain in time.
	ErrObserverPoolShutdownTimeout = fmt.Errorf("botbus: observer pool shutdown timeout")
)

// ErrUnknownCodec names a codec that was never registered.
type ErrUnknownCodec struct{ name string }

func (e ErrUnknownCodec) Error() string { return fmt.Sprintf("unknown codec: %s", e.name) }
