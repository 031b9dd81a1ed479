package botbus

import (
	"fmt"
	"sync"
)

var (
	defaultBus   *Bus
	defaultBusMu sync.Mutex
)

// Default returns the process-wide singleton Bus, initializing it with
// defaults on first use.
func Default() *Bus {
	defaultBusMu.Lock()
	defer defaultBusMu.Unlock()

	if defaultBus != nil {
		return defaultBus
	}

	bus, err := NewBusBuilder().Build()
	if err != nil {
		panic(fmt.Sprintf("botbus: failed to initialize default bus: %v", err))
	}
	defaultBus = bus
	return defaultBus
}

// SetDefault replaces the process-wide default Bus.
func SetDefault(b *Bus) {
	if b == nil {
		panic("botbus: SetDefault called with nil Bus")
	}
	defaultBusMu.Lock()
	defaultBus = b
	defaultBusMu.Unlock()
}

// Publish is the Facade using the default bus.
func Publish(m Message) {
	Default().Publish(m)
}

// Latest is the Facade using the default bus.
func Latest() []Message {
	return Default().Latest()
}

// Subscribe is the Facade using the default bus.
func Subscribe() *Subscription {
	return Default().Subscribe()
}
