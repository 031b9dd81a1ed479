package botbus

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config controls bus behavior. The zero value is not usable; start from
// Defaults() or LoadConfig().
type Config struct {
	// ListenAddr is where the TCP sidecar listens. Loopback by default:
	// this is an internal channel, not meant for external exposure.
	ListenAddr string `env:"BOTBUS_LISTEN_ADDR" envDefault:"127.0.0.1:4444"`
	// Capacity is the per-subscription frame buffer. A subscription lagging
	// behind by more than this loses its oldest unread frames.
	Capacity int `env:"BOTBUS_CAPACITY" envDefault:"1024"`
	// Codec names the wire codec (default: "json").
	Codec string `env:"BOTBUS_CODEC" envDefault:"json"`
	// ObserverWorkers is the number of async observer dispatch goroutines.
	ObserverWorkers int `env:"BOTBUS_OBSERVER_WORKERS" envDefault:"4"`
	// ObserverBuffer is the observer pool queue capacity.
	ObserverBuffer int `env:"BOTBUS_OBSERVER_BUFFER" envDefault:"1024"`
}

// Defaults returns a Config with production-safe defaults.
func Defaults() Config {
	return Config{
		ListenAddr:      "127.0.0.1:4444",
		Capacity:        1024,
		Codec:           "json",
		ObserverWorkers: 4,
		ObserverBuffer:  1024,
	}
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("botbus: parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks Config for usability.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen addr required")
	}
	if c.Capacity < 1 {
		return fmt.Errorf("config: capacity must be >= 1, got %d", c.Capacity)
	}
	if c.Codec == "" {
		return fmt.Errorf("config: codec required")
	}
	if c.ObserverWorkers < 1 {
		return fmt.Errorf("config: observer workers must be >= 1, got %d", c.ObserverWorkers)
	}
	if c.ObserverBuffer < 1 {
		return fmt.Errorf("config: observer buffer must be >= 1, got %d", c.ObserverBuffer)
	}
	return nil
}
