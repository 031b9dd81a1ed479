package redismirror

import (
	"fmt"
	"time"
)

// Config for the Redis Stream mirror.
type Config struct {
	// Connection
	Addr     string
	Username string
	Password string
	DB       int

	// Stream is the Redis Stream frames are appended to.
	Stream string
	// MaxLenApprox bounds the stream with approximate trimming (0 = unbounded).
	MaxLenApprox int64

	// MaxAttempts bounds XADD retries per frame; the frame is dropped after
	// the last attempt (the mirror is best-effort, like every bus consumer).
	MaxAttempts int
	// RetryBackoff is the base wait between attempts, doubled each retry.
	RetryBackoff time.Duration
}

// Defaults returns a Config with production-safe defaults.
func Defaults() Config {
	return Config{
		Addr:         "127.0.0.1:6379",
		DB:           0,
		Stream:       "botbus",
		MaxLenApprox: 8192,
		MaxAttempts:  3,
		RetryBackoff: 100 * time.Millisecond,
	}
}

// Validate checks Config for usability.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: addr required")
	}
	if c.Stream == "" {
		return fmt.Errorf("config: stream required")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("config: max attempts must be >= 1, got %d", c.MaxAttempts)
	}
	if c.RetryBackoff <= 0 {
		return fmt.Errorf("config: retry backoff must be > 0, got %v", c.RetryBackoff)
	}
	return nil
}
