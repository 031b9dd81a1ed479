// Package redismirror tails a bus and appends every frame to a Redis Stream,
// so out-of-process consumers (dashboards, log tailers) can replay recent
// history without speaking the TCP sidecar protocol.
package redismirror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/botbus"
)

// Field constants (avoid typos/allocs)
const (
	fieldType       = "type"
	fieldPayload    = "payload"
	fieldProducedAt = "producedAt" // int64 ns
)

// Mirror drains one bus subscription and XADDs each frame to a stream.
// Best-effort: a mirror that cannot keep up loses old frames at the
// broadcaster, and a frame that exhausts its XADD retries is dropped.
type Mirror struct {
	cfg    Config
	client *redis.Client
	sub    *botbus.Subscription
	codec  botbus.Codec
	clock  xclock.Clock
	logger *xlog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once

	mirrored atomic.Uint64
	dropped  atomic.Uint64
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithLogger injects a custom xlog logger.
func WithLogger(l *xlog.Logger) Option {
	return func(m *Mirror) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock injects a custom xclock clock.
func WithClock(c xclock.Clock) Option {
	return func(m *Mirror) {
		if c != nil {
			m.clock = c
		}
	}
}

// Attach connects to Redis, subscribes to the bus and starts mirroring.
// Only frames published after Attach are mirrored; cached state is not
// replayed, so restarts never duplicate stream entries.
func Attach(bus *botbus.Bus, cfg Config, opts ...Option) (*Mirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	if err := ping(client); err != nil {
		_ = client.Close()
		return nil, err
	}

	sub := bus.Subscribe()
	if sub == nil {
		_ = client.Close()
		return nil, botbus.ErrBusClosed
	}

	m := &Mirror{
		cfg:    cfg,
		client: client,
		sub:    sub,
		codec:  bus.Codec(),
		clock:  xclock.Default(),
		logger: xlog.Default(),
	}
	for _, o := range opts {
		if o != nil {
			o(m)
		}
	}

	m.wg.Add(1)
	go m.loop()
	return m, nil
}

func (m *Mirror) loop() {
	defer m.wg.Done()

	for msg := range m.sub.C() {
		data, err := m.codec.Marshal(msg)
		if err != nil {
			m.dropped.Add(1)
			m.logger.Warn().
				Str("kind", msg.Kind()).
				Err(err).
				Msg("redismirror: encode failed")
			continue
		}

		if err := m.append(msg.Kind(), data); err != nil {
			m.dropped.Add(1)
			m.logger.Warn().
				Str("kind", msg.Kind()).
				Err(err).
				Msg("redismirror: frame dropped")
			continue
		}
		m.mirrored.Add(1)
	}
}

// append XADDs one frame, retrying transient failures with doubling backoff.
func (m *Mirror) append(kind string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: m.cfg.Stream,
		ID:     "*",
		Values: map[string]any{
			fieldType:       kind,
			fieldPayload:    payload,
			fieldProducedAt: m.clock.Now().UnixNano(),
		},
	}
	if m.cfg.MaxLenApprox > 0 {
		args.MaxLen = m.cfg.MaxLenApprox
		args.Approx = true
	}

	backoff := m.cfg.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = m.client.XAdd(ctx, args).Err()
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt < m.cfg.MaxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return lastErr
}

// Stats is the mirror's telemetry.
type Stats struct {
	Mirrored uint64
	Dropped  uint64
}

// Stats returns current mirror statistics.
func (m *Mirror) Stats() Stats {
	return Stats{
		Mirrored: m.mirrored.Load(),
		Dropped:  m.dropped.Load(),
	}
}

// Close detaches from the bus, waits for in-flight appends and releases the
// Redis client. Idempotent.
func (m *Mirror) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.sub.Close()
		m.wg.Wait()
		err = m.client.Close()
	})
	return err
}

func ping(c *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := c.Ping(ctx).Result()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("redis ping timeout: %w", err)
		}
		return err
	}

	if strings.ToUpper(res) != "PONG" {
		return fmt.Errorf("unexpected redis ping result: %s", res)
	}

	return nil
}
