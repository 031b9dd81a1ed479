package botbus

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Listen binds the configured loopback address and serves bus frames to every
// connection that shows up, for the lifetime of ctx. Bind and accept failures
// are fatal and returned to the caller; a failure inside one connection
// handler terminates only that connection.
func (b *Bus) Listen(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return fmt.Errorf("botbus: bind %s: %w", b.addr, err)
	}
	return b.Serve(ctx, ln)
}

// Serve accepts connections on ln indefinitely, spawning one connection
// handler per connection, each with its own subscription and snapshot
// backfill. Serve owns ln and closes it on return. Cancelling ctx stops the
// accept loop and returns nil.
func (b *Bus) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	// Unblock Accept when ctx is cancelled.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	b.logger.Info().
		Str("addr", ln.Addr().String()).
		Msg("botbus: listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || b.closed.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("botbus: accept: %w", err)
		}

		snapshot, sub := b.Attach()
		if sub == nil {
			// Bus closed while accepting.
			_ = conn.Close()
			return nil
		}

		b.metrics.connections.Add(1)
		b.notifyAsync(Event{Type: ConnOpen, SubID: sub.id, Remote: conn.RemoteAddr().String()})

		h := newConnHandler(b, conn, sub, snapshot)
		go h.run()
	}
}
