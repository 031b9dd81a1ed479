package botbus

import (
	"net"
)

// connHandler drains one subscription and serializes each frame onto one
// socket, looping receive -> serialize -> send. The protocol is broadcast
// only: the read half is shut down immediately and clients never send.
// Any failure terminates this connection and nothing else.
type connHandler struct {
	bus     *Bus
	conn    net.Conn
	sub     *Subscription
	backlog []Message
}

func newConnHandler(b *Bus, conn net.Conn, sub *Subscription, backlog []Message) *connHandler {
	return &connHandler{
		bus:     b,
		conn:    conn,
		sub:     sub,
		backlog: backlog,
	}
}

func (h *connHandler) run() {
	remote := h.conn.RemoteAddr().String()
	err := h.loop()

	h.sub.Close()
	_ = h.conn.Close()
	h.bus.metrics.connections.Add(-1)

	if err != nil {
		h.bus.logger.Warn().
			Str("remote", remote).
			Err(err).
			Msg("botbus: connection terminated")
	}
	h.bus.notifyAsync(Event{Type: ConnClose, SubID: h.sub.id, Remote: remote, Err: err})
}

func (h *connHandler) loop() error {
	if tc, ok := h.conn.(*net.TCPConn); ok {
		_ = tc.CloseRead()
	}

	// Backfill: the cached latest values, taken atomically with the
	// subscription, go out before any live frame.
	for _, m := range h.backlog {
		frame, err := h.serialize(m)
		if err != nil {
			return err
		}
		if err := h.send(frame); err != nil {
			return err
		}
	}

	for {
		m, ok := h.receive()
		if !ok {
			// Broadcaster closed: clean end-of-stream.
			return nil
		}
		frame, err := h.serialize(m)
		if err != nil {
			return err
		}
		if err := h.send(frame); err != nil {
			return err
		}
	}
}

// receive blocks until the next frame is available or the stream ends.
func (h *connHandler) receive() (Message, bool) {
	m, ok := <-h.sub.C()
	return m, ok
}

// serialize encodes one frame as a JSON line.
func (h *connHandler) serialize(m Message) ([]byte, error) {
	data, err := h.bus.codec.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// send drives the write to completion.
func (h *connHandler) send(frame []byte) error {
	n, err := h.conn.Write(frame)
	h.bus.metrics.bytesWritten.Add(uint64(n))
	return err
}
