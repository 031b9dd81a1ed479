// Package wsfeed serves bus frames over WebSocket for browser overlays: the
// cached latest values first, then the live stream, one JSON text message per
// frame. Clients never send; their socket is read only to detect close.
package wsfeed

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/trickstertwo/xlog"

	"github.com/trickstertwo/botbus"
)

// Config controls feed behavior.
type Config struct {
	// WriteTimeout bounds each frame write (default: 10s).
	WriteTimeout time.Duration
	// CheckOrigin overrides the default localhost-only origin check.
	CheckOrigin func(r *http.Request) bool
}

// Defaults returns a Config with production-safe defaults.
func Defaults() Config {
	return Config{
		WriteTimeout: 10 * time.Second,
	}
}

// Option configures the feed handler.
type Option func(*feed)

// WithLogger injects a custom xlog logger.
func WithLogger(l *xlog.Logger) Option {
	return func(f *feed) {
		if l != nil {
			f.logger = l
		}
	}
}

type feed struct {
	bus      *botbus.Bus
	cfg      Config
	upgrader websocket.Upgrader
	logger   *xlog.Logger
}

// Handler returns an http.Handler streaming bus frames to each connected
// socket. A failure on one socket terminates only that socket.
func Handler(bus *botbus.Bus, cfg Config, opts ...Option) http.Handler {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = Defaults().WriteTimeout
	}
	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = localOrigin
	}

	f := &feed{
		bus: bus,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger: xlog.Default(),
	}
	for _, o := range opts {
		if o != nil {
			o(f)
		}
	}
	return f
}

func (f *feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	snapshot, sub := f.bus.Attach()
	if sub == nil {
		_ = conn.Close()
		return
	}

	go f.stream(conn, snapshot, sub)
}

func (f *feed) stream(conn *websocket.Conn, snapshot []botbus.Message, sub *botbus.Subscription) {
	defer func() {
		sub.Close()
		_ = conn.Close()
	}()

	// Reader goroutine: discards anything the client sends and unblocks the
	// writer by closing the subscription when the socket goes away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				sub.Close()
				return
			}
		}
	}()

	codec := f.bus.Codec()
	write := func(m botbus.Message) error {
		data, err := codec.Marshal(m)
		if err != nil {
			return err
		}
		_ = conn.SetWriteDeadline(time.Now().Add(f.cfg.WriteTimeout))
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	for _, m := range snapshot {
		if err := write(m); err != nil {
			f.logger.Warn().Err(err).Msg("wsfeed: backfill write failed")
			return
		}
	}

	for m := range sub.C() {
		if err := write(m); err != nil {
			f.logger.Warn().Err(err).Msg("wsfeed: write failed")
			return
		}
	}

	// End-of-stream: the bus closed; say goodbye properly.
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}

// localOrigin allows same-origin requests and localhost origins only.
func localOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, prefix := range []string{
		"http://localhost", "http://127.0.0.1",
		"https://localhost", "https://127.0.0.1",
	} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}
