package botbus

import (
	"github.com/trickstertwo/xlog"
)

// Observer receives bus lifecycle events. Implementations should be non-blocking.
type Observer interface {
	OnEvent(e Event)
}

// ObserverFunc is an Adapter that lets a plain function satisfy Observer.
type ObserverFunc func(e Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// LoggingObserver is an Adapter that emits bus events via xlog.
type LoggingObserver struct {
	Logger *xlog.Logger
}

func (o LoggingObserver) OnEvent(e Event) {
	if o.Logger == nil {
		return
	}
	ev := o.Logger.With(
		xlog.Str("type", string(e.Type)),
		xlog.Str("kind", e.Kind),
		xlog.Str("sub", e.SubID),
		xlog.Str("remote", e.Remote),
	)
	if e.Err != nil || e.Type == Error || e.Type == FrameDrop {
		ev.Warn().Err(e.Err).Msg("botbus event")
		return
	}
	if e.Duration > 0 {
		ev = ev.With(xlog.Dur("duration", e.Duration))
	}
	ev.Debug().Msg("botbus event")
}
