package botbus

import (
	"context"

	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// BusBuilder constructs Bus instances (Builder pattern).
type BusBuilder struct {
	cfg Config

	codecInst Codec
	observers []Observer
	logger    *xlog.Logger
	clock     xclock.Clock

	poolCtx context.Context
}

// NewBusBuilder returns a new builder with sensible defaults.
func NewBusBuilder() *BusBuilder {
	return &BusBuilder{
		cfg:     Defaults(),
		poolCtx: context.Background(),
	}
}

// WithConfig replaces the whole configuration.
func (bb *BusBuilder) WithConfig(cfg Config) *BusBuilder {
	bb.cfg = cfg
	return bb
}

// WithListenAddr overrides the TCP sidecar address.
func (bb *BusBuilder) WithListenAddr(addr string) *BusBuilder {
	if addr != "" {
		bb.cfg.ListenAddr = addr
	}
	return bb
}

// WithCapacity overrides the per-subscription frame buffer.
func (bb *BusBuilder) WithCapacity(n int) *BusBuilder {
	if n > 0 {
		bb.cfg.Capacity = n
	}
	return bb
}

// WithCodec selects a registered codec by name (default: "json").
func (bb *BusBuilder) WithCodec(name string) *BusBuilder {
	if name != "" {
		bb.cfg.Codec = name
	}
	return bb
}

// WithCodecInstance accepts a ready Codec instance.
func (bb *BusBuilder) WithCodecInstance(c Codec) *BusBuilder {
	bb.codecInst = c
	return bb
}

// WithObserver attaches observers for lifecycle events.
func (bb *BusBuilder) WithObserver(obs ...Observer) *BusBuilder {
	for _, o := range obs {
		if o != nil {
			bb.observers = append(bb.observers, o)
		}
	}
	return bb
}

// WithObserverPool sizes the async observer pool.
func (bb *BusBuilder) WithObserverPool(workers, bufferSize int) *BusBuilder {
	if workers > 0 {
		bb.cfg.ObserverWorkers = workers
	}
	if bufferSize > 0 {
		bb.cfg.ObserverBuffer = bufferSize
	}
	return bb
}

// WithLogger injects a custom xlog logger.
func (bb *BusBuilder) WithLogger(l *xlog.Logger) *BusBuilder {
	bb.logger = l
	return bb
}

// WithClock injects a custom xclock clock.
func (bb *BusBuilder) WithClock(c xclock.Clock) *BusBuilder {
	bb.clock = c
	return bb
}

func (bb *BusBuilder) Build() (*Bus, error) {
	if err := bb.cfg.Validate(); err != nil {
		return nil, err
	}

	cd := bb.codecInst
	if cd == nil {
		var err error
		cd, err = NewCodec(bb.cfg.Codec)
		if err != nil {
			return nil, err
		}
	}

	clk := bb.clock
	if clk == nil {
		clk = xclock.Default()
	}
	lg := bb.logger
	if lg == nil {
		lg = xlog.Default()
	}

	b := &Bus{
		broadcaster:  NewBroadcaster(bb.cfg.Capacity),
		latest:       make(map[string]Message),
		addr:         bb.cfg.ListenAddr,
		codec:        cd,
		clock:        clk,
		logger:       lg,
		observerPool: NewObserverPool(bb.poolCtx, bb.cfg.ObserverWorkers, bb.cfg.ObserverBuffer),
		metrics:      &busMetrics{},
	}

	// Attach the logging observer first unless one was supplied externally.
	hasLoggingObserver := false
	for _, o := range bb.observers {
		if _, ok := o.(LoggingObserver); ok {
			hasLoggingObserver = true
			break
		}
	}
	if !hasLoggingObserver {
		b.AddObserver(LoggingObserver{Logger: lg})
	}

	for _, o := range bb.observers {
		b.AddObserver(o)
	}

	return b, nil
}

// New constructs a Bus via Builder and returns a close func for convenience.
func New(init func(b *BusBuilder)) (*Bus, func() error, error) {
	bb := NewBusBuilder()
	if init != nil {
		init(bb)
	}
	bus, err := bb.Build()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() error { return bus.Close(context.Background()) }
	return bus, closeFn, nil
}
