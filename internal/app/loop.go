package app

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/logging"
	"github.com/dshills/keyweave/internal/source"
)

// DefaultBuffer is the capacity of the event and timeout queues.
const DefaultBuffer = 256

// LoopConfig configures a Loop.
type LoopConfig struct {
	// ScanInterval is the period of sequencer scan ticks. Zero disables
	// the ticker, leaving scans to the sources.
	ScanInterval time.Duration

	// Buffer is the capacity of the event queue.
	// Default: DefaultBuffer
	Buffer int

	// Watcher delivers layout reloads. Optional.
	Watcher *keymap.Watcher

	// Recorder captures every source event while recording. Optional.
	Recorder *source.Recorder
}

// Loop merges sources, hold timeouts, scan ticks and layout reloads into
// one stream processed by the engine on a single goroutine.
type Loop struct {
	engine  *Engine
	sources []source.Source
	cfg     LoopConfig
	metrics *Metrics
	logger  *logging.Logger
	running atomic.Bool
}

// NewLoop creates a loop driving engine from sources.
func NewLoop(engine *Engine, cfg LoopConfig, logger *logging.Logger, sources ...source.Source) *Loop {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultBuffer
	}
	return &Loop{
		engine:  engine,
		sources: sources,
		cfg:     cfg,
		metrics: NewMetrics(),
		logger:  logging.OrDiscard(logger).WithComponent("loop"),
	}
}

// Metrics returns the loop metrics.
func (l *Loop) Metrics() *Metrics { return l.metrics }

// IsRunning reports whether Run is in progress.
func (l *Loop) IsRunning() bool { return l.running.Load() }

// Run processes events until every source has finished or ctx is done.
// It returns the first source error, or nil.
func (l *Loop) Run(ctx context.Context) error {
	if len(l.sources) == 0 {
		return ErrNoSource
	}
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan source.Event, l.cfg.Buffer)
	timeouts := make(chan timeout, l.cfg.Buffer)
	l.engine.SetScheduler(&liveTimer{out: timeouts, done: ctx.Done(), now: time.Now})
	defer l.engine.SetScheduler(nil)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range l.sources {
		g.Go(func() error {
			l.logger.Info("source started", "source", src.Name())
			if err := src.Run(gctx, events); err != nil {
				return &ComponentError{Component: "source:" + src.Name(), Action: "run", Err: err}
			}
			l.logger.Info("source finished", "source", src.Name())
			return nil
		})
	}
	finished := make(chan error, 1)
	go func() { finished <- g.Wait() }()

	var tick <-chan time.Time
	if l.cfg.ScanInterval > 0 {
		ticker := time.NewTicker(l.cfg.ScanInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	var reloads <-chan keymap.Update
	if l.cfg.Watcher != nil {
		reloads = l.cfg.Watcher.Updates()
	}

	for {
		select {
		case <-ctx.Done():
			return <-finished

		case err := <-finished:
			l.drain(events)
			return err

		case ev := <-events:
			l.handle(ev)

		case to := <-timeouts:
			l.engine.HoldTimeout(to.pos, to.at)
			l.metrics.RecordTimeout()

		case at := <-tick:
			l.engine.Handle(source.ScanEvent(at))
			l.metrics.RecordScan()

		case u, ok := <-reloads:
			if !ok {
				reloads = nil
				continue
			}
			l.reload(u)
		}
	}
}

func (l *Loop) handle(ev source.Event) {
	start := time.Now()
	if l.cfg.Recorder != nil {
		l.cfg.Recorder.Record(ev)
	}
	l.engine.Handle(ev)
	l.metrics.RecordEvent(time.Since(start))
}

// drain handles events queued before the sources finished.
func (l *Loop) drain(events <-chan source.Event) {
	for {
		select {
		case ev := <-events:
			l.handle(ev)
		default:
			return
		}
	}
}

func (l *Loop) reload(u keymap.Update) {
	if u.Err != nil {
		l.metrics.RecordReload(false)
		l.logger.Warn("layout reload failed", "path", u.Path, "error", u.Err)
		return
	}
	if err := l.engine.SwapLayout(u.Keymap); err != nil {
		l.metrics.RecordReload(false)
		l.logger.Warn("layout rejected", "path", u.Path, "error", err)
		return
	}
	l.metrics.RecordReload(true)
}
