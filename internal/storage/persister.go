package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/keyweave/internal/logging"
)

// DefaultWriteTimeout bounds a single background write.
const DefaultWriteTimeout = 5 * time.Second

// Persister writes default-layer changes to a Backend in the background.
// SaveDefaultLayer never blocks; a burst of saves collapses into one write
// of the latest value. Failures are logged and counted, never retried.
type Persister struct {
	backend Backend
	logger  *logging.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending int
	dirty   bool
	closed  bool

	// cache is the last saved or loaded value.
	cache   int
	cached  bool
	signal  chan struct{}
	flush   chan chan struct{}
	quit    chan struct{}
	done    chan struct{}
	written atomic.Int64
	failed  atomic.Int64
}

// NewPersister starts a write-behind persister over backend.
func NewPersister(backend Backend, logger *logging.Logger) *Persister {
	p := &Persister{
		backend: backend,
		logger:  logging.OrDiscard(logger).WithComponent("persister"),
		timeout: DefaultWriteTimeout,
		signal:  make(chan struct{}, 1),
		flush:   make(chan chan struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

// SaveDefaultLayer queues id for writing.
func (p *Persister) SaveDefaultLayer(id int) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("save after close dropped", "layer", id)
		return
	}
	p.pending, p.dirty = id, true
	p.cache, p.cached = id, true
	p.mu.Unlock()

	select {
	case p.signal <- struct{}{}:
	default:
	}
}

// LoadDefaultLayer returns the last saved value, or reads the backend.
// Read errors are logged and reported as nothing stored.
func (p *Persister) LoadDefaultLayer() (int, bool) {
	p.mu.Lock()
	if p.cached {
		id := p.cache
		p.mu.Unlock()
		return id, true
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	id, ok, err := p.backend.DefaultLayer(ctx)
	if err != nil {
		p.logger.Error("loading default layer", "err", err)
		return 0, false
	}
	if ok {
		p.mu.Lock()
		p.cache, p.cached = id, true
		p.mu.Unlock()
	}
	return id, ok
}

// Flush blocks until every queued save has been attempted.
func (p *Persister) Flush() {
	reply := make(chan struct{})
	select {
	case p.flush <- reply:
		<-reply
	case <-p.done:
	}
}

// Close writes any pending value and stops the background goroutine.
func (p *Persister) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	<-p.done
	return nil
}

// Written returns the number of successful writes.
func (p *Persister) Written() int64 {
	return p.written.Load()
}

// Failed returns the number of failed writes.
func (p *Persister) Failed() int64 {
	return p.failed.Load()
}

func (p *Persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.signal:
			p.write()
		case reply := <-p.flush:
			p.write()
			close(reply)
		case <-p.quit:
			p.write()
			return
		}
	}
}

func (p *Persister) write() {
	p.mu.Lock()
	id, dirty := p.pending, p.dirty
	p.dirty = false
	p.mu.Unlock()
	if !dirty {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.backend.SetDefaultLayer(ctx, id); err != nil {
		p.failed.Add(1)
		p.logger.Error("saving default layer", "layer", id, "err", err)
		return
	}
	p.written.Add(1)
	p.logger.Debug("saved default layer", "layer", id)
}
