package app

import (
	"sort"
	"time"

	"github.com/dshills/keyweave/internal/input/key"
)

// timeout is an expired hold timeout waiting to be delivered.
type timeout struct {
	pos key.Pos
	at  time.Time
}

// liveTimer arms wall-clock timers and posts expirations to the loop.
type liveTimer struct {
	out  chan<- timeout
	done <-chan struct{}
	now  func() time.Time
}

func (t *liveTimer) Schedule(pos key.Pos, after time.Duration) {
	time.AfterFunc(after, func() {
		select {
		case t.out <- timeout{pos: pos, at: t.now()}:
		case <-t.done:
		}
	})
}

// virtualTimer queues timeouts against event time for deterministic replay.
type virtualTimer struct {
	now     func() time.Time
	pending []timeout
}

func newVirtualTimer(now func() time.Time) *virtualTimer {
	return &virtualTimer{now: now}
}

func (t *virtualTimer) Schedule(pos key.Pos, after time.Duration) {
	t.pending = append(t.pending, timeout{pos: pos, at: t.now().Add(after)})
	sort.SliceStable(t.pending, func(i, j int) bool {
		return t.pending[i].at.Before(t.pending[j].at)
	})
}

// due removes and returns the timeouts expiring at or before upTo.
func (t *virtualTimer) due(upTo time.Time) []timeout {
	n := 0
	for n < len(t.pending) && !t.pending[n].at.After(upTo) {
		n++
	}
	out := append([]timeout(nil), t.pending[:n]...)
	t.pending = t.pending[n:]
	return out
}

// drain removes and returns every pending timeout.
func (t *virtualTimer) drain() []timeout {
	out := t.pending
	t.pending = nil
	return out
}
