package app

import (
	"github.com/dshills/keyweave/internal/source"
)

// Replay feeds events through e in order, using event time for hold
// timeouts. Timeouts due at or before an event are delivered first; any
// still pending after the last event are delivered at the end. The
// result depends only on the events, never on wall-clock time.
func Replay(e *Engine, events []source.Event) {
	timer := newVirtualTimer(e.Now)
	e.SetScheduler(timer)
	defer e.SetScheduler(nil)

	for _, ev := range events {
		for _, to := range timer.due(ev.Time) {
			e.HoldTimeout(to.pos, to.at)
		}
		e.Handle(ev)
	}
	for _, to := range timer.drain() {
		e.HoldTimeout(to.pos, to.at)
	}
}
