package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks loop throughput.
type Metrics struct {
	events         atomic.Uint64
	eventTotalNs   atomic.Int64
	eventMaxNs     atomic.Int64
	timeouts       atomic.Uint64
	scans          atomic.Uint64
	reloads        atomic.Uint64
	reloadFailures atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEvent records the processing time of one source event.
func (m *Metrics) RecordEvent(duration time.Duration) {
	ns := duration.Nanoseconds()
	m.events.Add(1)
	m.eventTotalNs.Add(ns)

	// Update max (atomic compare-and-swap loop)
	for {
		old := m.eventMaxNs.Load()
		if ns <= old {
			break
		}
		if m.eventMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordTimeout records a delivered hold timeout.
func (m *Metrics) RecordTimeout() {
	m.timeouts.Add(1)
}

// RecordScan records a scan tick.
func (m *Metrics) RecordScan() {
	m.scans.Add(1)
}

// RecordReload records a layout reload attempt.
func (m *Metrics) RecordReload(ok bool) {
	if ok {
		m.reloads.Add(1)
		return
	}
	m.reloadFailures.Add(1)
}

// MetricsSnapshot is a point-in-time copy of the metrics.
type MetricsSnapshot struct {
	Events         uint64
	AvgEventTime   time.Duration
	MaxEventTime   time.Duration
	Timeouts       uint64
	Scans          uint64
	Reloads        uint64
	ReloadFailures uint64
	Uptime         time.Duration
}

// Snapshot returns the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Events:         m.events.Load(),
		MaxEventTime:   time.Duration(m.eventMaxNs.Load()),
		Timeouts:       m.timeouts.Load(),
		Scans:          m.scans.Load(),
		Reloads:        m.reloads.Load(),
		ReloadFailures: m.reloadFailures.Load(),
		Uptime:         time.Since(m.startTime),
	}
	if s.Events > 0 {
		s.AvgEventTime = time.Duration(m.eventTotalNs.Load() / int64(s.Events))
	}
	return s
}
