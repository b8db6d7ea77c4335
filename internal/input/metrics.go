package input

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks event processing counts and latency.
type Metrics struct {
	keyEventsTotal atomic.Uint64
	actionsTotal   atomic.Uint64
	tapsTotal      atomic.Uint64
	holdsTotal     atomic.Uint64
	droppedEvents  atomic.Uint64
	hookConsumed   atomic.Uint64

	mu                sync.RWMutex
	keyLatencies      []time.Duration
	maxLatencySamples int
	latencyIdx        int

	peakKeyLatency atomic.Int64

	startTime time.Time

	enabled atomic.Bool
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		keyLatencies:      make([]time.Duration, 1000),
		maxLatencySamples: 1000,
		startTime:         time.Now(),
	}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables metrics collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled returns whether metrics collection is enabled.
func (m *Metrics) IsEnabled() bool {
	return m.enabled.Load()
}

// RecordKeyEvent records a key event with its processing time.
func (m *Metrics) RecordKeyEvent(latency time.Duration) {
	if !m.enabled.Load() {
		return
	}

	m.keyEventsTotal.Add(1)

	latencyNs := latency.Nanoseconds()
	for {
		current := m.peakKeyLatency.Load()
		if latencyNs <= current {
			break
		}
		if m.peakKeyLatency.CompareAndSwap(current, latencyNs) {
			break
		}
	}

	m.mu.Lock()
	m.keyLatencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % m.maxLatencySamples
	m.mu.Unlock()
}

// RecordAction records a custom action dispatch.
func (m *Metrics) RecordAction() {
	if m.enabled.Load() {
		m.actionsTotal.Add(1)
	}
}

// RecordTap records a dual-role key resolved as tap.
func (m *Metrics) RecordTap() {
	if m.enabled.Load() {
		m.tapsTotal.Add(1)
	}
}

// RecordHold records a dual-role key resolved as hold.
func (m *Metrics) RecordHold() {
	if m.enabled.Load() {
		m.holdsTotal.Add(1)
	}
}

// RecordDroppedEvent records an event that could not be processed.
func (m *Metrics) RecordDroppedEvent() {
	if m.enabled.Load() {
		m.droppedEvents.Add(1)
	}
}

// RecordHookConsumption records an event consumed by a hook.
func (m *Metrics) RecordHookConsumption() {
	if m.enabled.Load() {
		m.hookConsumed.Add(1)
	}
}

// MetricsSnapshot holds a point-in-time view of metrics.
type MetricsSnapshot struct {
	KeyEventsTotal   uint64
	ActionsTotal     uint64
	TapsTotal        uint64
	HoldsTotal       uint64
	DroppedEvents    uint64
	HookConsumptions uint64

	AvgKeyLatency  time.Duration
	MaxKeyLatency  time.Duration
	P99KeyLatency  time.Duration
	PeakKeyLatency time.Duration

	EventsPerSecond float64

	Uptime time.Duration
}

// Snapshot returns a point-in-time view of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	keyLatencies := make([]time.Duration, len(m.keyLatencies))
	copy(keyLatencies, m.keyLatencies)
	uptime := time.Since(m.startTime)
	m.mu.RUnlock()

	keyCount := m.keyEventsTotal.Load()
	snap := MetricsSnapshot{
		KeyEventsTotal:   keyCount,
		ActionsTotal:     m.actionsTotal.Load(),
		TapsTotal:        m.tapsTotal.Load(),
		HoldsTotal:       m.holdsTotal.Load(),
		DroppedEvents:    m.droppedEvents.Load(),
		HookConsumptions: m.hookConsumed.Load(),
		PeakKeyLatency:   time.Duration(m.peakKeyLatency.Load()),
		Uptime:           uptime,
	}
	if uptime > 0 {
		snap.EventsPerSecond = float64(keyCount) / uptime.Seconds()
	}
	snap.AvgKeyLatency, snap.MaxKeyLatency, snap.P99KeyLatency = calculateLatencyStats(keyLatencies)
	return snap
}

// calculateLatencyStats computes average, max, and p99 from a slice of latencies.
func calculateLatencyStats(latencies []time.Duration) (avg, maxLat, p99 time.Duration) {
	valid := make([]time.Duration, 0, len(latencies))
	for _, l := range latencies {
		if l > 0 {
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return 0, 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
		if l > maxLat {
			maxLat = l
		}
	}
	avg = sum / time.Duration(len(valid))

	slices.Sort(valid)
	idx := int(float64(len(valid)) * 0.99)
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	p99 = valid[idx]

	return avg, maxLat, p99
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.keyEventsTotal.Store(0)
	m.actionsTotal.Store(0)
	m.tapsTotal.Store(0)
	m.holdsTotal.Store(0)
	m.droppedEvents.Store(0)
	m.hookConsumed.Store(0)
	m.peakKeyLatency.Store(0)

	m.mu.Lock()
	m.keyLatencies = make([]time.Duration, m.maxLatencySamples)
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}

// KeyEventsTotal returns the total number of key events processed.
func (m *Metrics) KeyEventsTotal() uint64 {
	return m.keyEventsTotal.Load()
}

// ActionsTotal returns the total number of custom actions dispatched.
func (m *Metrics) ActionsTotal() uint64 {
	return m.actionsTotal.Load()
}

// DroppedEvents returns the total number of dropped events.
func (m *Metrics) DroppedEvents() uint64 {
	return m.droppedEvents.Load()
}

// HealthStatus represents the current health of event processing.
type HealthStatus struct {
	Healthy          bool
	DroppedEvents    uint64
	PeakLatency      time.Duration
	LatencyThreshold time.Duration
	Message          string
}

// HealthCheck returns the current health status.
func (m *Metrics) HealthCheck(latencyThreshold time.Duration) HealthStatus {
	status := HealthStatus{
		Healthy:          true,
		DroppedEvents:    m.droppedEvents.Load(),
		PeakLatency:      time.Duration(m.peakKeyLatency.Load()),
		LatencyThreshold: latencyThreshold,
	}

	if status.DroppedEvents > 0 {
		status.Healthy = false
		status.Message = "dropped events detected"
	} else if status.PeakLatency > latencyThreshold {
		status.Healthy = false
		status.Message = "latency threshold exceeded"
	} else {
		status.Message = "healthy"
	}

	return status
}

// Timer measures event processing time.
type Timer struct {
	start   time.Time
	metrics *Metrics
}

// StartKeyEventTimer starts a timer for measuring key event processing.
func (m *Metrics) StartKeyEventTimer() *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: m,
	}
}

// Stop stops the timer and records the key event latency.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.metrics.RecordKeyEvent(elapsed)
	return elapsed
}
