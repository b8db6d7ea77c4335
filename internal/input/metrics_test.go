package input

import (
	"testing"
	"time"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordKeyEvent(time.Millisecond)
	m.RecordKeyEvent(3 * time.Millisecond)
	m.RecordAction()
	m.RecordTap()
	m.RecordHold()
	m.RecordHold()
	m.RecordDroppedEvent()
	m.RecordHookConsumption()

	s := m.Snapshot()
	if s.KeyEventsTotal != 2 || s.ActionsTotal != 1 || s.TapsTotal != 1 ||
		s.HoldsTotal != 2 || s.DroppedEvents != 1 || s.HookConsumptions != 1 {
		t.Errorf("Snapshot() = %+v", s)
	}
	if s.MaxKeyLatency != 3*time.Millisecond || s.PeakKeyLatency != 3*time.Millisecond {
		t.Errorf("max latency = %v, peak = %v", s.MaxKeyLatency, s.PeakKeyLatency)
	}
	if s.AvgKeyLatency != 2*time.Millisecond {
		t.Errorf("avg latency = %v, want 2ms", s.AvgKeyLatency)
	}

	m.Reset()
	if m.KeyEventsTotal() != 0 || m.ActionsTotal() != 0 || m.DroppedEvents() != 0 {
		t.Error("Reset() left counters")
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics()
	m.SetEnabled(false)
	m.RecordKeyEvent(time.Millisecond)
	m.RecordAction()

	if m.IsEnabled() || m.KeyEventsTotal() != 0 || m.ActionsTotal() != 0 {
		t.Error("disabled metrics recorded events")
	}
}

func TestMetricsHealthCheck(t *testing.T) {
	m := NewMetrics()
	m.RecordKeyEvent(time.Millisecond)
	if h := m.HealthCheck(10 * time.Millisecond); !h.Healthy {
		t.Errorf("HealthCheck() = %+v, want healthy", h)
	}

	m.RecordKeyEvent(50 * time.Millisecond)
	if h := m.HealthCheck(10 * time.Millisecond); h.Healthy {
		t.Errorf("HealthCheck() = %+v, want unhealthy", h)
	}
}
