package muse

import "testing"

func TestClockRange(t *testing.T) {
	c := NewClock()
	seen := make(map[int]bool)
	for i := 0; i < 10000; i++ {
		p := c.Pulse()
		if p < 0 || p >= len(Scale) {
			t.Fatalf("pulse %d = %d, out of range", i, p)
		}
		seen[p] = true
	}
	if len(seen) < 8 {
		t.Errorf("clock visited only %d of %d values", len(seen), len(Scale))
	}
}

func TestClockDeterministic(t *testing.T) {
	a, b := NewClock(), NewClock()
	for i := 0; i < 500; i++ {
		if pa, pb := a.Pulse(), b.Pulse(); pa != pb {
			t.Fatalf("pulse %d differs: %d != %d", i, pa, pb)
		}
	}

	first := make([]int, 50)
	a.Reset()
	for i := range first {
		first[i] = a.Pulse()
	}
	a.Reset()
	for i := range first {
		if p := a.Pulse(); p != first[i] {
			t.Fatalf("after Reset pulse %d = %d, want %d", i, p, first[i])
		}
	}
}

func TestClockStartsSilent(t *testing.T) {
	// The register is empty until the high taps fill.
	c := NewClock()
	if p := c.Pulse(); p != 0 {
		t.Errorf("first pulse = %d, want 0", p)
	}
}

func TestScale(t *testing.T) {
	for i := 1; i < len(Scale); i++ {
		if Scale[i] <= Scale[i-1] {
			t.Errorf("Scale not ascending at %d", i)
		}
	}
	if Scale[len(Scale)-1] != MaxInterval {
		t.Errorf("MaxInterval = %d, want %d", MaxInterval, Scale[len(Scale)-1])
	}
}
