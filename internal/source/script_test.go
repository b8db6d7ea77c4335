package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const selectHack = `
name: select hack
steps:
  - press: [4, 4]
  - press: [4, 7]
  - tap: [2, 8]
  - release: [4, 7]
  - release: [4, 4]
  - wait: 250ms
  - rotate: cw
  - switch: {index: 1, on: true}
  - scan: 3
`

func TestParseScript(t *testing.T) {
	s, err := ParseScript([]byte(selectHack))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if s.Name != "select hack" {
		t.Errorf("Name = %q", s.Name)
	}
	if len(s.Steps) != 9 {
		t.Fatalf("len(Steps) = %d, want 9", len(s.Steps))
	}
	if s.Steps[5].Wait != 250*time.Millisecond {
		t.Errorf("wait = %s, want 250ms", s.Steps[5].Wait)
	}
	if sw := s.Steps[7].Switch; sw == nil || sw.Index != 1 || !sw.On {
		t.Errorf("switch step = %+v", sw)
	}
}

func TestScriptEvents(t *testing.T) {
	s, err := ParseScript([]byte(selectHack))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := s.Events(start)

	want := []string{
		"press 4,4", "press 4,7", "press 2,8", "release 2,8",
		"release 4,7", "release 4,4", "rotate cw", "switch 1 on",
		"scan", "scan", "scan",
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.String() != want[i] {
			t.Errorf("event %d = %q, want %q", i, ev.String(), want[i])
		}
	}

	// tap holds for DefaultTapHold
	if d := events[3].Time.Sub(events[2].Time); d != DefaultTapHold {
		t.Errorf("tap hold = %s, want %s", d, DefaultTapHold)
	}
	// wait shifts everything after it
	if d := events[6].Time.Sub(events[5].Time); d != DefaultStepGap+250*time.Millisecond {
		t.Errorf("gap across wait = %s", d)
	}
	if !events[0].Time.Equal(start) {
		t.Errorf("first event at %v, want %v", events[0].Time, start)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Time.Before(events[i-1].Time) {
			t.Errorf("event %d goes back in time", i)
		}
	}
}

func TestScriptTimingOverrides(t *testing.T) {
	s := &Script{
		TapHold:      300 * time.Millisecond,
		StepGap:      5 * time.Millisecond,
		ScanInterval: 2 * time.Millisecond,
		Steps:        []Step{{Tap: []int{2, 11}}, {Scan: 2}},
	}
	events := s.Events(time.Time{})
	if d := events[1].Time.Sub(events[0].Time); d != 300*time.Millisecond {
		t.Errorf("tap hold = %s", d)
	}
	if d := events[3].Time.Sub(events[2].Time); d != 2*time.Millisecond {
		t.Errorf("scan interval = %s", d)
	}
	if got := s.Duration(); got != 305*time.Millisecond+2*time.Millisecond {
		t.Errorf("Duration = %s", got)
	}
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty document", "", ErrEmptyScript},
		{"no steps", "name: x\nsteps: []\n", ErrEmptyScript},
		{"two instructions", "steps:\n  - press: [0, 0]\n    scan: 2\n", ErrBadStep},
		{"short position", "steps:\n  - press: [0]\n", ErrBadStep},
		{"negative position", "steps:\n  - tap: [-1, 0]\n", ErrBadStep},
		{"bad rotation", "steps:\n  - rotate: sideways\n", ErrBadStep},
		{"negative wait", "steps:\n  - wait: -5ms\n", ErrBadStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScript([]byte(tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseScriptUnknownField(t *testing.T) {
	if _, err := ParseScript([]byte("steps:\n  - jump: [0, 0]\n")); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestScriptMarshalRoundTrip(t *testing.T) {
	s, err := ParseScript([]byte(selectHack))
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	data, err := s.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := ParseScript(data)
	if err != nil {
		t.Fatalf("ParseScript(Marshal): %v\n%s", err, data)
	}
	a, b := s.Events(time.Time{}), back.Events(time.Time{})
	if len(a) != len(b) {
		t.Fatalf("round trip changed event count %d -> %d", len(a), len(b))
	}
	for i := range a {
		if a[i].String() != b[i].String() || !a[i].Time.Equal(b[i].Time) {
			t.Errorf("event %d: %v@%v -> %v@%v", i, a[i], a[i].Time, b[i], b[i].Time)
		}
	}
}

func TestLoadScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tap.yaml")
	if err := os.WriteFile(path, []byte("steps:\n  - tap: [1, 1]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if s.Name != path {
		t.Errorf("Name = %q, want path", s.Name)
	}

	if _, err := LoadScript(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestPlayerRun(t *testing.T) {
	s := &Script{Name: "p", Steps: []Step{
		{Press: []int{0, 1}},
		{Wait: time.Second},
		{Release: []int{0, 1}},
	}}
	p := NewPlayer(s)

	var slept []time.Duration
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }
	p.sleep = func(_ context.Context, d time.Duration) bool {
		slept = append(slept, d)
		clock = clock.Add(d)
		return true
	}

	out := make(chan Event, 4)
	if err := p.Run(context.Background(), out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	close(out)

	var got []Event
	for ev := range out {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if len(slept) != 1 || slept[0] != time.Second+DefaultStepGap {
		t.Errorf("slept = %v", slept)
	}
	if !got[1].Key.Time.Equal(got[0].Key.Time.Add(time.Second + DefaultStepGap)) {
		t.Errorf("release stamped %v after press %v", got[1].Key.Time, got[0].Key.Time)
	}
	if p.Name() != "script:p" {
		t.Errorf("Name = %q", p.Name())
	}
}

func TestPlayerRunCancelled(t *testing.T) {
	s := &Script{Steps: []Step{{Press: []int{0, 0}}, {Release: []int{0, 0}}}}
	p := NewPlayer(s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered and unread: the player must not block.
	out := make(chan Event)
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx, out) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
