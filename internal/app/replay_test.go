package app

import (
	"reflect"
	"testing"
	"time"

	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/muse"
	"github.com/dshills/keyweave/internal/source"
)

func replayHack(t *testing.T, events []source.Event) *engineFixture {
	t.Helper()
	f := newEngine(t)
	f.e.Handler().Selector().Select(keymap.Hack)
	f.tone.Reset()
	Replay(f.e, events)
	return f
}

func TestReplayDualRole(t *testing.T) {
	tests := []struct {
		name   string
		events []source.Event
		want   []string
	}{
		{
			name:   "tap",
			events: []source.Event{press(2, 0, 0), release(2, 0, 100)},
			want:   []string{"press ESC", "release ESC"},
		},
		{
			name:   "hold",
			events: []source.Event{press(2, 0, 0), release(2, 0, 250)},
			want:   []string{"mods+ LCTL", "mods- LCTL"},
		},
		{
			name:   "rolled within term",
			events: []source.Event{press(2, 0, 0), press(1, 1, 50), release(1, 1, 60), release(2, 0, 70)},
			want:   []string{"press ESC", "release ESC", "press Q", "release Q"},
		},
		{
			name:   "held across term",
			events: []source.Event{press(2, 0, 0), press(1, 1, 50), release(1, 1, 260), release(2, 0, 300)},
			want:   []string{"mods+ LCTL", "press Q", "release Q", "mods- LCTL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := replayHack(t, tt.events)
			if got := f.out.Events(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HID events = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplayTimeoutBeforeEvent(t *testing.T) {
	// The hold timeout falls between the press and the scan, so NAV is
	// active when the scan is handled.
	events := []source.Event{press(2, 10, 0), source.ScanEvent(at(250))}
	f := replayHack(t, events)
	f.assertActive(t, "NAV")
}

func TestReplayDrainsPendingTimeouts(t *testing.T) {
	f := replayHack(t, []source.Event{press(2, 10, 0)})
	f.assertActive(t, "NAV")
}

func TestReplayDeterministic(t *testing.T) {
	script, err := source.ParseScript([]byte(`
name: determinism
steps:
  - press: [4, 4]
  - press: [4, 7]
  - tap: [2, 7]
  - release: [4, 7]
  - release: [4, 4]
  - switch: {index: 1, on: true}
  - scan: 120
  - rotate: cw
  - press: [2, 0]
  - wait: 300ms
  - tap: [1, 1]
  - release: [2, 0]
  - switch: {index: 1, on: false}
  - scan: 2
`))
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}

	run := func(start time.Time) ([]string, []string, muse.State) {
		f := newEngine(t)
		Replay(f.e, script.Events(start))
		return f.out.Events(), f.tone.Events(), f.e.Muse().State()
	}

	hid1, tone1, st1 := run(t0)
	hid2, tone2, st2 := run(t0.Add(time.Hour))
	if !reflect.DeepEqual(hid1, hid2) {
		t.Errorf("HID differs between runs:\n%q\n%q", hid1, hid2)
	}
	if !reflect.DeepEqual(tone1, tone2) {
		t.Errorf("tone differs between runs:\n%q\n%q", tone1, tone2)
	}
	if st1 != st2 {
		t.Errorf("sequencer state differs: %s vs %s", st1, st2)
	}
	if len(tone1) == 0 {
		t.Error("sequencer played nothing")
	}
}

func TestVirtualTimerOrder(t *testing.T) {
	now := t0
	timer := newVirtualTimer(func() time.Time { return now })

	timer.Schedule(key.Pos{Row: 0, Col: 0}, 300*time.Millisecond)
	now = at(50)
	timer.Schedule(key.Pos{Row: 0, Col: 1}, 100*time.Millisecond)

	due := timer.due(at(200))
	if len(due) != 1 || due[0].pos.Col != 1 || !due[0].at.Equal(at(150)) {
		t.Fatalf("due(200ms) = %+v", due)
	}
	if rest := timer.drain(); len(rest) != 1 || rest[0].pos.Col != 0 {
		t.Errorf("drain() = %+v", rest)
	}
	if rest := timer.drain(); len(rest) != 0 {
		t.Errorf("second drain() = %+v", rest)
	}
}
