package app

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/input"
	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/muse"
	"github.com/dshills/keyweave/internal/source"
)

var t0 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func press(row, col, ms int) source.Event {
	return source.KeyEvent(key.Press(row, col, at(ms)))
}

func release(row, col, ms int) source.Event {
	return source.KeyEvent(key.Release(row, col, at(ms)))
}

type engineFixture struct {
	e    *Engine
	out  *hid.Recorder
	tone *audio.Recorder
}

func newEngine(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		out:  hid.NewRecorder(),
		tone: audio.NewRecorder(),
	}
	e, err := NewEngine(keymap.Default(), DefaultConfig(), Deps{HID: f.out, Tone: f.tone})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	t.Cleanup(e.Close)
	f.e = e
	return f
}

func (f *engineFixture) handle(events ...source.Event) {
	for _, ev := range events {
		f.e.Handle(ev)
	}
}

func (f *engineFixture) assertActive(t *testing.T, want ...string) {
	t.Helper()
	got := f.e.Status().Active
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("active layers = %v, want %v", got, want)
	}
}

func TestBindDefaultLayout(t *testing.T) {
	cfg, err := Bind(keymap.Default(), DefaultConfig())
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if cfg.Input.LowerLayer != keymap.Lower || cfg.Input.RaiseLayer != keymap.Raise || cfg.Input.AdjustLayer != keymap.Adjust {
		t.Errorf("tri-layer = %d/%d/%d", cfg.Input.LowerLayer, cfg.Input.RaiseLayer, cfg.Input.AdjustLayer)
	}
	if cfg.Muse.OffsetLayer != keymap.Raise || cfg.Muse.AdjustLayer != keymap.Adjust {
		t.Errorf("muse layers = %d/%d", cfg.Muse.OffsetLayer, cfg.Muse.AdjustLayer)
	}
	if got := cfg.Input.Defaults[key.ActionSelectHack]; got != keymap.Hack {
		t.Errorf("HACK selects %d, want %d", got, keymap.Hack)
	}
	if _, ok := cfg.Input.Songs[keymap.Qwerty]; !ok {
		t.Error("no song for QWERTY")
	}
}

func TestBindMissingLayer(t *testing.T) {
	km := keymap.Default()
	km.Layers[keymap.Adjust].Name = "FN"

	_, err := Bind(km, DefaultConfig())
	if !errors.Is(err, ErrMissingLayer) {
		t.Errorf("Bind() error = %v, want ErrMissingLayer", err)
	}
}

func TestBindOptionalSelection(t *testing.T) {
	km := keymap.Default()
	km.Layers[keymap.Hack].Name = "DVORAK"

	cfg, err := Bind(km, DefaultConfig())
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if _, ok := cfg.Input.Defaults[key.ActionSelectHack]; ok {
		t.Error("HACK selection bound without a HACK layer")
	}
	if _, ok := cfg.Input.Defaults[key.ActionSelectQwerty]; !ok {
		t.Error("QWERTY selection missing")
	}
}

func TestLowerRaiseAdjust(t *testing.T) {
	f := newEngine(t)

	f.handle(press(4, 4, 0))
	f.assertActive(t, "LOWER")

	f.handle(press(4, 7, 10))
	f.assertActive(t, "LOWER", "RAISE", "ADJUST")

	f.handle(release(4, 4, 20))
	f.assertActive(t, "RAISE")

	f.handle(release(4, 7, 30))
	f.assertActive(t)
}

func TestLowerRaiseOrderIndependent(t *testing.T) {
	f := newEngine(t)

	f.handle(press(4, 7, 0), press(4, 4, 10))
	f.assertActive(t, "LOWER", "RAISE", "ADJUST")

	f.handle(release(4, 7, 20))
	f.assertActive(t, "LOWER")
}

func TestEncoderPagesWhileSequencerOff(t *testing.T) {
	f := newEngine(t)

	f.handle(source.RotateEvent(true, at(0)))
	f.handle(source.RotateEvent(false, at(10)))

	want := []string{"press PGDN", "release PGDN", "press PGUP", "release PGUP"}
	if got := f.out.Events(); !reflect.DeepEqual(got, want) {
		t.Errorf("HID events = %q, want %q", got, want)
	}
	if st := f.e.Muse().State(); st.Tempo != muse.DefaultTempo || st.Offset != muse.DefaultOffset {
		t.Errorf("sequencer state changed: %s", st)
	}
}

func TestEncoderTunesSequencer(t *testing.T) {
	f := newEngine(t)

	f.handle(source.SwitchEvent(muse.SwitchMuse, true, at(0)))
	f.handle(source.RotateEvent(true, at(10)))
	if got := f.e.Muse().State().Tempo; got != muse.DefaultTempo+1 {
		t.Errorf("Tempo = %d, want %d", got, muse.DefaultTempo+1)
	}

	// Raise selects the offset.
	f.handle(press(4, 7, 20), source.RotateEvent(false, at(30)))
	if got := f.e.Muse().State().Offset; got != muse.DefaultOffset-1 {
		t.Errorf("Offset = %d, want %d", got, muse.DefaultOffset-1)
	}
	if len(f.out.Events()) != 0 {
		t.Errorf("encoder emitted keys while sequencer ran: %q", f.out.Events())
	}
}

func TestAdjustSwitch(t *testing.T) {
	f := newEngine(t)

	f.handle(source.SwitchEvent(muse.SwitchAdjust, true, at(0)))
	f.assertActive(t, "ADJUST")
	f.handle(source.SwitchEvent(muse.SwitchAdjust, false, at(10)))
	f.assertActive(t)
}

func TestScanPlaysOneNote(t *testing.T) {
	f := newEngine(t)

	f.handle(source.SwitchEvent(muse.SwitchMuse, true, at(0)))
	for i := 0; i < 3*muse.DefaultTempo; i++ {
		f.handle(source.ScanEvent(at(i)))
		if n := f.tone.Sounding(); n > 1 {
			t.Fatalf("scan %d: %d notes sounding", i, n)
		}
	}
	f.handle(source.SwitchEvent(muse.SwitchMuse, false, at(500)))
	f.handle(source.ScanEvent(at(501)), source.ScanEvent(at(502)))
	if got := f.tone.StopAllCount(); got != 1 {
		t.Errorf("StopAll called %d times, want 1", got)
	}
}

func TestSelectHackFromAdjust(t *testing.T) {
	f := newEngine(t)

	f.handle(press(4, 4, 0), press(4, 7, 10), press(2, 8, 20), release(2, 8, 30))
	if st := f.e.Status(); st.Default != "HACK" {
		t.Errorf("default = %s, want HACK", st.Default)
	}
	f.assertActive(t)
	if len(f.tone.Songs()) != 1 {
		t.Errorf("songs played = %d, want 1", len(f.tone.Songs()))
	}

	f.handle(release(4, 7, 40), release(4, 4, 50))
	f.assertActive(t)
}

func TestStatusCallbacks(t *testing.T) {
	f := newEngine(t)
	var got []string
	f.e.OnStatus(func(st Status) { got = append(got, st.String()) })

	f.handle(press(4, 4, 0), release(4, 4, 10))

	want := []string{
		"preonic | QWERTY | LOWER | muse off",
		"preonic | QWERTY | - | muse off",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("status = %q, want %q", got, want)
	}
}

func TestStatusString(t *testing.T) {
	st := Status{
		Layout:  "preonic",
		Default: "HACK",
		Active:  []string{"RAISE"},
		Muse:    muse.State{Enabled: true, Offset: 60, Tempo: 40},
	}
	if got, want := st.String(), "preonic | HACK | RAISE | muse offset=60 tempo=40"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSwapLayoutKeepsState(t *testing.T) {
	f := newEngine(t)
	f.e.Handler().Selector().Select(keymap.Hack)
	f.handle(source.SwitchEvent(muse.SwitchMuse, true, at(0)))
	f.handle(source.RotateEvent(true, at(5)))
	f.handle(press(1, 2, 10))

	km := keymap.Default()
	km.Source = "test"
	km.Layers[keymap.Hack].Keys[1][1] = "Z"
	if err := f.e.SwapLayout(km); err != nil {
		t.Fatalf("SwapLayout() error = %v", err)
	}

	events := f.out.Events()
	if events[len(events)-1] != "release W" {
		t.Errorf("held key not released on swap: %q", events)
	}
	if got := f.e.Status().Default; got != "HACK" {
		t.Errorf("default = %s, want HACK", got)
	}
	st := f.e.Muse().State()
	if !st.Enabled || st.Tempo != muse.DefaultTempo+1 {
		t.Errorf("sequencer state = %s, want enabled tempo %d", st, muse.DefaultTempo+1)
	}

	f.out.Reset()
	f.handle(press(1, 1, 20), release(1, 1, 30))
	if want := []string{"press Z", "release Z"}; !reflect.DeepEqual(f.out.Events(), want) {
		t.Errorf("HID events = %q, want %q", f.out.Events(), want)
	}
}

func TestSwapLayoutRejectsMissingLayer(t *testing.T) {
	f := newEngine(t)
	before := f.e.Layout()

	km := keymap.Default()
	km.Layers[keymap.Lower].Name = "SYM"
	if err := f.e.SwapLayout(km); !errors.Is(err, ErrMissingLayer) {
		t.Fatalf("SwapLayout() error = %v, want ErrMissingLayer", err)
	}
	if f.e.Layout() != before {
		t.Error("layout replaced despite error")
	}

	f.handle(press(4, 4, 0))
	f.assertActive(t, "LOWER")
}

type fakeScheduler struct {
	armed []key.Pos
}

func (s *fakeScheduler) Schedule(pos key.Pos, after time.Duration) {
	s.armed = append(s.armed, pos)
}

func TestHoldTimeout(t *testing.T) {
	f := newEngine(t)
	f.e.Handler().Selector().Select(keymap.Hack)
	sched := &fakeScheduler{}
	f.e.SetScheduler(sched)

	// LT(NAV,SCLN)
	f.handle(press(2, 10, 0))
	if len(sched.armed) != 1 {
		t.Fatalf("armed %d timers, want 1", len(sched.armed))
	}
	f.e.HoldTimeout(sched.armed[0], at(200))
	f.assertActive(t, "NAV")

	f.handle(release(2, 10, 300))
	f.assertActive(t)
}

// swallowHook consumes every event of one keycode.
type swallowHook struct {
	input.BaseHook
	code string
}

func (h swallowHook) PreKeyEvent(_ *key.Event, kc key.Keycode) bool {
	return kc.String() == h.code
}

func TestHooksSurviveSwap(t *testing.T) {
	out := hid.NewRecorder()
	e, err := NewEngine(keymap.Default(), DefaultConfig(), Deps{
		HID:   out,
		Hooks: []input.HookRegistration{{Name: "swallow", Hook: swallowHook{code: "Q"}}},
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	defer e.Close()

	e.Handle(press(1, 1, 0))
	e.Handle(release(1, 1, 10))
	if len(out.Events()) != 0 {
		t.Errorf("hooked key emitted %q", out.Events())
	}

	if err := e.SwapLayout(keymap.Default()); err != nil {
		t.Fatalf("SwapLayout() error = %v", err)
	}
	if got := e.Handler().Hooks().Count(); got != 2 {
		t.Errorf("hooks after swap = %d, want music and swallow", got)
	}
	e.Handle(press(1, 1, 20))
	e.Handle(release(1, 1, 30))
	if len(out.Events()) != 0 {
		t.Errorf("hooked key emitted %q after swap", out.Events())
	}
}
