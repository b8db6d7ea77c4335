package app

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/source"
)

// blockSource emits its events, then blocks until cancelled.
type blockSource struct {
	events []source.Event
	gap    time.Duration
}

func (s *blockSource) Name() string { return "block" }

func (s *blockSource) Run(ctx context.Context, out chan<- source.Event) error {
	for _, ev := range s.events {
		ev.Time = time.Now()
		ev.Key.Time = ev.Time
		select {
		case out <- ev:
		case <-ctx.Done():
			return nil
		}
		select {
		case <-time.After(s.gap):
		case <-ctx.Done():
			return nil
		}
	}
	<-ctx.Done()
	return nil
}

type failSource struct{ err error }

func (s failSource) Name() string { return "fail" }

func (s failSource) Run(context.Context, chan<- source.Event) error { return s.err }

// statusLog collects status lines written from the loop goroutine.
type statusLog struct {
	mu    sync.Mutex
	lines []Status
}

func (l *statusLog) add(st Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, st)
}

func (l *statusLog) sawActive(want ...string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.lines {
		if reflect.DeepEqual(st.Active, want) {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoopRunsScript(t *testing.T) {
	f := newEngine(t)
	script, err := source.ParseScript([]byte(`
name: select hack
steps:
  - press: [4, 4]
  - press: [4, 7]
  - tap: [2, 8]
  - release: [4, 7]
  - release: [4, 4]
  - tap: [1, 1]
`))
	if err != nil {
		t.Fatalf("ParseScript() error = %v", err)
	}

	rec := source.NewRecorder()
	if err := rec.Start("capture"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	loop := NewLoop(f.e, LoopConfig{Recorder: rec}, nil, source.NewPlayer(script))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := f.e.Status().Default; got != "HACK" {
		t.Errorf("default = %s, want HACK", got)
	}
	if want := []string{"press Q", "release Q"}; !reflect.DeepEqual(f.out.Events(), want) {
		t.Errorf("HID events = %q, want %q", f.out.Events(), want)
	}
	if got := loop.Metrics().Snapshot().Events; got != 8 {
		t.Errorf("Events = %d, want 8", got)
	}
	if got := rec.Len(); got != 8 {
		t.Errorf("recorded %d events, want 8", got)
	}
	if loop.IsRunning() {
		t.Error("IsRunning() after Run returned")
	}
}

func TestLoopNoSource(t *testing.T) {
	f := newEngine(t)
	if err := NewLoop(f.e, LoopConfig{}, nil).Run(context.Background()); !errors.Is(err, ErrNoSource) {
		t.Errorf("Run() error = %v, want ErrNoSource", err)
	}
}

func TestLoopSourceError(t *testing.T) {
	f := newEngine(t)
	boom := errors.New("boom")
	loop := NewLoop(f.e, LoopConfig{}, nil, failSource{err: boom}, &blockSource{})

	err := loop.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	var ce *ComponentError
	if !errors.As(err, &ce) || ce.Component != "source:fail" {
		t.Errorf("error = %#v, want ComponentError for source:fail", err)
	}
}

func TestLoopAlreadyRunning(t *testing.T) {
	f := newEngine(t)
	loop := NewLoop(f.e, LoopConfig{}, nil, &blockSource{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	waitFor(t, "loop start", loop.IsRunning)
	if err := loop.Run(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestLoopHoldTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.TappingTerm = 20 * time.Millisecond
	e, err := NewEngine(keymap.Default(), cfg, Deps{HID: hid.NewRecorder(), Tone: audio.NewRecorder()})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.Handler().Selector().Select(keymap.Hack)
	log := &statusLog{}
	e.OnStatus(log.add)

	// LT(NAV,SCLN) held past the tapping term.
	src := &blockSource{events: []source.Event{source.KeyEvent(key.Press(2, 10, time.Time{}))}}
	loop := NewLoop(e, LoopConfig{}, nil, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	waitFor(t, "NAV layer", func() bool { return log.sawActive("NAV") })
	waitFor(t, "timeout metric", func() bool { return loop.Metrics().Snapshot().Timeouts == 1 })
	cancel()
	<-done
}

func TestLoopScanTicks(t *testing.T) {
	f := newEngine(t)
	loop := NewLoop(f.e, LoopConfig{ScanInterval: time.Millisecond}, nil, &blockSource{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	waitFor(t, "scan ticks", func() bool { return loop.Metrics().Snapshot().Scans >= 3 })
	cancel()
	<-done
}

func TestLoopReloadsLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.toml")
	km := keymap.Default()
	if err := km.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	w, err := keymap.NewWatcher(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	f := newEngine(t)
	loop := NewLoop(f.e, LoopConfig{Watcher: w}, nil, &blockSource{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	broken := keymap.Default()
	broken.Layers[keymap.Lower].Name = "SYM"
	if err := broken.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	waitFor(t, "rejected reload", func() bool { return loop.Metrics().Snapshot().ReloadFailures >= 1 })

	km.Layers[keymap.Qwerty].Keys[1][1] = "Z"
	if err := km.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	waitFor(t, "reload", func() bool { return loop.Metrics().Snapshot().Reloads >= 1 })

	cancel()
	<-done
	if got := f.e.Layout().Layers[keymap.Qwerty].Keys[1][1]; got != "Z" {
		t.Errorf("reloaded cell = %q, want Z", got)
	}
}
