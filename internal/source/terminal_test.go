package source

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyweave/internal/input/key"
)

func newSimTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminal(screen, TerminalConfig{Title: "test"})
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	screen.SetSize(100, 10)
	t.Cleanup(term.Shutdown)
	return term, screen
}

func eventStrings(events []Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.String()
	}
	return out
}

func TestTerminalTranslate(t *testing.T) {
	term, _ := newSimTerminal(t)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ev   *tcell.EventKey
		want []string
	}{
		{"letter", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), []string{"press 1,1", "release 1,1"}},
		{"digit", tcell.NewEventKey(tcell.KeyRune, '0', tcell.ModNone), []string{"press 0,10", "release 0,10"}},
		{"upper case", tcell.NewEventKey(tcell.KeyRune, 'A', tcell.ModNone), []string{"press 3,0", "press 2,1", "release 2,1", "release 3,0"}},
		{"shifted symbol", tcell.NewEventKey(tcell.KeyRune, '!', tcell.ModNone), []string{"press 3,0", "press 0,1", "release 0,1", "release 3,0"}},
		{"semicolon", tcell.NewEventKey(tcell.KeyRune, ';', tcell.ModNone), []string{"press 2,10", "release 2,10"}},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), []string{"press 4,5", "release 4,5"}},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), []string{"press 3,11", "release 3,11"}},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), []string{"press 2,0", "release 2,0"}},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), []string{"press 0,11", "release 0,11"}},
		{"page down", tcell.NewEventKey(tcell.KeyPgDn, 0, tcell.ModNone), []string{"rotate cw"}},
		{"page up", tcell.NewEventKey(tcell.KeyPgUp, 0, tcell.ModNone), []string{"rotate ccw"}},
		{"unmapped rune", tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, quit := term.Translate(tt.ev, at)
			if quit {
				t.Fatal("unexpected quit")
			}
			got := eventStrings(events)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTerminalTapTiming(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminal(screen, TerminalConfig{Hold: 50 * time.Millisecond})
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	events, _ := term.Translate(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), at)
	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if d := events[1].Key.Time.Sub(events[0].Key.Time); d != 50*time.Millisecond {
		t.Errorf("hold = %s, want 50ms", d)
	}
}

func TestTerminalLatchAndSwitches(t *testing.T) {
	term, _ := newSimTerminal(t)
	at := time.Now()

	f5 := tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone)
	events, _ := term.Translate(f5, at)
	if got := eventStrings(events); len(got) != 1 || got[0] != "press 4,4" {
		t.Fatalf("first F5 = %v", got)
	}
	if l := term.Latched(); len(l) != 1 || l[0] != (key.Pos{Row: 4, Col: 4}) {
		t.Errorf("Latched = %v", l)
	}
	events, _ = term.Translate(f5, at)
	if got := eventStrings(events); len(got) != 1 || got[0] != "release 4,4" {
		t.Fatalf("second F5 = %v", got)
	}
	if l := term.Latched(); len(l) != 0 {
		t.Errorf("Latched after release = %v", l)
	}

	home := tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone)
	events, _ = term.Translate(home, at)
	if got := eventStrings(events); got[0] != "switch 1 on" {
		t.Errorf("Home = %v", got)
	}
	events, _ = term.Translate(home, at)
	if got := eventStrings(events); got[0] != "switch 1 off" {
		t.Errorf("Home again = %v", got)
	}
	events, _ = term.Translate(tcell.NewEventKey(tcell.KeyInsert, 0, tcell.ModNone), at)
	if got := eventStrings(events); got[0] != "switch 0 on" {
		t.Errorf("Insert = %v", got)
	}

	if _, quit := term.Translate(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl), at); !quit {
		t.Error("Ctrl-C did not quit")
	}
}

func TestTerminalRun(t *testing.T) {
	term, screen := newSimTerminal(t)
	out := make(chan Event, 8)
	done := make(chan error, 1)
	go func() { done <- term.Run(context.Background(), out) }()

	screen.InjectKey(tcell.KeyRune, 'w', tcell.ModNone)
	for _, want := range []string{"press 1,2", "release 1,2"} {
		select {
		case ev := <-out:
			if ev.String() != want {
				t.Errorf("got %q, want %q", ev, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	screen.InjectKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on Ctrl-C")
	}
}

func TestTerminalRunCancelled(t *testing.T) {
	term, _ := newSimTerminal(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- term.Run(ctx, make(chan Event)) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestTerminalStatus(t *testing.T) {
	term, screen := newSimTerminal(t)
	term.SetStatus("layer QWERTY")
	if term.Status() != "layer QWERTY" {
		t.Errorf("Status = %q", term.Status())
	}

	cells, w, _ := screen.GetContents()
	var line strings.Builder
	for x := 0; x < w; x++ {
		for _, r := range cells[3*w+x].Runes {
			line.WriteRune(r)
		}
	}
	if !strings.HasPrefix(line.String(), "layer QWERTY") {
		t.Errorf("status line = %q", line.String())
	}
}
