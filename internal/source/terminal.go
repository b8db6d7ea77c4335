package source

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyweave/internal/input/key"
)

// DefaultTerminalHold is how long a typed key is held before its
// synthesized release.
const DefaultTerminalHold = 20 * time.Millisecond

// shiftPos is the matrix position pressed around shifted characters.
var shiftPos = key.Pos{Row: 3, Col: 0}

// unshifted maps shifted US punctuation to the key that produces it.
var unshifted = map[rune]rune{
	'~': '`', '!': '1', '@': '2', '#': '3', '$': '4', '%': '5',
	'^': '6', '&': '7', '*': '8', '(': '9', ')': '0', '_': '-',
	'{': '[', ':': ';', '"': '\'', '<': ',', '>': '.', '?': '/',
}

// terminalRows places typeable characters on the matrix. Index is the column.
var terminalRows = []string{
	"`1234567890-",
	" qwertyuiop[",
	" asdfghjkl;'",
	" zxcvbnm,./ ",
}

// TerminalConfig configures a Terminal.
type TerminalConfig struct {
	// Hold is the delay between a typed key's press and its release.
	Hold time.Duration

	// Title is drawn on the first line.
	Title string
}

// Terminal turns terminal keystrokes into matrix events. Terminals report
// key presses only, so every typed key is pressed and released after Hold.
// F1-F12 latch the bottom row keys: the first stroke presses, the next
// releases. PgDn/PgUp turn the encoder; Insert and Home flip dip switches
// 0 and 1. Ctrl-C ends the source.
type Terminal struct {
	mu        sync.Mutex
	screen    tcell.Screen
	cfg       TerminalConfig
	positions map[rune]key.Pos
	latched   map[key.Pos]bool
	switches  [2]bool
	status    string
	ready     bool
}

// OpenTerminal creates a terminal on the controlling tty.
func OpenTerminal(cfg TerminalConfig) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewTerminal(screen, cfg), nil
}

// NewTerminal creates a terminal source on screen. Init must be called
// before Run.
func NewTerminal(screen tcell.Screen, cfg TerminalConfig) *Terminal {
	if cfg.Hold <= 0 {
		cfg.Hold = DefaultTerminalHold
	}
	if cfg.Title == "" {
		cfg.Title = "keyweave"
	}
	t := &Terminal{
		screen:    screen,
		cfg:       cfg,
		positions: make(map[rune]key.Pos),
		latched:   make(map[key.Pos]bool),
	}
	for row, chars := range terminalRows {
		for col, r := range chars {
			if r != ' ' {
				t.positions[r] = key.Pos{Row: row, Col: col}
			}
		}
	}
	return t
}

// Init initializes the screen.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.ready = true
	t.screen.Clear()
	t.drawLocked()
	return nil
}

// Shutdown restores the terminal.
func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ready {
		t.screen.Fini()
		t.ready = false
	}
}

// Name returns "terminal".
func (t *Terminal) Name() string { return "terminal" }

// SetStatus replaces the status line.
func (t *Terminal) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = status
	if t.ready {
		t.drawLocked()
	}
}

// Status returns the status line.
func (t *Terminal) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Run polls the screen until Ctrl-C or ctx is done.
func (t *Terminal) Run(ctx context.Context, out chan<- Event) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		case *tcell.EventResize:
			t.mu.Lock()
			t.screen.Sync()
			t.drawLocked()
			t.mu.Unlock()
		case *tcell.EventKey:
			events, quit := t.Translate(ev, time.Now())
			if quit {
				return nil
			}
			for _, e := range events {
				if !deliver(ctx, out, e) {
					return nil
				}
			}
		}
	}
}

// Translate converts one keystroke into events stamped from at. quit is
// true for Ctrl-C.
func (t *Terminal) Translate(ev *tcell.EventKey, at time.Time) (events []Event, quit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch ev.Key() {
	case tcell.KeyCtrlC:
		return nil, true
	case tcell.KeyPgDn:
		return []Event{RotateEvent(true, at)}, false
	case tcell.KeyPgUp:
		return []Event{RotateEvent(false, at)}, false
	case tcell.KeyInsert, tcell.KeyHome:
		idx := 0
		if ev.Key() == tcell.KeyHome {
			idx = 1
		}
		t.switches[idx] = !t.switches[idx]
		return []Event{SwitchEvent(idx, t.switches[idx], at)}, false
	case tcell.KeyBackspace:
		return t.tap(key.Pos{Row: 0, Col: 11}, false, at), false
	case tcell.KeyTab:
		return t.tap(key.Pos{Row: 1, Col: 0}, false, at), false
	case tcell.KeyDelete:
		return t.tap(key.Pos{Row: 1, Col: 11}, false, at), false
	case tcell.KeyEscape:
		return t.tap(key.Pos{Row: 2, Col: 0}, false, at), false
	case tcell.KeyEnter:
		return t.tap(key.Pos{Row: 3, Col: 11}, false, at), false
	case tcell.KeyRune:
		return t.typeRune(ev.Rune(), at), false
	}

	if ev.Key() >= tcell.KeyF1 && ev.Key() <= tcell.KeyF12 {
		pos := key.Pos{Row: 4, Col: int(ev.Key() - tcell.KeyF1)}
		on := !t.latched[pos]
		t.latched[pos] = on
		if !on {
			delete(t.latched, pos)
		}
		return []Event{KeyEvent(key.NewEvent(pos.Row, pos.Col, on, at))}, false
	}
	return nil, false
}

func (t *Terminal) typeRune(r rune, at time.Time) []Event {
	if r == ' ' {
		return t.tap(key.Pos{Row: 4, Col: 5}, false, at)
	}
	shifted := false
	if base, ok := unshifted[r]; ok {
		r, shifted = base, true
	} else if unicode.IsUpper(r) {
		r, shifted = unicode.ToLower(r), true
	}
	pos, ok := t.positions[r]
	if !ok {
		return nil
	}
	return t.tap(pos, shifted, at)
}

// tap presses and releases pos, wrapped in shift when shifted.
func (t *Terminal) tap(pos key.Pos, shifted bool, at time.Time) []Event {
	var events []Event
	if shifted {
		events = append(events, KeyEvent(key.Press(shiftPos.Row, shiftPos.Col, at)))
	}
	events = append(events,
		KeyEvent(key.Press(pos.Row, pos.Col, at)),
		KeyEvent(key.Release(pos.Row, pos.Col, at.Add(t.cfg.Hold))),
	)
	if shifted {
		events = append(events, KeyEvent(key.Release(shiftPos.Row, shiftPos.Col, at.Add(t.cfg.Hold))))
	}
	return events
}

// Latched returns the bottom row positions currently held by F-keys.
func (t *Terminal) Latched() []key.Pos {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latchedLocked()
}

func (t *Terminal) latchedLocked() []key.Pos {
	var out []key.Pos
	for col := 0; col < 12; col++ {
		if p := (key.Pos{Row: 4, Col: col}); t.latched[p] {
			out = append(out, p)
		}
	}
	return out
}

func (t *Terminal) drawLocked() {
	t.screen.Clear()
	help := "F1-F12 latch bottom row  PgUp/PgDn encoder  Ins/Home switches  Ctrl-C quit"
	t.drawLine(0, t.cfg.Title, tcell.StyleDefault.Bold(true))
	t.drawLine(1, help, tcell.StyleDefault.Dim(true))
	t.drawLine(3, t.status, tcell.StyleDefault)

	var held []string
	for _, p := range t.latchedLocked() {
		held = append(held, p.String())
	}
	if len(held) > 0 {
		t.drawLine(4, "latched: "+strings.Join(held, " "), tcell.StyleDefault.Reverse(true))
	}
	t.screen.Show()
}

func (t *Terminal) drawLine(y int, text string, style tcell.Style) {
	w, h := t.screen.Size()
	if y >= h {
		return
	}
	x := 0
	for _, r := range text {
		if x >= w {
			break
		}
		t.screen.SetContent(x, y, r, nil, style)
		x++
	}
}
