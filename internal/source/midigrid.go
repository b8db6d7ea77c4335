package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/logging"
)

// ErrNoInput is returned when no MIDI input port matches.
var ErrNoInput = errors.New("no matching midi input")

// GridConfig maps a MIDI controller onto the key matrix.
type GridConfig struct {
	// StartNote is the note of the bottom-left key. Each row spans Cols
	// semitones, so a five octave keyboard covers a 5x12 matrix.
	StartNote int
	Rows      int
	Cols      int

	// EncoderCC is a relative controller: 1-63 turns clockwise, 65-127
	// counter-clockwise.
	EncoderCC uint8

	// SwitchCC are the controllers of dip switches 0 and 1; values of 64
	// and above mean on.
	SwitchCC [2]uint8

	// Buffer is the depth of the queue between the driver callback and Run.
	Buffer int
}

// DefaultGridConfig returns the mapping for a 5x12 matrix.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		StartNote: 48,
		Rows:      5,
		Cols:      12,
		EncoderCC: 20,
		SwitchCC:  [2]uint8{80, 81},
		Buffer:    64,
	}
}

// MIDIGrid reads key, encoder and switch input from a MIDI controller.
type MIDIGrid struct {
	in     drivers.In
	cfg    GridConfig
	logger *logging.Logger
}

// OpenMIDIGrid opens the first input port whose name contains port
// (case-insensitive). The caller must import a driver package.
func OpenMIDIGrid(port string, cfg GridConfig, logger *logging.Logger) (*MIDIGrid, error) {
	want := strings.ToLower(port)
	for _, in := range gomidi.GetInPorts() {
		if strings.Contains(strings.ToLower(in.String()), want) {
			return NewMIDIGrid(in, cfg, logger), nil
		}
	}
	return nil, fmt.Errorf("midi input %q: %w", port, ErrNoInput)
}

// NewMIDIGrid creates a grid reading from in.
func NewMIDIGrid(in drivers.In, cfg GridConfig, logger *logging.Logger) *MIDIGrid {
	def := DefaultGridConfig()
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		cfg.Rows, cfg.Cols = def.Rows, def.Cols
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	return &MIDIGrid{
		in:     in,
		cfg:    cfg,
		logger: logging.OrDiscard(logger).WithComponent("midigrid"),
	}
}

// Name returns the port name.
func (g *MIDIGrid) Name() string {
	if g.in == nil {
		return "midi"
	}
	return "midi:" + g.in.String()
}

// Run listens on the port until ctx is done.
func (g *MIDIGrid) Run(ctx context.Context, out chan<- Event) error {
	if g.in == nil {
		return ErrNoInput
	}

	queue := make(chan Event, g.cfg.Buffer)
	stop, err := gomidi.ListenTo(g.in, func(msg gomidi.Message, timestampms int32) {
		ev, ok := g.Translate(msg, time.Now())
		if !ok {
			return
		}
		select {
		case queue <- ev:
		default:
			g.logger.Warn("input queue full, dropping event", "event", ev.String())
		}
	})
	if err != nil {
		return fmt.Errorf("listen to %s: %w", g.in.String(), err)
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-queue:
			if !deliver(ctx, out, ev) {
				return nil
			}
		}
	}
}

// Translate converts one MIDI message. Note on with velocity 0 counts as
// note off. Messages outside the mapping are ignored.
func (g *MIDIGrid) Translate(msg gomidi.Message, at time.Time) (Event, bool) {
	var channel, note, velocity, cc, value uint8

	switch {
	case msg.GetNoteOn(&channel, &note, &velocity):
		pos, ok := g.Pos(int(note))
		if !ok {
			return Event{}, false
		}
		return KeyEvent(key.NewEvent(pos.Row, pos.Col, velocity > 0, at)), true

	case msg.GetNoteOff(&channel, &note, &velocity):
		pos, ok := g.Pos(int(note))
		if !ok {
			return Event{}, false
		}
		return KeyEvent(key.Release(pos.Row, pos.Col, at)), true

	case msg.GetControlChange(&channel, &cc, &value):
		switch cc {
		case g.cfg.EncoderCC:
			switch {
			case value >= 1 && value <= 63:
				return RotateEvent(true, at), true
			case value >= 65:
				return RotateEvent(false, at), true
			}
		case g.cfg.SwitchCC[0]:
			return SwitchEvent(0, value >= 64, at), true
		case g.cfg.SwitchCC[1]:
			return SwitchEvent(1, value >= 64, at), true
		}
	}
	return Event{}, false
}

// Pos returns the matrix position played by note.
func (g *MIDIGrid) Pos(note int) (key.Pos, bool) {
	idx := note - g.cfg.StartNote
	if idx < 0 || idx >= g.cfg.Rows*g.cfg.Cols {
		return key.Pos{}, false
	}
	return key.Pos{Row: g.cfg.Rows - 1 - idx/g.cfg.Cols, Col: idx % g.cfg.Cols}, true
}
