package muse

import (
	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/logging"
)

// NoteVelocity is the velocity of sequencer notes.
const NoteVelocity = 0x78

// Switch indexes.
const (
	SwitchAdjust = 0
	SwitchMuse   = 1
)

// Layers is the part of the layer stack the modulator touches.
type Layers interface {
	IsActive(id int) bool
	Activate(id int)
	Deactivate(id int)
}

// Tapper emits a key tap.
type Tapper interface {
	Tap(code key.Code)
}

// Config configures a Modulator.
type Config struct {
	// Offset and Tempo are the initial tuning; both are clamped.
	Offset int
	Tempo  int

	// OffsetLayer selects offset tuning on the encoder while active.
	OffsetLayer int

	// AdjustLayer is toggled by switch 0.
	AdjustLayer int
}

// DefaultConfig returns the stock tuning. Layer ids must be filled in.
func DefaultConfig() Config {
	return Config{
		Offset: DefaultOffset,
		Tempo:  DefaultTempo,
	}
}

// Modulator handles the encoder, dip switches and periodic scan.
// It is not safe for concurrent use.
type Modulator struct {
	cfg         Config
	state       State
	pendingStop bool

	layers Layers
	tapper Tapper
	tone   audio.Tone
	pulser Pulser
	logger *logging.Logger
}

// NewModulator creates a modulator. A nil tone is replaced by audio.Silent
// and a nil pulser by a new Clock.
func NewModulator(cfg Config, layers Layers, tapper Tapper, tone audio.Tone, pulser Pulser, logger *logging.Logger) *Modulator {
	if tone == nil {
		tone = audio.Silent{}
	}
	if pulser == nil {
		pulser = NewClock()
	}
	return &Modulator{
		cfg: cfg,
		state: State{
			Offset: ClampOffset(cfg.Offset),
			Tempo:  ClampTempo(cfg.Tempo),
		},
		layers: layers,
		tapper: tapper,
		tone:   tone,
		pulser: pulser,
		logger: logging.OrDiscard(logger).WithComponent("muse"),
	}
}

// State returns a snapshot of the sequencer state.
func (m *Modulator) State() State {
	return m.state
}

// Enabled reports whether the sequencer is running.
func (m *Modulator) Enabled() bool {
	return m.state.Enabled
}

// OnRotate handles one encoder detent. While the sequencer runs it tunes
// tempo, or offset while the offset layer is active. Otherwise it taps
// page down (clockwise) or page up.
func (m *Modulator) OnRotate(clockwise bool) {
	if !m.state.Enabled {
		code := key.CodePageUp
		if clockwise {
			code = key.CodePageDown
		}
		if m.tapper != nil {
			m.tapper.Tap(code)
		}
		return
	}

	delta := -1
	if clockwise {
		delta = 1
	}
	if m.layers != nil && m.layers.IsActive(m.cfg.OffsetLayer) {
		m.SetOffset(m.state.Offset + delta)
		return
	}
	m.SetTempo(m.state.Tempo + delta)
}

// SetOffset sets the clamped offset.
func (m *Modulator) SetOffset(offset int) {
	m.state.Offset = ClampOffset(offset)
	m.logger.Debug("offset", "value", m.state.Offset)
}

// SetTempo sets the clamped tempo. The counter restarts if it falls
// outside the new period.
func (m *Modulator) SetTempo(tempo int) {
	m.state.Tempo = ClampTempo(tempo)
	if m.state.Counter >= m.state.Tempo {
		m.state.Counter = 0
	}
	m.logger.Debug("tempo", "value", m.state.Tempo)
}

// OnSwitch handles a dip switch change. Switch 0 holds the adjust layer,
// switch 1 runs the sequencer. Other switches are ignored.
func (m *Modulator) OnSwitch(index int, active bool) {
	switch index {
	case SwitchAdjust:
		if m.layers == nil {
			return
		}
		if active {
			m.layers.Activate(m.cfg.AdjustLayer)
		} else {
			m.layers.Deactivate(m.cfg.AdjustLayer)
		}
	case SwitchMuse:
		m.setEnabled(active)
	default:
		m.logger.Debug("ignored switch", "index", index, "active", active)
	}
}

func (m *Modulator) setEnabled(on bool) {
	if m.state.Enabled == on {
		return
	}
	m.pendingStop = !on
	m.state.Enabled = on
	m.logger.Info("sequencer", "enabled", on)
}

// OnScan advances the sequencer by one scan. While running it changes
// note every Tempo scans; after it is switched off the first scan
// silences it.
func (m *Modulator) OnScan() {
	if !m.state.Enabled {
		if m.pendingStop {
			m.tone.StopAll()
			m.state.Counter = 0
			m.state.Sounding = false
			m.state.LastNote = 0
			m.pendingStop = false
		}
		return
	}

	if m.state.Counter == 0 {
		note := m.state.Offset + Scale[m.pulse()]
		if !m.state.Sounding || note != m.state.LastNote {
			if m.state.Sounding {
				m.tone.StopNote(audio.Freq(m.state.LastNote))
			}
			m.tone.PlayNote(audio.Freq(note), NoteVelocity)
			m.state.LastNote = note
			m.state.Sounding = true
		}
	}
	m.state.Counter = (m.state.Counter + 1) % m.state.Tempo
}

// pulse returns the next scale index, folded into range.
func (m *Modulator) pulse() int {
	p := m.pulser.Pulse() % len(Scale)
	if p < 0 {
		p += len(Scale)
	}
	return p
}
