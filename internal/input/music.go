package input

import (
	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/logging"
)

// DefaultMusicStart is the note of the bottom-left key in music mode (C3).
const DefaultMusicStart = 48

// MusicVelocity is the velocity of music mode notes.
const MusicVelocity = 0x78

// Music is the music mode hook. While enabled, key presses play a
// chromatic note per position instead of typing. Masked keycodes pass
// through so the mode can be left again.
type Music struct {
	BaseHook

	enabled  bool
	start    int
	rows     int
	tone     audio.Tone
	sounding map[key.Pos]int
	logger   *logging.Logger
}

// NewMusic creates a disabled music mode for a board with rows rows.
func NewMusic(start, rows int, tone audio.Tone, logger *logging.Logger) *Music {
	if tone == nil {
		tone = audio.Silent{}
	}
	return &Music{
		start:    start,
		rows:     rows,
		tone:     tone,
		sounding: make(map[key.Pos]int),
		logger:   logging.OrDiscard(logger).WithComponent("music"),
	}
}

// Enabled reports whether music mode is on.
func (m *Music) Enabled() bool {
	return m.enabled
}

// SetEnabled turns music mode on or off. Turning it off stops every
// note it started.
func (m *Music) SetEnabled(on bool) {
	if m.enabled == on {
		return
	}
	m.enabled = on
	if !on {
		m.StopAll()
	}
	m.logger.Info("music mode", "enabled", on)
}

// StopAll stops every sounding note.
func (m *Music) StopAll() {
	for pos, note := range m.sounding {
		m.tone.StopNote(audio.Freq(note))
		delete(m.sounding, pos)
	}
}

// Sounding returns the number of keys holding a note.
func (m *Music) Sounding() int {
	return len(m.sounding)
}

// Note returns the MIDI note played by pos. Rows ascend by octave from the
// bottom row, columns by semitone.
func (m *Music) Note(pos key.Pos) int {
	return m.start + (m.rows-1-pos.Row)*12 + pos.Col
}

// Masked reports whether kc bypasses music mode.
func Masked(kc key.Keycode) bool {
	if kc.Kind() != key.KindCustom {
		return false
	}
	switch kc.Action() {
	case key.ActionLower, key.ActionRaise, key.ActionMusicOn, key.ActionMusicOff:
		return true
	}
	return false
}

// PreKeyEvent plays or stops a note and consumes the event.
func (m *Music) PreKeyEvent(ev *key.Event, kc key.Keycode) bool {
	if !ev.Pressed {
		note, ok := m.sounding[ev.Pos]
		if !ok {
			return false
		}
		delete(m.sounding, ev.Pos)
		m.tone.StopNote(audio.Freq(note))
		return true
	}

	if !m.enabled || Masked(kc) {
		return false
	}
	note := m.Note(ev.Pos)
	if note < 0 || note > 127 {
		return true
	}
	if prev, ok := m.sounding[ev.Pos]; ok {
		m.tone.StopNote(audio.Freq(prev))
	}
	m.sounding[ev.Pos] = note
	m.tone.PlayNote(audio.Freq(note), MusicVelocity)
	return true
}
