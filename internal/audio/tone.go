package audio

import (
	"math"
	"time"
)

// Tone plays notes. Implementations must not block the caller.
type Tone interface {
	// PlayNote starts a note at freq Hz with a MIDI velocity (0-127).
	PlayNote(freq float64, velocity uint8)
	// StopNote stops the note at freq Hz.
	StopNote(freq float64)
	// StopAll stops every sounding note and any running sequence.
	StopAll()
	// PlaySequence plays notes one after another in the background.
	PlaySequence(notes []Note)
}

// Rest is the pitch of a silent Note.
const Rest = -1

// WholeNote is the number of duration units in a whole note.
const WholeNote = 64

// Note is one step of a song: a MIDI note number (or Rest) held for
// Duration sixty-fourths of a whole note.
type Note struct {
	Pitch    int
	Duration int
}

// IsRest reports whether n is silent.
func (n Note) IsRest() bool {
	return n.Pitch < 0
}

// Length returns how long n lasts at bpm quarter notes per minute.
func (n Note) Length(bpm int) time.Duration {
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	whole := 4 * time.Minute / time.Duration(bpm)
	return whole * time.Duration(n.Duration) / WholeNote
}

// DefaultBPM is the tempo songs are played at unless configured.
const DefaultBPM = 120

// Duration returns the total length of notes at bpm.
func Duration(notes []Note, bpm int) time.Duration {
	var total time.Duration
	for _, n := range notes {
		total += n.Length(bpm)
	}
	return total
}

// Freq returns the equal-tempered frequency of a MIDI note (A4 = 69 = 440 Hz).
func Freq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

// MIDINote returns the MIDI note nearest to freq, clamped to 0-127.
func MIDINote(freq float64) int {
	if freq <= 0 {
		return 0
	}
	n := int(math.Round(69 + 12*math.Log2(freq/440)))
	switch {
	case n < 0:
		return 0
	case n > 127:
		return 127
	}
	return n
}
