package muse

import "fmt"

// Defaults match the stock firmware.
const (
	DefaultOffset = 70
	DefaultTempo  = 50
)

// Bounds of the tunable parameters. Offset keeps every generated note a
// valid MIDI note.
const (
	MinTempo  = 1
	MaxTempo  = 255
	MinOffset = 0
	MaxOffset = 127 - MaxInterval
)

// State is the sequencer state. 0 <= Counter < Tempo holds after every
// operation.
type State struct {
	Offset   int
	Tempo    int
	Counter  int
	LastNote int
	Sounding bool
	Enabled  bool
}

// String returns a compact form for logs.
func (s State) String() string {
	return fmt.Sprintf("offset=%d tempo=%d counter=%d note=%d sounding=%t enabled=%t",
		s.Offset, s.Tempo, s.Counter, s.LastNote, s.Sounding, s.Enabled)
}

// ClampTempo limits t to [MinTempo, MaxTempo].
func ClampTempo(t int) int {
	return clamp(t, MinTempo, MaxTempo)
}

// ClampOffset limits o to [MinOffset, MaxOffset].
func ClampOffset(o int) int {
	return clamp(o, MinOffset, MaxOffset)
}

func clamp(v, lo, hi int) int {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
