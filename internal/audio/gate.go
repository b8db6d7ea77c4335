package audio

// Gate forwards to a Tone while enabled. Disabling stops every note once;
// while disabled all calls are dropped.
type Gate struct {
	tone    Tone
	enabled bool
}

// NewGate wraps tone. A nil tone is replaced by Silent.
func NewGate(tone Tone, enabled bool) *Gate {
	if tone == nil {
		tone = Silent{}
	}
	return &Gate{tone: tone, enabled: enabled}
}

// SetEnabled turns the gate on or off.
func (g *Gate) SetEnabled(on bool) {
	if g.enabled && !on {
		g.tone.StopAll()
	}
	g.enabled = on
}

// Enabled reports whether calls are forwarded.
func (g *Gate) Enabled() bool {
	return g.enabled
}

// PlayNote implements Tone.
func (g *Gate) PlayNote(freq float64, velocity uint8) {
	if g.enabled {
		g.tone.PlayNote(freq, velocity)
	}
}

// StopNote implements Tone.
func (g *Gate) StopNote(freq float64) {
	if g.enabled {
		g.tone.StopNote(freq)
	}
}

// StopAll implements Tone.
func (g *Gate) StopAll() {
	if g.enabled {
		g.tone.StopAll()
	}
}

// PlaySequence implements Tone.
func (g *Gate) PlaySequence(notes []Note) {
	if g.enabled {
		g.tone.PlaySequence(notes)
	}
}

// Silent is a Tone that does nothing.
type Silent struct{}

// PlayNote implements Tone.
func (Silent) PlayNote(float64, uint8) {}

// StopNote implements Tone.
func (Silent) StopNote(float64) {}

// StopAll implements Tone.
func (Silent) StopAll() {}

// PlaySequence implements Tone.
func (Silent) PlaySequence([]Note) {}
