package hid

import (
	"fmt"

	"github.com/dshills/keyweave/internal/input/key"
)

// Recorder is a Reporter that records every call as text, e.g.
// "press A", "release A", "mods+ LCTL", "unicode U+20AC".
// Tap is recorded as a press followed by a release.
type Recorder struct {
	events  []string
	mods    key.Modifier
	pressed map[key.Code]bool
	mode    UnicodeMode
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{pressed: make(map[key.Code]bool)}
}

// Press implements Reporter.
func (r *Recorder) Press(code key.Code) {
	r.pressed[code] = true
	r.events = append(r.events, "press "+code.String())
}

// Release implements Reporter.
func (r *Recorder) Release(code key.Code) {
	delete(r.pressed, code)
	r.events = append(r.events, "release "+code.String())
}

// AddMods implements Reporter.
func (r *Recorder) AddMods(mods key.Modifier) {
	r.mods = r.mods.With(mods)
	r.events = append(r.events, "mods+ "+mods.String())
}

// DelMods implements Reporter.
func (r *Recorder) DelMods(mods key.Modifier) {
	r.mods = r.mods.Without(mods)
	r.events = append(r.events, "mods- "+mods.String())
}

// Tap implements Reporter.
func (r *Recorder) Tap(code key.Code) {
	r.Press(code)
	r.Release(code)
}

// TypeUnicode implements Reporter.
func (r *Recorder) TypeUnicode(ch rune) {
	r.events = append(r.events, fmt.Sprintf("unicode U+%04X", ch))
}

// SetUnicodeMode implements UnicodeModeSetter.
func (r *Recorder) SetUnicodeMode(mode UnicodeMode) {
	r.mode = mode
	r.events = append(r.events, "unicode-mode "+mode.String())
}

// UnicodeMode returns the last mode set.
func (r *Recorder) UnicodeMode() UnicodeMode {
	return r.mode
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Mods returns the currently registered modifiers.
func (r *Recorder) Mods() key.Modifier {
	return r.mods
}

// IsPressed reports whether code is registered.
func (r *Recorder) IsPressed(code key.Code) bool {
	return r.pressed[code]
}

// Held returns the number of registered non-modifier codes.
func (r *Recorder) Held() int {
	return len(r.pressed)
}

// Reset clears recorded events but keeps the held state.
func (r *Recorder) Reset() {
	r.events = r.events[:0]
}
