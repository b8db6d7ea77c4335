package audio

import (
	"fmt"
	"sync"
)

// Recorder is a Tone that records calls as text:
// "play 69 v120", "stop 69", "stop-all", "sequence 4".
// Frequencies are recorded as MIDI note numbers.
type Recorder struct {
	mu       sync.Mutex
	events   []string
	sounding map[int]bool
	stopAlls int
	songs    [][]Note
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{sounding: make(map[int]bool)}
}

// PlayNote implements Tone.
func (r *Recorder) PlayNote(freq float64, velocity uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := MIDINote(freq)
	r.sounding[n] = true
	r.events = append(r.events, fmt.Sprintf("play %d v%d", n, velocity))
}

// StopNote implements Tone.
func (r *Recorder) StopNote(freq float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := MIDINote(freq)
	delete(r.sounding, n)
	r.events = append(r.events, fmt.Sprintf("stop %d", n))
}

// StopAll implements Tone.
func (r *Recorder) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sounding = make(map[int]bool)
	r.stopAlls++
	r.events = append(r.events, "stop-all")
}

// PlaySequence implements Tone.
func (r *Recorder) PlaySequence(notes []Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	song := make([]Note, len(notes))
	copy(song, notes)
	r.songs = append(r.songs, song)
	r.events = append(r.events, fmt.Sprintf("sequence %d", len(notes)))
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Sounding returns the number of notes started and not stopped.
func (r *Recorder) Sounding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sounding)
}

// StopAllCount returns how many times StopAll was called.
func (r *Recorder) StopAllCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopAlls
}

// Songs returns the sequences played, in order.
func (r *Recorder) Songs() [][]Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]Note, len(r.songs))
	copy(out, r.songs)
	return out
}

// Reset clears recorded events and counters.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.sounding = make(map[int]bool)
	r.stopAlls = 0
	r.songs = nil
}
