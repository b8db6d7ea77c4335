package source

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadyRecording is returned by Start while a recording is running.
var ErrAlreadyRecording = errors.New("already recording")

// Recorder captures live events and turns them into a Script.
// It is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	recording bool
	name      string
	events    []Event
}

// NewRecorder creates an idle recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start begins a recording named name.
func (r *Recorder) Start(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return ErrAlreadyRecording
	}
	r.recording = true
	r.name = name
	r.events = nil
	return nil
}

// IsRecording returns true while recording.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Record appends ev. Does nothing unless recording; scan ticks are
// dropped since replay regenerates them from waits.
func (r *Recorder) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording && ev.Kind != KindScan {
		r.events = append(r.events, ev)
	}
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Stop ends the recording and returns it as a script, or nil if nothing
// was recorded.
func (r *Recorder) Stop() *Script {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return nil
	}
	r.recording = false
	events := r.events
	r.events = nil
	if len(events) == 0 {
		return nil
	}
	return scriptFrom(r.name, events)
}

// scriptFrom converts events into steps, inserting waits for the gaps
// between them beyond the default step gap.
func scriptFrom(name string, events []Event) *Script {
	s := &Script{Name: name}
	var last time.Time
	for i, ev := range events {
		if i > 0 {
			if gap := ev.Time.Sub(last) - DefaultStepGap; gap > 0 {
				s.Steps = append(s.Steps, Step{Wait: gap})
			}
		}
		last = ev.Time

		switch ev.Kind {
		case KindKey:
			pos := []int{ev.Key.Pos.Row, ev.Key.Pos.Col}
			if ev.Key.Pressed {
				s.Steps = append(s.Steps, Step{Press: pos})
			} else {
				s.Steps = append(s.Steps, Step{Release: pos})
			}
		case KindRotate:
			dir := "ccw"
			if ev.Clockwise {
				dir = "cw"
			}
			s.Steps = append(s.Steps, Step{Rotate: dir})
		case KindSwitch:
			s.Steps = append(s.Steps, Step{Switch: &SwitchStep{Index: ev.Switch, On: ev.On}})
		}
	}
	return s
}
