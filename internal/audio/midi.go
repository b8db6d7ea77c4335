package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/dshills/keyweave/internal/logging"
)

// ErrPortNotFound is returned when no MIDI port has the requested name.
var ErrPortNotFound = errors.New("midi port not found")

// SequenceVelocity is the velocity of notes played by PlaySequence.
const SequenceVelocity = 100

// ccAllNotesOff is the channel mode message that silences a channel.
const ccAllNotesOff = 123

// SendFunc sends one MIDI message, as returned by gomidi.SendTo.
type SendFunc func(msg gomidi.Message) error

// MIDITone plays notes as MIDI note on/off messages on one channel.
// Sequences run on a background goroutine; starting a new sequence or
// calling StopAll cancels the running one and silences its note.
//
// Notes from PlayNote and from sequences are tracked apart. A pitch is
// only turned off on the wire once neither holds it.
type MIDITone struct {
	mu      sync.Mutex
	send    SendFunc
	channel uint8
	bpm     int
	logger  *logging.Logger
	notes   map[uint8]bool
	seq     map[uint8]bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewMIDITone creates a tone sending through send on channel (0-15).
func NewMIDITone(send SendFunc, channel uint8, bpm int, logger *logging.Logger) *MIDITone {
	if bpm <= 0 {
		bpm = DefaultBPM
	}
	return &MIDITone{
		send:    send,
		channel: channel & 0x0F,
		bpm:     bpm,
		logger:  logging.OrDiscard(logger).WithComponent("audio"),
		notes:   make(map[uint8]bool),
		seq:     make(map[uint8]bool),
	}
}

// OpenMIDITone opens the output port named port on the registered gomidi
// driver. The caller must import a driver package, e.g. rtmididrv.
func OpenMIDITone(port string, channel uint8, bpm int, logger *logging.Logger) (*MIDITone, error) {
	for _, out := range gomidi.GetOutPorts() {
		if out.String() != port {
			continue
		}
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("open midi output %q: %w", port, err)
		}
		return NewMIDITone(send, channel, bpm, logger), nil
	}
	return nil, fmt.Errorf("midi output %q: %w", port, ErrPortNotFound)
}

// PlayNote implements Tone.
func (m *MIDITone) PlayNote(freq float64, velocity uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noteOn(m.notes, uint8(MIDINote(freq)), velocity)
}

// StopNote implements Tone.
func (m *MIDITone) StopNote(freq float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.noteOff(m.notes, uint8(MIDINote(freq)))
}

// StopAll implements Tone.
func (m *MIDITone) StopAll() {
	m.mu.Lock()
	m.cancelSequence()
	for n := range m.notes {
		m.noteOff(m.notes, n)
	}
	m.write(gomidi.ControlChange(m.channel, ccAllNotesOff, 0))
	m.mu.Unlock()
}

// PlaySequence implements Tone. It returns immediately.
func (m *MIDITone) PlaySequence(notes []Note) {
	if len(notes) == 0 {
		return
	}
	song := make([]Note, len(notes))
	copy(song, notes)

	m.mu.Lock()
	m.cancelSequence()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.play(ctx, song)
	}()
}

// Close stops all notes and waits for a running sequence to end.
func (m *MIDITone) Close() error {
	m.StopAll()
	m.wg.Wait()
	return nil
}

// SoundingCount returns the number of pitches currently on.
func (m *MIDITone) SoundingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.notes)
	for p := range m.seq {
		if !m.notes[p] {
			n++
		}
	}
	return n
}

// play runs song until it ends or ctx is cancelled. Every note change
// is made under the lock and only while ctx is live, so a cancelled
// sequence never touches notes of the one replacing it.
func (m *MIDITone) play(ctx context.Context, song []Note) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, n := range song {
		var pitch uint8
		if !n.IsRest() {
			pitch = uint8(n.Pitch)
			m.mu.Lock()
			if ctx.Err() == nil {
				m.noteOn(m.seq, pitch, SequenceVelocity)
			}
			m.mu.Unlock()
		}

		timer.Reset(n.Length(m.bpm))
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if !n.IsRest() {
			m.mu.Lock()
			if ctx.Err() == nil {
				m.noteOff(m.seq, pitch)
			}
			m.mu.Unlock()
		}
	}
}

// cancelSequence stops a running sequence and turns off its note (must
// hold lock).
func (m *MIDITone) cancelSequence() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	for n := range m.seq {
		m.noteOff(m.seq, n)
	}
}

func (m *MIDITone) noteOn(set map[uint8]bool, n, velocity uint8) {
	if velocity > 127 {
		velocity = 127
	}
	set[n] = true
	m.write(gomidi.NoteOn(m.channel, n, velocity))
}

func (m *MIDITone) noteOff(set map[uint8]bool, n uint8) {
	if !set[n] {
		return
	}
	delete(set, n)
	if m.notes[n] || m.seq[n] {
		return
	}
	m.write(gomidi.NoteOff(m.channel, n))
}

func (m *MIDITone) write(msg gomidi.Message) {
	if err := m.send(msg); err != nil {
		m.logger.Error("send midi", "msg", msg.String(), "err", err)
	}
}
