package audio

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func TestFreq(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6256},
	}

	for _, tt := range tests {
		if got := Freq(tt.note); math.Abs(got-tt.want) > 0.001 {
			t.Errorf("Freq(%d) = %f, want %f", tt.note, got, tt.want)
		}
	}
}

func TestMIDINoteRoundTrip(t *testing.T) {
	for n := 0; n <= 127; n++ {
		if got := MIDINote(Freq(n)); got != n {
			t.Errorf("MIDINote(Freq(%d)) = %d", n, got)
		}
	}
	if MIDINote(0) != 0 || MIDINote(1e9) != 127 {
		t.Error("MIDINote should clamp")
	}
}

func TestNoteLength(t *testing.T) {
	whole := Note{Pitch: 60, Duration: WholeNote}
	if got := whole.Length(120); got != 2*time.Second {
		t.Errorf("whole note at 120bpm = %v, want 2s", got)
	}
	quarter := Note{Pitch: Rest, Duration: 16}
	if got := quarter.Length(60); got != time.Second {
		t.Errorf("quarter note at 60bpm = %v, want 1s", got)
	}
	if got := Duration(SongHack, 120); got != 56*2*time.Second/64 {
		t.Errorf("Duration(SongHack) = %v", got)
	}
}

func TestSongs(t *testing.T) {
	for _, name := range SongNames() {
		song, ok := Song(name)
		if !ok || len(song) == 0 {
			t.Errorf("Song(%q) missing", name)
		}
	}
	if _, ok := Song("missing"); ok {
		t.Error("Song(missing) should fail")
	}
	if SongQwerty[0].Pitch != 88 || SongQwerty[len(SongQwerty)-1].Duration != 30 {
		t.Error("SongQwerty does not match the confirmation tune")
	}
}

func TestGate(t *testing.T) {
	rec := NewRecorder()
	g := NewGate(rec, true)

	g.PlayNote(Freq(60), 100)
	g.SetEnabled(false)
	g.PlayNote(Freq(62), 100)
	g.StopAll()
	g.PlaySequence(SongHack)
	g.SetEnabled(false)
	g.SetEnabled(true)
	g.StopNote(Freq(60))

	want := []string{"play 60 v100", "stop-all", "stop 60"}
	if !reflect.DeepEqual(rec.Events(), want) {
		t.Errorf("events = %v, want %v", rec.Events(), want)
	}
	if !g.Enabled() {
		t.Error("gate should be enabled")
	}
}

func TestGateNilTone(t *testing.T) {
	g := NewGate(nil, true)
	g.PlayNote(440, 1)
	g.SetEnabled(false)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.PlayNote(Freq(70), 120)
	r.PlayNote(Freq(72), 120)
	r.StopNote(Freq(70))
	if r.Sounding() != 1 {
		t.Errorf("Sounding() = %d", r.Sounding())
	}
	r.StopAll()
	r.PlaySequence(SongQwerty)

	if r.Sounding() != 0 || r.StopAllCount() != 1 {
		t.Errorf("Sounding() = %d, StopAllCount() = %d", r.Sounding(), r.StopAllCount())
	}
	if songs := r.Songs(); len(songs) != 1 || len(songs[0]) != len(SongQwerty) {
		t.Errorf("Songs() = %v", songs)
	}

	r.Reset()
	if len(r.Events()) != 0 {
		t.Error("Reset should clear events")
	}
}
