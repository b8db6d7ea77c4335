package input

import (
	"testing"

	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/input/keymap"
)

func TestSelectorRestore(t *testing.T) {
	tests := []struct {
		name   string
		store  *fakeStore
		wantID int
		wantOK bool
	}{
		{"nothing stored", &fakeStore{}, keymap.Qwerty, false},
		{"stored base layer", &fakeStore{stored: keymap.Hack, ok: true}, keymap.Hack, true},
		{"stored overlay", &fakeStore{stored: keymap.Lower, ok: true}, keymap.Qwerty, false},
		{"stored unknown id", &fakeStore{stored: 99, ok: true}, keymap.Qwerty, false},
		{"stored negative id", &fakeStore{stored: -1, ok: true}, keymap.Qwerty, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stack, err := keymap.Default().Build()
			if err != nil {
				t.Fatal(err)
			}
			sel := NewSelector(stack, nil, nil, tt.store, nil)

			id, ok := sel.Restore()
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("Restore() = %d, %v, want %d, %v", id, ok, tt.wantID, tt.wantOK)
			}
			if stack.Default() != tt.wantID {
				t.Errorf("Default() = %d, want %d", stack.Default(), tt.wantID)
			}
		})
	}
}

func TestSelectorWithoutStore(t *testing.T) {
	stack, _ := keymap.Default().Build()
	tone := audio.NewRecorder()
	sel := NewSelector(stack, tone, map[int][]audio.Note{keymap.Qwerty: audio.SongQwerty}, nil, nil)

	if _, ok := sel.Restore(); ok {
		t.Error("Restore() without store = true")
	}

	sel.Select(keymap.Hack)
	sel.Select(keymap.Qwerty)
	if stack.Default() != keymap.Qwerty {
		t.Errorf("Default() = %d", stack.Default())
	}
	if got := len(tone.Songs()); got != 1 {
		t.Errorf("played %d songs, want 1 (HACK has no song here)", got)
	}
}
