package hid

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/dshills/keyweave/internal/input/key"
)

// reportLog splits written bytes into fixed-size reports.
type reportLog struct {
	size    int
	reports [][]byte
}

func (l *reportLog) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) >= l.size {
		r := make([]byte, l.size)
		copy(r, p[:l.size])
		l.reports = append(l.reports, r)
		p = p[l.size:]
	}
	return n, nil
}

func newTestKeyboard(mode UnicodeMode) (*Keyboard, *reportLog, *reportLog) {
	kb := &reportLog{size: KeyboardReportSize}
	ms := &reportLog{size: MouseReportSize}
	return NewKeyboard(kb, ms, mode, nil), kb, ms
}

func TestKeyboardPressRelease(t *testing.T) {
	k, out, _ := newTestKeyboard(UnicodeLinux)

	k.Press(key.CodeA)
	k.Press(key.CodeB)
	k.Press(key.CodeA) // already held, no report
	k.Release(key.CodeA)
	k.Release(key.CodeB)

	want := [][]byte{
		{0, 0, 0x04, 0, 0, 0, 0, 0},
		{0, 0, 0x04, 0x05, 0, 0, 0, 0},
		{0, 0, 0x05, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}
	if !reflect.DeepEqual(out.reports, want) {
		t.Errorf("reports = %v, want %v", out.reports, want)
	}
}

func TestKeyboardModifierCodes(t *testing.T) {
	k, out, _ := newTestKeyboard(UnicodeLinux)

	k.Press(key.CodeLShift)
	k.Press(key.Code1)
	k.Release(key.Code1)
	k.Release(key.CodeLShift)

	want := [][]byte{
		{0x02, 0, 0, 0, 0, 0, 0, 0},
		{0x02, 0, 0x1E, 0, 0, 0, 0, 0},
		{0x02, 0, 0, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}
	if !reflect.DeepEqual(out.reports, want) {
		t.Errorf("reports = %v, want %v", out.reports, want)
	}
	if k.Mods() != key.ModNone {
		t.Errorf("Mods() = %v", k.Mods())
	}
}

func TestKeyboardRollover(t *testing.T) {
	k, out, _ := newTestKeyboard(UnicodeLinux)
	for c := key.CodeA; c <= key.CodeG; c++ {
		k.Press(c)
	}
	if len(out.reports) != keySlots {
		t.Errorf("got %d reports, want %d", len(out.reports), keySlots)
	}
	last := k.Report()
	if last[7] != byte(key.CodeF) {
		t.Errorf("last slot = 0x%02X, want F", last[7])
	}
}

func TestKeyboardTap(t *testing.T) {
	k, out, _ := newTestKeyboard(UnicodeLinux)
	k.Tap(key.CodePageDown)

	want := [][]byte{
		{0, 0, 0x4E, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0},
	}
	if !reflect.DeepEqual(out.reports, want) {
		t.Errorf("reports = %v, want %v", out.reports, want)
	}
}

func TestKeyboardUnicodeModes(t *testing.T) {
	tests := []struct {
		mode UnicodeMode
		want []string
	}{
		{UnicodeLinux, []string{"mods LCTL|LSFT", "U", "0", "0", "E", "1", "SPC"}},
		{UnicodeMac, []string{"mods LALT", "0", "0", "E", "1"}},
		{UnicodeWinCompose, []string{"mods RALT", "U", "E", "1", "ENT"}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			k, out, _ := newTestKeyboard(tt.mode)
			k.TypeUnicode('á')
			if got := summarize(out.reports); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sequence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKeyboardUnicodeRestoresMods(t *testing.T) {
	k, _, _ := newTestKeyboard(UnicodeLinux)
	k.AddMods(key.ModRShift)
	k.TypeUnicode('Á')
	if k.Mods() != key.ModRShift {
		t.Errorf("Mods() = %v after unicode, want RSFT", k.Mods())
	}
}

func TestKeyboardMouse(t *testing.T) {
	k, _, ms := newTestKeyboard(UnicodeLinux)

	k.Press(key.CodeMouseAccel2)
	k.Press(key.CodeMouseUp)
	k.Press(key.CodeMouseBtn1)
	k.Release(key.CodeMouseBtn1)
	k.Press(key.CodeWheelDown)

	want := [][]byte{
		{0, 0, byte(0xE8), 0},
		{1, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0xFF},
	}
	if !reflect.DeepEqual(ms.reports, want) {
		t.Errorf("mouse reports = %v, want %v", ms.reports, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("device gone") }

func TestKeyboardWriteErrorIsLogged(t *testing.T) {
	k := NewKeyboard(failingWriter{}, nil, UnicodeLinux, nil)
	// Must not panic; errors are only logged.
	k.Tap(key.CodeA)
	k.Press(key.CodeMouseBtn1)
}

func TestParseUnicodeMode(t *testing.T) {
	for _, m := range []UnicodeMode{UnicodeLinux, UnicodeMac, UnicodeWinCompose} {
		got, err := ParseUnicodeMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseUnicodeMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseUnicodeMode("bogus"); err == nil {
		t.Error("expected error")
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.AddMods(key.ModLCtrl)
	r.Tap(key.CodePageDown)
	r.TypeUnicode('€')
	r.DelMods(key.ModLCtrl)

	want := []string{"mods+ LCTL", "press PGDN", "release PGDN", "unicode U+20AC", "mods- LCTL"}
	if !reflect.DeepEqual(r.Events(), want) {
		t.Errorf("Events() = %v, want %v", r.Events(), want)
	}
	if r.Held() != 0 || r.Mods() != key.ModNone {
		t.Error("recorder should end with nothing held")
	}
}

// summarize reduces a report stream to the keys newly pressed in each
// report, plus "mods X" whenever the modifier byte becomes non-zero.
func summarize(reports [][]byte) []string {
	var out []string
	var prevMods byte
	var prevKeys []byte
	for _, r := range reports {
		if r[0] != prevMods && r[0] != 0 {
			out = append(out, "mods "+key.Modifier(r[0]).String())
		}
		prevMods = r[0]
		keys := bytes.TrimRight(r[2:], "\x00")
		if len(keys) > len(prevKeys) {
			out = append(out, key.Code(keys[len(keys)-1]).String())
		}
		prevKeys = keys
	}
	return out
}
