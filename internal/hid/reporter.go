package hid

import (
	"fmt"
	"strings"

	"github.com/dshills/keyweave/internal/input/key"
)

// Reporter receives key output from the dispatcher.
type Reporter interface {
	// Press registers code as held.
	Press(code key.Code)
	// Release unregisters code.
	Release(code key.Code)
	// AddMods registers modifier bits.
	AddMods(mods key.Modifier)
	// DelMods unregisters modifier bits.
	DelMods(mods key.Modifier)
	// Tap presses and immediately releases code.
	Tap(code key.Code)
	// TypeUnicode enters a code point through the host input method.
	TypeUnicode(r rune)
}

// UnicodeModeSetter is implemented by reporters whose unicode input method
// can be changed at runtime.
type UnicodeModeSetter interface {
	SetUnicodeMode(mode UnicodeMode)
}

// UnicodeMode selects how code points are entered on the host.
type UnicodeMode uint8

const (
	// UnicodeLinux uses the IBus Ctrl+Shift+U sequence.
	UnicodeLinux UnicodeMode = iota
	// UnicodeMac uses the Unicode Hex Input source (Option + hex).
	UnicodeMac
	// UnicodeWinCompose uses WinCompose (RAlt, U, hex, Enter).
	UnicodeWinCompose
)

// String returns the configuration name of the mode.
func (m UnicodeMode) String() string {
	switch m {
	case UnicodeLinux:
		return "linux"
	case UnicodeMac:
		return "mac"
	case UnicodeWinCompose:
		return "wincompose"
	default:
		return fmt.Sprintf("UnicodeMode(%d)", uint8(m))
	}
}

// ParseUnicodeMode parses "linux", "mac" or "wincompose".
func ParseUnicodeMode(s string) (UnicodeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linux", "ibus", "":
		return UnicodeLinux, nil
	case "mac", "macos", "osx":
		return UnicodeMac, nil
	case "wincompose", "win", "windows":
		return UnicodeWinCompose, nil
	default:
		return UnicodeLinux, fmt.Errorf("unknown unicode mode %q", s)
	}
}

// hexCode returns the key code that types hex digit d (0-15).
func hexCode(d int) key.Code {
	switch {
	case d == 0:
		return key.Code0
	case d < 10:
		return key.Code1 + key.Code(d-1)
	default:
		return key.CodeA + key.Code(d-10)
	}
}

// hexDigits returns the key codes typing v in hex with at least width digits.
func hexDigits(v uint32, width int) []key.Code {
	s := fmt.Sprintf("%0*X", width, v)
	codes := make([]key.Code, 0, len(s))
	for _, c := range s {
		var d int
		if c >= 'A' {
			d = int(c-'A') + 10
		} else {
			d = int(c - '0')
		}
		codes = append(codes, hexCode(d))
	}
	return codes
}
