package hid

import (
	"io"
	"unicode/utf16"

	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/logging"
)

// Report sizes.
const (
	KeyboardReportSize = 8
	MouseReportSize    = 4
	keySlots           = 6
)

// Mouse button bits.
const (
	mouseButton1 = 1 << iota
	mouseButton2
	mouseButton3
)

// mouseSteps maps the accel keys to a movement step.
var mouseSteps = map[key.Code]int8{
	key.CodeMouseAccel0: 2,
	key.CodeMouseAccel1: 8,
	key.CodeMouseAccel2: 24,
}

// Keyboard emits boot-protocol reports for the held key state.
// It is not safe for concurrent use.
type Keyboard struct {
	out    io.Writer
	mouse  io.Writer
	logger *logging.Logger

	mods key.Modifier
	keys [keySlots]key.Code

	buttons uint8
	step    int8

	mode UnicodeMode
}

// NewKeyboard creates a keyboard writing keyboard reports to out and mouse
// reports to mouse. mouse may be nil, in which case mouse keys are dropped.
func NewKeyboard(out, mouse io.Writer, mode UnicodeMode, logger *logging.Logger) *Keyboard {
	return &Keyboard{
		out:    out,
		mouse:  mouse,
		logger: logging.OrDiscard(logger).WithComponent("hid"),
		step:   mouseSteps[key.CodeMouseAccel1],
		mode:   mode,
	}
}

// SetUnicodeMode changes the unicode input method.
func (k *Keyboard) SetUnicodeMode(mode UnicodeMode) {
	k.mode = mode
	k.logger.Debug("unicode mode", "mode", mode)
}

// UnicodeMode returns the current unicode input method.
func (k *Keyboard) UnicodeMode() UnicodeMode {
	return k.mode
}

// Press registers code and sends a report.
func (k *Keyboard) Press(code key.Code) {
	switch {
	case code == key.CodeNone:
		return
	case code.IsModifier():
		k.AddMods(code.Modifier())
		return
	case code.IsMouse():
		k.mousePress(code)
		return
	}

	for _, c := range k.keys {
		if c == code {
			return
		}
	}
	for i, c := range k.keys {
		if c == key.CodeNone {
			k.keys[i] = code
			k.send()
			return
		}
	}
	k.logger.Warn("key rollover exceeded", "code", code)
}

// Release unregisters code and sends a report.
func (k *Keyboard) Release(code key.Code) {
	switch {
	case code == key.CodeNone:
		return
	case code.IsModifier():
		k.DelMods(code.Modifier())
		return
	case code.IsMouse():
		k.mouseRelease(code)
		return
	}

	for i, c := range k.keys {
		if c == code {
			// Keep slots packed so reports stay in press order.
			copy(k.keys[i:], k.keys[i+1:])
			k.keys[keySlots-1] = key.CodeNone
			k.send()
			return
		}
	}
}

// AddMods registers modifier bits and sends a report if they changed.
func (k *Keyboard) AddMods(mods key.Modifier) {
	if next := k.mods.With(mods); next != k.mods {
		k.mods = next
		k.send()
	}
}

// DelMods unregisters modifier bits and sends a report if they changed.
func (k *Keyboard) DelMods(mods key.Modifier) {
	if next := k.mods.Without(mods); next != k.mods {
		k.mods = next
		k.send()
	}
}

// Tap presses and releases code.
func (k *Keyboard) Tap(code key.Code) {
	k.Press(code)
	k.Release(code)
}

// Mods returns the registered modifier bits.
func (k *Keyboard) Mods() key.Modifier {
	return k.mods
}

// TypeUnicode enters r with the current input method. Held modifiers are
// released for the duration of the sequence and restored afterwards.
func (k *Keyboard) TypeUnicode(r rune) {
	saved := k.mods
	k.DelMods(saved)

	switch k.mode {
	case UnicodeMac:
		// Unicode Hex Input takes UTF-16 units while Option is held.
		k.AddMods(key.ModLAlt)
		for _, unit := range utf16.Encode([]rune{r}) {
			k.tapAll(hexDigits(uint32(unit), 4))
		}
		k.DelMods(key.ModLAlt)

	case UnicodeWinCompose:
		k.Tap(key.CodeRAlt)
		k.Tap(key.CodeU)
		k.tapAll(hexDigits(uint32(r), 1))
		k.Tap(key.CodeEnter)

	default:
		k.AddMods(key.ModLCtrl | key.ModLShift)
		k.Tap(key.CodeU)
		k.DelMods(key.ModLCtrl | key.ModLShift)
		k.tapAll(hexDigits(uint32(r), 4))
		k.Tap(key.CodeSpace)
	}

	k.AddMods(saved)
}

// Report returns the current keyboard report.
func (k *Keyboard) Report() [KeyboardReportSize]byte {
	var r [KeyboardReportSize]byte
	r[0] = byte(k.mods)
	for i, c := range k.keys {
		r[2+i] = byte(c)
	}
	return r
}

func (k *Keyboard) tapAll(codes []key.Code) {
	for _, c := range codes {
		k.Tap(c)
	}
}

func (k *Keyboard) send() {
	r := k.Report()
	if _, err := k.out.Write(r[:]); err != nil {
		k.logger.Error("write keyboard report", "err", err)
	}
}

func (k *Keyboard) mousePress(code key.Code) {
	var dx, dy, wheel int8
	switch code {
	case key.CodeMouseUp:
		dy = -k.step
	case key.CodeMouseDown:
		dy = k.step
	case key.CodeMouseLeft:
		dx = -k.step
	case key.CodeMouseRight:
		dx = k.step
	case key.CodeWheelUp:
		wheel = 1
	case key.CodeWheelDown:
		wheel = -1
	case key.CodeMouseBtn1:
		k.buttons |= mouseButton1
	case key.CodeMouseBtn2:
		k.buttons |= mouseButton2
	case key.CodeMouseBtn3:
		k.buttons |= mouseButton3
	case key.CodeMouseAccel0, key.CodeMouseAccel1, key.CodeMouseAccel2:
		k.step = mouseSteps[code]
		return
	default:
		// Horizontal wheel is not part of the boot mouse report.
		return
	}
	k.sendMouse(dx, dy, wheel)
}

func (k *Keyboard) mouseRelease(code key.Code) {
	var bit uint8
	switch code {
	case key.CodeMouseBtn1:
		bit = mouseButton1
	case key.CodeMouseBtn2:
		bit = mouseButton2
	case key.CodeMouseBtn3:
		bit = mouseButton3
	default:
		return
	}
	k.buttons &^= bit
	k.sendMouse(0, 0, 0)
}

func (k *Keyboard) sendMouse(dx, dy, wheel int8) {
	if k.mouse == nil {
		return
	}
	r := [MouseReportSize]byte{k.buttons, byte(dx), byte(dy), byte(wheel)}
	if _, err := k.mouse.Write(r[:]); err != nil {
		k.logger.Error("write mouse report", "err", err)
	}
}
