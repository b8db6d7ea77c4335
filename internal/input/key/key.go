package key

import (
	"fmt"
	"strings"
)

// Code is a USB HID keyboard usage id.
// Codes at or above CodeMouseUp are mouse-key codes that a HID reporter
// translates into pointer reports instead of keyboard reports.
type Code uint8

const (
	// CodeNone represents no key.
	CodeNone Code = 0x00

	// Letters
	CodeA Code = 0x04 + iota - 1
	CodeB
	CodeC
	CodeD
	CodeE
	CodeF
	CodeG
	CodeH
	CodeI
	CodeJ
	CodeK
	CodeL
	CodeM
	CodeN
	CodeO
	CodeP
	CodeQ
	CodeR
	CodeS
	CodeT
	CodeU
	CodeV
	CodeW
	CodeX
	CodeY
	CodeZ

	// Digits row
	Code1
	Code2
	Code3
	Code4
	Code5
	Code6
	Code7
	Code8
	Code9
	Code0

	// Editing and punctuation
	CodeEnter
	CodeEscape
	CodeBackspace
	CodeTab
	CodeSpace
	CodeMinus
	CodeEqual
	CodeLeftBracket
	CodeRightBracket
	CodeBackslash
	CodeNonUSHash
	CodeSemicolon
	CodeQuote
	CodeGrave
	CodeComma
	CodeDot
	CodeSlash
	CodeCapsLock

	// Function keys
	CodeF1
	CodeF2
	CodeF3
	CodeF4
	CodeF5
	CodeF6
	CodeF7
	CodeF8
	CodeF9
	CodeF10
	CodeF11
	CodeF12

	// Navigation
	CodePrintScreen
	CodeScrollLock
	CodePause
	CodeInsert
	CodeHome
	CodePageUp
	CodeDelete
	CodeEnd
	CodePageDown
	CodeRight
	CodeLeft
	CodeDown
	CodeUp

	// Keypad
	CodeNumLock
	CodeKPSlash
	CodeKPAsterisk
	CodeKPMinus
	CodeKPPlus
	CodeKPEnter
	CodeKP1
	CodeKP2
	CodeKP3
	CodeKP4
	CodeKP5
	CodeKP6
	CodeKP7
	CodeKP8
	CodeKP9
	CodeKP0
	CodeKPDot
)

// Extended function keys and media keys.
const (
	CodeF13 Code = 0x68 + iota
	CodeF14
	CodeF15
	CodeF16
	CodeF17
	CodeF18
	CodeF19
	CodeF20
	CodeF21
	CodeF22
	CodeF23
	CodeF24
)

const (
	CodeMute       Code = 0x7F
	CodeVolumeUp   Code = 0x80
	CodeVolumeDown Code = 0x81
)

// Modifier key usages. Plain keycodes holding these codes are reported
// through the modifier byte, not the key array.
const (
	CodeLCtrl Code = 0xE0 + iota
	CodeLShift
	CodeLAlt
	CodeLGui
	CodeRCtrl
	CodeRShift
	CodeRAlt
	CodeRGui
)

// Mouse keys.
const (
	CodeMouseUp Code = 0xF0 + iota
	CodeMouseDown
	CodeMouseLeft
	CodeMouseRight
	CodeMouseBtn1
	CodeMouseBtn2
	CodeMouseBtn3
	CodeWheelUp
	CodeWheelDown
	CodeWheelLeft
	CodeWheelRight
	CodeMouseAccel0
	CodeMouseAccel1
	CodeMouseAccel2
)

// IsModifier returns true for the eight modifier usages.
func (c Code) IsModifier() bool {
	return c >= CodeLCtrl && c <= CodeRGui
}

// Modifier returns the modifier bit for a modifier usage, or ModNone.
func (c Code) Modifier() Modifier {
	if !c.IsModifier() {
		return ModNone
	}
	return Modifier(1 << (c - CodeLCtrl))
}

// IsMouse returns true for mouse-key codes.
func (c Code) IsMouse() bool {
	return c >= CodeMouseUp && c <= CodeMouseAccel2
}

// IsFunctionKey returns true for F1-F24.
func (c Code) IsFunctionKey() bool {
	return (c >= CodeF1 && c <= CodeF12) || (c >= CodeF13 && c <= CodeF24)
}

// IsNavigationKey returns true for arrows, Home/End and paging keys.
func (c Code) IsNavigationKey() bool {
	switch c {
	case CodeHome, CodeEnd, CodePageUp, CodePageDown, CodeUp, CodeDown, CodeLeft, CodeRight:
		return true
	}
	return false
}

// IsKeypadKey returns true for keypad keys.
func (c Code) IsKeypadKey() bool {
	return c >= CodeNumLock && c <= CodeKPDot
}

// String returns the canonical short name for the code ("A", "SCLN", "PGDN").
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(0x%02X)", uint8(c))
}

// codeSpec lists every named code. The first name is canonical.
var codeSpec = []struct {
	code  Code
	names []string
}{
	{CodeNone, []string{"NO", "XXXXXXX", "NONE"}},
	{CodeA, []string{"A"}}, {CodeB, []string{"B"}}, {CodeC, []string{"C"}},
	{CodeD, []string{"D"}}, {CodeE, []string{"E"}}, {CodeF, []string{"F"}},
	{CodeG, []string{"G"}}, {CodeH, []string{"H"}}, {CodeI, []string{"I"}},
	{CodeJ, []string{"J"}}, {CodeK, []string{"K"}}, {CodeL, []string{"L"}},
	{CodeM, []string{"M"}}, {CodeN, []string{"N"}}, {CodeO, []string{"O"}},
	{CodeP, []string{"P"}}, {CodeQ, []string{"Q"}}, {CodeR, []string{"R"}},
	{CodeS, []string{"S"}}, {CodeT, []string{"T"}}, {CodeU, []string{"U"}},
	{CodeV, []string{"V"}}, {CodeW, []string{"W"}}, {CodeX, []string{"X"}},
	{CodeY, []string{"Y"}}, {CodeZ, []string{"Z"}},
	{Code1, []string{"1"}}, {Code2, []string{"2"}}, {Code3, []string{"3"}},
	{Code4, []string{"4"}}, {Code5, []string{"5"}}, {Code6, []string{"6"}},
	{Code7, []string{"7"}}, {Code8, []string{"8"}}, {Code9, []string{"9"}},
	{Code0, []string{"0"}},
	{CodeEnter, []string{"ENT", "ENTER", "RETURN"}},
	{CodeEscape, []string{"ESC", "ESCAPE"}},
	{CodeBackspace, []string{"BSPC", "BACKSPACE"}},
	{CodeTab, []string{"TAB"}},
	{CodeSpace, []string{"SPC", "SPACE"}},
	{CodeMinus, []string{"MINS", "MINUS"}},
	{CodeEqual, []string{"EQL", "EQUAL"}},
	{CodeLeftBracket, []string{"LBRC", "LEFT_BRACKET"}},
	{CodeRightBracket, []string{"RBRC", "RIGHT_BRACKET"}},
	{CodeBackslash, []string{"BSLS", "BACKSLASH"}},
	{CodeNonUSHash, []string{"NUHS"}},
	{CodeSemicolon, []string{"SCLN", "SEMICOLON"}},
	{CodeQuote, []string{"QUOT", "QUOTE"}},
	{CodeGrave, []string{"GRV", "GRAVE"}},
	{CodeComma, []string{"COMM", "COMMA"}},
	{CodeDot, []string{"DOT"}},
	{CodeSlash, []string{"SLSH", "SLASH"}},
	{CodeCapsLock, []string{"CAPS", "CAPSLOCK"}},
	{CodeF1, []string{"F1"}}, {CodeF2, []string{"F2"}}, {CodeF3, []string{"F3"}},
	{CodeF4, []string{"F4"}}, {CodeF5, []string{"F5"}}, {CodeF6, []string{"F6"}},
	{CodeF7, []string{"F7"}}, {CodeF8, []string{"F8"}}, {CodeF9, []string{"F9"}},
	{CodeF10, []string{"F10"}}, {CodeF11, []string{"F11"}}, {CodeF12, []string{"F12"}},
	{CodeF13, []string{"F13"}}, {CodeF14, []string{"F14"}}, {CodeF15, []string{"F15"}},
	{CodeF16, []string{"F16"}}, {CodeF17, []string{"F17"}}, {CodeF18, []string{"F18"}},
	{CodeF19, []string{"F19"}}, {CodeF20, []string{"F20"}}, {CodeF21, []string{"F21"}},
	{CodeF22, []string{"F22"}}, {CodeF23, []string{"F23"}}, {CodeF24, []string{"F24"}},
	{CodePrintScreen, []string{"PSCR", "PRINTSCREEN"}},
	{CodeScrollLock, []string{"SLCK", "SCROLLLOCK"}},
	{CodePause, []string{"PAUS", "PAUSE"}},
	{CodeInsert, []string{"INS", "INSERT"}},
	{CodeHome, []string{"HOME"}},
	{CodePageUp, []string{"PGUP", "PAGEUP"}},
	{CodeDelete, []string{"DEL", "DELETE"}},
	{CodeEnd, []string{"END"}},
	{CodePageDown, []string{"PGDN", "PAGEDOWN"}},
	{CodeRight, []string{"RGHT", "RIGHT"}},
	{CodeLeft, []string{"LEFT"}},
	{CodeDown, []string{"DOWN"}},
	{CodeUp, []string{"UP"}},
	{CodeNumLock, []string{"NLCK", "NUM", "NUMLOCK"}},
	{CodeKPSlash, []string{"PSLS"}},
	{CodeKPAsterisk, []string{"PAST"}},
	{CodeKPMinus, []string{"PMNS"}},
	{CodeKPPlus, []string{"PPLS"}},
	{CodeKPEnter, []string{"PENT"}},
	{CodeKP1, []string{"P1"}}, {CodeKP2, []string{"P2"}}, {CodeKP3, []string{"P3"}},
	{CodeKP4, []string{"P4"}}, {CodeKP5, []string{"P5"}}, {CodeKP6, []string{"P6"}},
	{CodeKP7, []string{"P7"}}, {CodeKP8, []string{"P8"}}, {CodeKP9, []string{"P9"}},
	{CodeKP0, []string{"P0"}},
	{CodeKPDot, []string{"PDOT"}},
	{CodeMute, []string{"MUTE"}},
	{CodeVolumeUp, []string{"VOLU"}},
	{CodeVolumeDown, []string{"VOLD"}},
	{CodeLCtrl, []string{"LCTL", "LCTRL"}},
	{CodeLShift, []string{"LSFT", "LSHIFT"}},
	{CodeLAlt, []string{"LALT"}},
	{CodeLGui, []string{"LGUI", "LCMD", "LWIN"}},
	{CodeRCtrl, []string{"RCTL", "RCTRL"}},
	{CodeRShift, []string{"RSFT", "RSHIFT"}},
	{CodeRAlt, []string{"RALT", "ALGR"}},
	{CodeRGui, []string{"RGUI", "RCMD", "RWIN"}},
	{CodeMouseUp, []string{"MS_U"}},
	{CodeMouseDown, []string{"MS_D"}},
	{CodeMouseLeft, []string{"MS_L"}},
	{CodeMouseRight, []string{"MS_R"}},
	{CodeMouseBtn1, []string{"BTN1"}},
	{CodeMouseBtn2, []string{"BTN2"}},
	{CodeMouseBtn3, []string{"BTN3"}},
	{CodeWheelUp, []string{"WH_U"}},
	{CodeWheelDown, []string{"WH_D"}},
	{CodeWheelLeft, []string{"WH_L"}},
	{CodeWheelRight, []string{"WH_R"}},
	{CodeMouseAccel0, []string{"ACL0"}},
	{CodeMouseAccel1, []string{"ACL1"}},
	{CodeMouseAccel2, []string{"ACL2"}},
}

// shiftedSpec lists names that stand for a code with Shift implied.
var shiftedSpec = map[string]Code{
	"TILD": CodeGrave,
	"EXLM": Code1,
	"AT":   Code2,
	"HASH": Code3,
	"DLR":  Code4,
	"PERC": Code5,
	"CIRC": Code6,
	"AMPR": Code7,
	"ASTR": Code8,
	"LPRN": Code9,
	"RPRN": Code0,
	"UNDS": CodeMinus,
	"PLUS": CodeEqual,
	"LCBR": CodeLeftBracket,
	"RCBR": CodeRightBracket,
	"PIPE": CodeBackslash,
	"COLN": CodeSemicolon,
	"DQUO": CodeQuote,
	"LABK": CodeComma,
	"RABK": CodeDot,
	"QUES": CodeSlash,
}

var (
	codeNames  = make(map[Code]string, len(codeSpec))
	codeByName = make(map[string]Code, len(codeSpec)*2)
)

func init() {
	for _, spec := range codeSpec {
		codeNames[spec.code] = spec.names[0]
		for _, name := range spec.names {
			codeByName[name] = spec.code
		}
	}
}

// CodeFromName returns the Code for a name such as "A", "KC_SCLN" or "pgdn".
// The second result is false if the name is not recognized.
func CodeFromName(name string) (Code, bool) {
	name = normalizeName(name)
	c, ok := codeByName[name]
	return c, ok
}

// shiftedFromName returns the base code for a shifted alias like "EXLM".
func shiftedFromName(name string) (Code, bool) {
	c, ok := shiftedSpec[normalizeName(name)]
	return c, ok
}

// normalizeName upper-cases a name and strips the optional KC_ prefix.
func normalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "KC_")
}
