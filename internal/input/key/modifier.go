package key

import "strings"

// Modifier is the HID modifier byte. Left and right modifiers are distinct bits.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	ModLCtrl Modifier = 1 << (iota - 1)
	ModLShift
	ModLAlt
	ModLGui
	ModRCtrl
	ModRShift
	ModRAlt
	ModRGui
)

// Side-agnostic masks.
const (
	ModCtrl  = ModLCtrl | ModRCtrl
	ModShift = ModLShift | ModRShift
	ModAlt   = ModLAlt | ModRAlt
	ModGui   = ModLGui | ModRGui
)

// Has returns true if m contains any bit of mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if either Shift is held.
func (m Modifier) HasShift() bool {
	return m.Has(ModShift)
}

// HasCtrl returns true if either Control is held.
func (m Modifier) HasCtrl() bool {
	return m.Has(ModCtrl)
}

// HasAlt returns true if either Alt is held.
func (m Modifier) HasAlt() bool {
	return m.Has(ModAlt)
}

// HasGui returns true if either Gui is held.
func (m Modifier) HasGui() bool {
	return m.Has(ModGui)
}

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// SwapAltGui exchanges the Alt and Gui bits on each side.
func (m Modifier) SwapAltGui() Modifier {
	out := m &^ (ModAlt | ModGui)
	if m.Has(ModLAlt) {
		out |= ModLGui
	}
	if m.Has(ModLGui) {
		out |= ModLAlt
	}
	if m.Has(ModRAlt) {
		out |= ModRGui
	}
	if m.Has(ModRGui) {
		out |= ModRAlt
	}
	return out
}

// modifierOrder fixes the String output order.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModLCtrl, "LCTL"},
	{ModLShift, "LSFT"},
	{ModLAlt, "LALT"},
	{ModLGui, "LGUI"},
	{ModRCtrl, "RCTL"},
	{ModRShift, "RSFT"},
	{ModRAlt, "RALT"},
	{ModRGui, "RGUI"},
}

// String returns a representation like "LCTL|LSFT".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, "|")
}

// modifierNameMap maps modifier names (upper case) to Modifier values.
var modifierNameMap = map[string]Modifier{
	"LCTL":  ModLCtrl,
	"LCTRL": ModLCtrl,
	"CTL":   ModLCtrl,
	"CTRL":  ModLCtrl,
	"LSFT":  ModLShift,
	"SFT":   ModLShift,
	"SHIFT": ModLShift,
	"LALT":  ModLAlt,
	"ALT":   ModLAlt,
	"LOPT":  ModLAlt,
	"LGUI":  ModLGui,
	"GUI":   ModLGui,
	"LCMD":  ModLGui,
	"LWIN":  ModLGui,
	"RCTL":  ModRCtrl,
	"RCTRL": ModRCtrl,
	"RSFT":  ModRShift,
	"RALT":  ModRAlt,
	"ALGR":  ModRAlt,
	"ROPT":  ModRAlt,
	"RGUI":  ModRGui,
	"RCMD":  ModRGui,
	"RWIN":  ModRGui,
}

// ModifierFromName returns the Modifier for a given name (case-insensitive,
// optional MOD_ prefix). Returns ModNone if the name is not recognized.
func ModifierFromName(name string) Modifier {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "MOD_")
	if m, ok := modifierNameMap[name]; ok {
		return m
	}
	return ModNone
}

// ParseModifiers parses a modifier list like "LCTL|LSFT" or "LCTL+LALT".
// Unknown names are ignored.
func ParseModifiers(s string) Modifier {
	var result Modifier
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == '+'
	}) {
		result = result.With(ModifierFromName(part))
	}
	return result
}
