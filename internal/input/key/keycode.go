package key

import "fmt"

// Kind tags the variant held by a Keycode.
type Kind uint8

const (
	// KindTransparent falls through to the next lower active layer.
	// It is the zero value, so an unset cell is transparent.
	KindTransparent Kind = iota
	// KindNone is a populated cell that emits nothing.
	KindNone
	// KindPlain emits a HID code with optional implied modifiers.
	KindPlain
	// KindModTap engages modifiers when held and emits a code when tapped.
	KindModTap
	// KindLayerTap activates a layer when held and emits a code when tapped.
	KindLayerTap
	// KindLayerMomentary activates a layer while held.
	KindLayerMomentary
	// KindLayerToggle flips a layer on press.
	KindLayerToggle
	// KindCustom is resolved by the dispatcher.
	KindCustom
	// KindUnicodePair emits one of two code points depending on shift state.
	KindUnicodePair
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindTransparent:
		return "Transparent"
	case KindNone:
		return "None"
	case KindPlain:
		return "Plain"
	case KindModTap:
		return "ModTap"
	case KindLayerTap:
		return "LayerTap"
	case KindLayerMomentary:
		return "LayerMomentary"
	case KindLayerToggle:
		return "LayerToggle"
	case KindCustom:
		return "Custom"
	case KindUnicodePair:
		return "UnicodePair"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Keycode is the immutable value stored in a layer cell.
// Construct it with the functions below; the zero value is Transparent.
type Keycode struct {
	kind   Kind
	code   Code
	mods   Modifier
	layer  int
	action Action
	lower  rune
	upper  rune
}

// Transparent returns the fall-through marker.
func Transparent() Keycode {
	return Keycode{kind: KindTransparent}
}

// None returns a populated cell that emits nothing.
func None() Keycode {
	return Keycode{kind: KindNone}
}

// Plain returns a keycode emitting code.
func Plain(code Code) Keycode {
	return Keycode{kind: KindPlain, code: code}
}

// Modified returns a keycode emitting code with mods held for its duration.
func Modified(mods Modifier, code Code) Keycode {
	return Keycode{kind: KindPlain, code: code, mods: mods}
}

// ModTap returns a keycode holding mods when held and emitting tap when tapped.
func ModTap(mods Modifier, tap Code) Keycode {
	return Keycode{kind: KindModTap, code: tap, mods: mods}
}

// LayerTap returns a keycode activating layer when held and emitting tap when tapped.
func LayerTap(layer int, tap Code) Keycode {
	return Keycode{kind: KindLayerTap, code: tap, layer: layer}
}

// LayerMomentary returns a keycode activating layer while held.
func LayerMomentary(layer int) Keycode {
	return Keycode{kind: KindLayerMomentary, layer: layer}
}

// LayerToggle returns a keycode flipping layer on press.
func LayerToggle(layer int) Keycode {
	return Keycode{kind: KindLayerToggle, layer: layer}
}

// Custom returns a keycode dispatching action.
func Custom(action Action) Keycode {
	return Keycode{kind: KindCustom, action: action}
}

// UnicodePair returns a keycode emitting lower, or upper while shifted.
func UnicodePair(lower, upper rune) Keycode {
	return Keycode{kind: KindUnicodePair, lower: lower, upper: upper}
}

// Unicode returns a keycode emitting r regardless of shift state.
func Unicode(r rune) Keycode {
	return UnicodePair(r, r)
}

// Kind returns the variant tag.
func (k Keycode) Kind() Kind { return k.kind }

// Code returns the emitted code (Plain) or tap code (ModTap, LayerTap).
func (k Keycode) Code() Code { return k.code }

// Mods returns implied modifiers (Plain) or hold modifiers (ModTap).
func (k Keycode) Mods() Modifier { return k.mods }

// Layer returns the target layer of layer keycodes.
func (k Keycode) Layer() int { return k.layer }

// Action returns the custom action.
func (k Keycode) Action() Action { return k.action }

// Lower returns the unshifted code point of a unicode pair.
func (k Keycode) Lower() rune { return k.lower }

// Upper returns the shifted code point of a unicode pair.
func (k Keycode) Upper() rune { return k.upper }

// IsTransparent returns true for the fall-through marker.
func (k Keycode) IsTransparent() bool {
	return k.kind == KindTransparent
}

// IsDualRole returns true for keycodes resolved by tap/hold timing.
func (k Keycode) IsDualRole() bool {
	return k.kind == KindModTap || k.kind == KindLayerTap
}

// TargetsLayer returns true for keycodes that reference a layer id.
func (k Keycode) TargetsLayer() bool {
	switch k.kind {
	case KindLayerTap, KindLayerMomentary, KindLayerToggle:
		return true
	}
	return false
}

// Rune returns the code point a unicode pair emits under the given shift state.
func (k Keycode) Rune(shifted bool) rune {
	if shifted {
		return k.upper
	}
	return k.lower
}

// Equals returns true if both keycodes are identical.
func (k Keycode) Equals(other Keycode) bool {
	return k == other
}

// String returns the layout-file spelling of the keycode.
// Layer ids are printed numerically; see Format for named layers.
func (k Keycode) String() string {
	return k.Format(nil)
}

// Format returns the layout-file spelling, naming layers through names
// when it is non-nil.
func (k Keycode) Format(names func(int) string) string {
	layerName := func(id int) string {
		if names != nil {
			if n := names(id); n != "" {
				return n
			}
		}
		return fmt.Sprintf("%d", id)
	}

	switch k.kind {
	case KindTransparent:
		return "_______"
	case KindNone:
		return "XXXXXXX"
	case KindPlain:
		if k.mods.IsEmpty() {
			return k.code.String()
		}
		return fmt.Sprintf("%s(%s)", k.mods.String(), k.code)
	case KindModTap:
		return fmt.Sprintf("MT(%s,%s)", k.mods.String(), k.code)
	case KindLayerTap:
		return fmt.Sprintf("LT(%s,%s)", layerName(k.layer), k.code)
	case KindLayerMomentary:
		return fmt.Sprintf("MO(%s)", layerName(k.layer))
	case KindLayerToggle:
		return fmt.Sprintf("TG(%s)", layerName(k.layer))
	case KindCustom:
		return k.action.String()
	case KindUnicodePair:
		if k.lower == k.upper {
			return fmt.Sprintf("X(%04X)", k.lower)
		}
		return fmt.Sprintf("XP(%04X,%04X)", k.lower, k.upper)
	default:
		return k.kind.String()
	}
}
