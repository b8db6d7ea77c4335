// Package key provides the keycode model for the controller.
//
// This package defines the fundamental types for representing what a
// physical key position can emit:
//
//   - Code: a USB HID keyboard usage (letters, digits, navigation, F-keys)
//   - Modifier: the 8-bit HID modifier byte (LCtrl .. RGui)
//   - Keycode: the tagged variant stored in every layer cell
//   - Action: the closed set of custom actions handled by the dispatcher
//   - Event: a physical key transition at a matrix position
//
// # Keycode Kinds
//
//   - Plain: a HID code, optionally with implied modifiers (LSFT(1) is "!")
//   - ModTap: modifiers when held, a code when tapped
//   - LayerTap: a layer when held, a code when tapped
//   - LayerMomentary: a layer while held
//   - LayerToggle: flips a layer on press
//   - Custom: an Action resolved by the dispatcher
//   - UnicodePair: one of two code points depending on shift state
//   - Transparent and None: fall-through and "emit nothing" markers
//
// # Keycode Specifications
//
// Layout files spell keycodes the way keyboard firmware keymaps do:
//
//	"KC_A", "A", "ESC"        - plain keys
//	"_______", "XXXXXXX"      - transparent / none
//	"MT(LCTL,ESC)"            - Ctrl when held, Escape when tapped
//	"LT(NAV,SCLN)"            - NAV layer when held, ';' when tapped
//	"MO(ACCENT)", "TG(NAV)"   - momentary / toggle layers
//	"LALT(F4)", "EXLM"        - keys with implied modifiers
//	"X(20AC)", "XP(E1,C1)"    - unicode code points
//	"LOWER", "QWERTY"         - custom actions
package key
