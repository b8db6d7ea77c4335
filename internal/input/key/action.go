package key

import (
	"fmt"
	"strings"
)

// Action identifies a custom action handled by the dispatcher.
// The set is closed: adding an action means adding a constant here and a
// case in the dispatcher's switch.
type Action uint8

const (
	// ActionNone is the zero value and is never dispatched.
	ActionNone Action = iota

	// Default-layer selection.
	ActionSelectQwerty
	ActionSelectHack

	// Momentary layers feeding the tri-layer.
	ActionLower
	ActionRaise

	// Backlight step with shift held.
	ActionBacklit

	// Audio and music mode.
	ActionAudioOn
	ActionAudioOff
	ActionMusicOn
	ActionMusicOff

	// Alt/Gui swap.
	ActionAltGuiNormal
	ActionAltGuiSwap

	// Unicode input modes.
	ActionUnicodeLinux
	ActionUnicodeMac
	ActionUnicodeWinCompose

	// Debug logging toggle.
	ActionDebugToggle

	actionCount
)

var actionNames = [actionCount]string{
	ActionNone:              "NONE",
	ActionSelectQwerty:      "QWERTY",
	ActionSelectHack:        "HACK",
	ActionLower:             "LOWER",
	ActionRaise:             "RAISE",
	ActionBacklit:           "BACKLIT",
	ActionAudioOn:           "AU_ON",
	ActionAudioOff:          "AU_OFF",
	ActionMusicOn:           "MU_ON",
	ActionMusicOff:          "MU_OFF",
	ActionAltGuiNormal:      "AG_NORM",
	ActionAltGuiSwap:        "AG_SWAP",
	ActionUnicodeLinux:      "UC_M_LN",
	ActionUnicodeMac:        "UC_M_OS",
	ActionUnicodeWinCompose: "UC_M_WC",
	ActionDebugToggle:       "DEBUG",
}

// String returns the layout-file name of the action.
func (a Action) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// Valid returns true for every defined action except ActionNone.
func (a Action) Valid() bool {
	return a > ActionNone && a < actionCount
}

// Actions returns every dispatchable action in declaration order.
func Actions() []Action {
	out := make([]Action, 0, actionCount-1)
	for a := ActionNone + 1; a < actionCount; a++ {
		out = append(out, a)
	}
	return out
}

// ActionFromName returns the action with the given layout-file name.
func ActionFromName(name string) (Action, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for a := ActionNone + 1; a < actionCount; a++ {
		if actionNames[a] == name {
			return a, true
		}
	}
	return ActionNone, false
}
