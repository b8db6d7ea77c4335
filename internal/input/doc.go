// Package input turns physical key events into keyboard output.
//
// # Architecture
//
// The input package is the dispatcher of the keyboard engine. Its
// subpackages hold the pieces it coordinates:
//
//   - key: keycodes, modifiers, custom actions and physical events
//   - layer: layers and the active-layer stack with tri-layer support
//   - tapping: tap/hold resolution for dual-role keys
//   - keymap: the built-in layout, layout files and rendering
//
// Handler resolves each press through the layer stack, caches the keycode
// for the matching release, and dispatches it by kind: plain keys go to the
// HID reporter, dual-role keys to the tapping resolver, layer keys to the
// stack and custom actions to HandleAction. Hooks run before and after each
// event; music mode is a hook that plays notes instead of typing.
//
// Selector changes the persistent default layer and restores it at startup.
//
// # Usage
//
//	h := input.NewHandler(input.DefaultConfig(), stack, input.Deps{
//	    HID:       kbd,
//	    Tone:      tone,
//	    Persister: store,
//	    Timer:     timer,
//	})
//	h.Selector().Restore()
//
//	for ev := range events {
//	    h.HandleEvent(ev)
//	}
//
// Handler is not safe for concurrent use; the engine loop owns it.
package input
