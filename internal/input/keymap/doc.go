// Package keymap defines keyboard layouts: named stacks of layers written
// as rows of keycode specifications.
//
// A Keymap is the textual form of a layout. It is validated and built into
// a layer.Stack for the dispatcher. Default returns the built-in 5x12
// layout; LoadFile reads a TOML layout file and Watcher reloads it when it
// changes on disk.
//
// # Layout files
//
//	name = "preonic"
//	rows = 5
//	cols = 12
//	default = "QWERTY"
//
//	[[layers]]
//	name = "QWERTY"
//	base = true
//	keys = [
//	  ["ESC", "1", "2", ...],
//	  ...
//	]
//
// Cells use key.ParseKeycode syntax. Layer names in LT, MO and TG refer to
// the layers of the same file. Layer ids are assigned in file order.
//
// # Rendering
//
// Render draws one layer as a lipgloss table for the CLI.
package keymap
