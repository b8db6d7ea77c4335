// Package layer provides layer grids and the active-layer stack that
// resolves a matrix position to its effective keycode.
//
// A Stack holds up to MaxLayers layers. Resolution walks the union of the
// active bitmask and the default layer from the highest layer id down,
// returning the first cell that is not transparent. The default layer is
// always a base layer, which is fully populated, so the walk always
// terminates with a defined keycode.
//
// Referencing a layer id the stack does not know is a programming error
// and panics with an error wrapping ErrUnknownLayer. Malformed layer tables
// are configuration errors returned by NewLayer and NewStack.
package layer
