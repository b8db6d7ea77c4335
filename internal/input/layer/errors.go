package layer

import (
	"errors"
	"fmt"
)

// Sentinel errors for layer tables.
var (
	// ErrUnknownLayer is wrapped by the panic raised when a layer id is not
	// part of the stack.
	ErrUnknownLayer = errors.New("unknown layer")

	// ErrIncompleteBase indicates a base layer with a transparent cell.
	ErrIncompleteBase = errors.New("base layer contains transparent cells")

	// ErrDimensions indicates a layer whose grid does not match the board.
	ErrDimensions = errors.New("layer dimensions mismatch")

	// ErrDuplicateLayer indicates two layers sharing an id or a name.
	ErrDuplicateLayer = errors.New("duplicate layer")

	// ErrNoBaseLayer indicates a stack without a usable default layer.
	ErrNoBaseLayer = errors.New("no base layer")

	// ErrLayerRange indicates a layer id outside [0, MaxLayers).
	ErrLayerRange = errors.New("layer id out of range")
)

// CellError reports a problem with one cell of a layer.
type CellError struct {
	Layer string
	Row   int
	Col   int
	Err   error
}

// Error implements the error interface.
func (e *CellError) Error() string {
	return fmt.Sprintf("layer %s at %d,%d: %v", e.Layer, e.Row, e.Col, e.Err)
}

// Unwrap returns the underlying error.
func (e *CellError) Unwrap() error {
	return e.Err
}

// unknownLayer panics with an error wrapping ErrUnknownLayer.
func unknownLayer(id int) {
	panic(fmt.Errorf("%w: %d", ErrUnknownLayer, id))
}
