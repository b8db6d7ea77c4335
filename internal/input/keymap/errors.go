package keymap

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNoLayers       = errors.New("keymap has no layers")
	ErrTooManyLayers  = errors.New("keymap has too many layers")
	ErrEmptyName      = errors.New("layer name is empty")
	ErrDuplicateName  = errors.New("duplicate layer name")
	ErrRowCount       = errors.New("wrong number of rows")
	ErrColCount       = errors.New("wrong number of columns")
	ErrUnknownDefault = errors.New("default layer not defined")
	ErrDefaultNotBase = errors.New("default layer is not a base layer")
	ErrLayerTarget    = errors.New("keycode targets an undefined layer")
	ErrBadDimensions  = errors.New("rows and cols must be positive")
)

// ValidationError describes one problem in a keymap. Row and Col are -1
// when the problem is not tied to a cell.
type ValidationError struct {
	Layer string
	Row   int
	Col   int
	Spec  string
	Err   error
}

// Error implements error.
func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Layer != "" {
		fmt.Fprintf(&b, "layer %s: ", e.Layer)
	}
	if e.Row >= 0 {
		fmt.Fprintf(&b, "row %d: ", e.Row)
	}
	if e.Col >= 0 {
		fmt.Fprintf(&b, "col %d: ", e.Col)
	}
	if e.Spec != "" {
		fmt.Fprintf(&b, "%q: ", e.Spec)
	}
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationErrors collects every problem found in a keymap.
type ValidationErrors []*ValidationError

// Error implements error.
func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return v[0].Error()
	}
	lines := make([]string, len(v))
	for i, e := range v {
		lines[i] = "  " + e.Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(v), strings.Join(lines, "\n"))
}

// Unwrap returns the individual errors for errors.Is and errors.As.
func (v ValidationErrors) Unwrap() []error {
	out := make([]error, len(v))
	for i, e := range v {
		out[i] = e
	}
	return out
}

func layerError(name string, err error) *ValidationError {
	return &ValidationError{Layer: name, Row: -1, Col: -1, Err: err}
}
