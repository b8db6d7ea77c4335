package layer

import (
	"fmt"

	"github.com/dshills/keyweave/internal/input/key"
)

// MaxLayers is the number of layer ids a State can hold.
const MaxLayers = 32

// Layer is an immutable rows x cols grid of keycodes.
type Layer struct {
	id    int
	name  string
	base  bool
	rows  int
	cols  int
	cells []key.Keycode
}

// NewLayer creates a layer from row-major cells.
// A base layer may be selected as the default layer and must not contain
// transparent cells.
func NewLayer(id int, name string, base bool, rows, cols int, cells []key.Keycode) (*Layer, error) {
	if id < 0 || id >= MaxLayers {
		return nil, fmt.Errorf("%w: %s has id %d", ErrLayerRange, name, id)
	}
	if rows <= 0 || cols <= 0 || len(cells) != rows*cols {
		return nil, fmt.Errorf("%w: %s has %d cells, want %dx%d", ErrDimensions, name, len(cells), rows, cols)
	}

	l := &Layer{
		id:    id,
		name:  name,
		base:  base,
		rows:  rows,
		cols:  cols,
		cells: make([]key.Keycode, len(cells)),
	}
	copy(l.cells, cells)

	if base {
		for i, kc := range l.cells {
			if kc.IsTransparent() {
				return nil, &CellError{Layer: name, Row: i / cols, Col: i % cols, Err: ErrIncompleteBase}
			}
		}
	}
	return l, nil
}

// FromRows creates a layer from a slice of equal-length rows.
func FromRows(id int, name string, base bool, rows [][]key.Keycode) (*Layer, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", ErrDimensions, name)
	}
	cols := len(rows[0])
	cells := make([]key.Keycode, 0, len(rows)*cols)
	for r, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrDimensions, name, r, len(row), cols)
		}
		cells = append(cells, row...)
	}
	return NewLayer(id, name, base, len(rows), cols, cells)
}

// ID returns the layer id.
func (l *Layer) ID() int { return l.id }

// Name returns the layer name.
func (l *Layer) Name() string { return l.name }

// IsBase reports whether the layer can serve as the default layer.
func (l *Layer) IsBase() bool { return l.base }

// Rows returns the number of rows.
func (l *Layer) Rows() int { return l.rows }

// Cols returns the number of columns.
func (l *Layer) Cols() int { return l.cols }

// At returns the cell at row, col. Out-of-range positions are transparent.
func (l *Layer) At(row, col int) key.Keycode {
	if row < 0 || row >= l.rows || col < 0 || col >= l.cols {
		return key.Transparent()
	}
	return l.cells[row*l.cols+col]
}

// Find returns the first position holding a keycode equal to kc.
func (l *Layer) Find(kc key.Keycode) (key.Pos, bool) {
	for i, c := range l.cells {
		if c.Equals(kc) {
			return key.Pos{Row: i / l.cols, Col: i % l.cols}, true
		}
	}
	return key.Pos{}, false
}

// Each calls fn for every cell in row-major order.
func (l *Layer) Each(fn func(row, col int, kc key.Keycode)) {
	for i, c := range l.cells {
		fn(i/l.cols, i%l.cols, c)
	}
}
