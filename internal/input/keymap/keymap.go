package keymap

import (
	"errors"
	"fmt"

	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/input/layer"
)

// LayerSpec is one layer in textual form.
type LayerSpec struct {
	// Name is referenced by LT, MO and TG cells and by Keymap.Default.
	Name string `toml:"name"`

	// Base layers must populate every cell.
	Base bool `toml:"base,omitempty"`

	// Keys holds one keycode specification per cell, row by row.
	Keys [][]string `toml:"keys"`
}

// Keymap is a layout in textual form.
type Keymap struct {
	// Name identifies the layout.
	Name string `toml:"name"`

	// Rows and Cols are the matrix dimensions.
	Rows int `toml:"rows"`
	Cols int `toml:"cols"`

	// Default names the layer used when no stored choice exists.
	Default string `toml:"default"`

	// Layers are listed in id order; later layers take precedence.
	Layers []LayerSpec `toml:"layers"`

	// Source indicates where this keymap was defined, e.g. "builtin" or
	// a file path.
	Source string `toml:"-"`
}

// LayerID returns the id of the named layer.
func (k *Keymap) LayerID(name string) (int, bool) {
	for i, l := range k.Layers {
		if l.Name == name {
			return i, true
		}
	}
	return 0, false
}

// LayerNames returns the layer names in id order.
func (k *Keymap) LayerNames() []string {
	names := make([]string, len(k.Layers))
	for i, l := range k.Layers {
		names[i] = l.Name
	}
	return names
}

// Validate reports every problem in the keymap as ValidationErrors.
func (k *Keymap) Validate() error {
	_, err := k.Parse()
	return err
}

// Parse converts the textual layers into layers. All problems are
// collected into a ValidationErrors.
func (k *Keymap) Parse() ([]*layer.Layer, error) {
	var errs ValidationErrors

	if k.Rows <= 0 || k.Cols <= 0 {
		return nil, ValidationErrors{layerError("", fmt.Errorf("%w: %dx%d", ErrBadDimensions, k.Rows, k.Cols))}
	}
	switch {
	case len(k.Layers) == 0:
		return nil, ValidationErrors{layerError("", ErrNoLayers)}
	case len(k.Layers) > layer.MaxLayers:
		return nil, ValidationErrors{layerError("", fmt.Errorf("%w: %d > %d", ErrTooManyLayers, len(k.Layers), layer.MaxLayers))}
	}

	seen := make(map[string]bool, len(k.Layers))
	for _, l := range k.Layers {
		switch {
		case l.Name == "":
			errs = append(errs, layerError("", ErrEmptyName))
		case seen[l.Name]:
			errs = append(errs, layerError(l.Name, ErrDuplicateName))
		}
		seen[l.Name] = true
	}

	layers := make([]*layer.Layer, 0, len(k.Layers))
	for id, spec := range k.Layers {
		l, lerrs := k.parseLayer(id, spec)
		errs = append(errs, lerrs...)
		if l != nil {
			layers = append(layers, l)
		}
	}

	if id, ok := k.LayerID(k.Default); !ok {
		errs = append(errs, layerError(k.Default, ErrUnknownDefault))
	} else if !k.Layers[id].Base {
		errs = append(errs, layerError(k.Default, ErrDefaultNotBase))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return layers, nil
}

func (k *Keymap) parseLayer(id int, spec LayerSpec) (*layer.Layer, ValidationErrors) {
	var errs ValidationErrors

	if len(spec.Keys) != k.Rows {
		return nil, ValidationErrors{layerError(spec.Name,
			fmt.Errorf("%w: have %d, want %d", ErrRowCount, len(spec.Keys), k.Rows))}
	}

	cells := make([]key.Keycode, 0, k.Rows*k.Cols)
	for r, row := range spec.Keys {
		if len(row) != k.Cols {
			errs = append(errs, &ValidationError{
				Layer: spec.Name, Row: r, Col: -1,
				Err: fmt.Errorf("%w: have %d, want %d", ErrColCount, len(row), k.Cols),
			})
			continue
		}
		for c, s := range row {
			kc, err := key.ParseKeycode(s, k.LayerID)
			if err == nil && kc.TargetsLayer() && (kc.Layer() < 0 || kc.Layer() >= len(k.Layers)) {
				err = fmt.Errorf("%w: %d", ErrLayerTarget, kc.Layer())
			}
			if err != nil {
				errs = append(errs, &ValidationError{Layer: spec.Name, Row: r, Col: c, Spec: s, Err: err})
				continue
			}
			cells = append(cells, kc)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	l, err := layer.NewLayer(id, spec.Name, spec.Base, k.Rows, k.Cols, cells)
	if err != nil {
		var cellErr *layer.CellError
		if errors.As(err, &cellErr) {
			return nil, ValidationErrors{{
				Layer: spec.Name, Row: cellErr.Row, Col: cellErr.Col,
				Spec: spec.Keys[cellErr.Row][cellErr.Col], Err: cellErr.Err,
			}}
		}
		return nil, ValidationErrors{layerError(spec.Name, err)}
	}
	return l, nil
}

// Build validates the keymap and returns a stack with the default layer
// selected.
func (k *Keymap) Build() (*layer.Stack, error) {
	layers, err := k.Parse()
	if err != nil {
		return nil, err
	}
	id, _ := k.LayerID(k.Default)
	return layer.NewStack(layers, id)
}

// Clone returns a deep copy of the keymap.
func (k *Keymap) Clone() *Keymap {
	out := *k
	out.Layers = make([]LayerSpec, len(k.Layers))
	for i, l := range k.Layers {
		rows := make([][]string, len(l.Keys))
		for r, row := range l.Keys {
			rows[r] = append([]string(nil), row...)
		}
		out.Layers[i] = LayerSpec{Name: l.Name, Base: l.Base, Keys: rows}
	}
	return &out
}

// FromStack converts a stack back into textual form.
func FromStack(name string, s *layer.Stack) *Keymap {
	k := &Keymap{
		Name:    name,
		Rows:    s.Rows(),
		Cols:    s.Cols(),
		Default: s.LayerName(s.Default()),
	}
	for _, l := range s.Layers() {
		rows := make([][]string, l.Rows())
		for r := range rows {
			rows[r] = make([]string, l.Cols())
		}
		l.Each(func(row, col int, kc key.Keycode) {
			rows[row][col] = kc.Format(s.LayerName)
		})
		k.Layers = append(k.Layers, LayerSpec{Name: l.Name(), Base: l.IsBase(), Keys: rows})
	}
	return k
}
