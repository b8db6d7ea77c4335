package layer

import (
	"fmt"

	"github.com/dshills/keyweave/internal/input/key"
)

// ChangeCallback is called when the effective layer state changes.
// from and to include the default layer bit.
type ChangeCallback func(from, to State)

// Stack holds the layers of a board and the active-layer state.
// It is owned by the event loop and is not safe for concurrent use;
// other goroutines see its state through snapshots taken on the loop.
type Stack struct {
	// layers is indexed by layer id; unused ids are nil.
	layers []*Layer
	byName map[string]*Layer
	order  []*Layer

	rows int
	cols int

	// active holds overlay layers; def is the default layer id.
	active State
	def    int

	callbacks []ChangeCallback
}

// NewStack creates a stack over layers with defaultID as the default layer.
// All layers must share the same dimensions and the default layer must be
// a base layer.
func NewStack(layers []*Layer, defaultID int) (*Stack, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: stack has no layers", ErrNoBaseLayer)
	}

	s := &Stack{
		layers: make([]*Layer, MaxLayers),
		byName: make(map[string]*Layer, len(layers)),
		order:  make([]*Layer, 0, len(layers)),
		rows:   layers[0].Rows(),
		cols:   layers[0].Cols(),
	}

	for _, l := range layers {
		if l == nil {
			continue
		}
		if l.Rows() != s.rows || l.Cols() != s.cols {
			return nil, fmt.Errorf("%w: %s is %dx%d, want %dx%d",
				ErrDimensions, l.Name(), l.Rows(), l.Cols(), s.rows, s.cols)
		}
		if s.layers[l.ID()] != nil {
			return nil, fmt.Errorf("%w: id %d used by %s and %s",
				ErrDuplicateLayer, l.ID(), s.layers[l.ID()].Name(), l.Name())
		}
		if _, exists := s.byName[l.Name()]; exists {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateLayer, l.Name())
		}
		s.layers[l.ID()] = l
		s.byName[l.Name()] = l
		s.order = append(s.order, l)
	}

	if defaultID < 0 || defaultID >= MaxLayers || s.layers[defaultID] == nil {
		return nil, fmt.Errorf("%w: default layer %d is not defined", ErrNoBaseLayer, defaultID)
	}
	if !s.layers[defaultID].IsBase() {
		return nil, fmt.Errorf("%w: default layer %s is not a base layer", ErrNoBaseLayer, s.layers[defaultID].Name())
	}
	s.def = defaultID

	return s, nil
}

// Rows returns the board row count.
func (s *Stack) Rows() int { return s.rows }

// Cols returns the board column count.
func (s *Stack) Cols() int { return s.cols }

// Contains reports whether row, col is on the board.
func (s *Stack) Contains(row, col int) bool {
	return row >= 0 && row < s.rows && col >= 0 && col < s.cols
}

// Layer returns the layer with id, or nil.
func (s *Stack) Layer(id int) *Layer {
	if id < 0 || id >= MaxLayers {
		return nil
	}
	return s.layers[id]
}

// Layers returns the layers in definition order.
func (s *Stack) Layers() []*Layer {
	out := make([]*Layer, len(s.order))
	copy(out, s.order)
	return out
}

// LayerID returns the id of the named layer. It satisfies key.LayerResolver.
func (s *Stack) LayerID(name string) (int, bool) {
	l, ok := s.byName[name]
	if !ok {
		return 0, false
	}
	return l.ID(), true
}

// LayerName returns the name of layer id, or "" if it is not defined.
func (s *Stack) LayerName(id int) string {
	if l := s.Layer(id); l != nil {
		return l.Name()
	}
	return ""
}

// IsBase reports whether id names a base layer.
func (s *Stack) IsBase(id int) bool {
	l := s.Layer(id)
	return l != nil && l.IsBase()
}

// Resolve returns the effective keycode at row, col: the cell of the
// highest active layer that is not transparent. Off-board positions
// resolve to None.
func (s *Stack) Resolve(row, col int) key.Keycode {
	kc, _ := s.ResolveLayer(row, col)
	return kc
}

// ResolveLayer is Resolve that also reports which layer supplied the cell.
func (s *Stack) ResolveLayer(row, col int) (key.Keycode, int) {
	if !s.Contains(row, col) {
		return key.None(), -1
	}

	effective := s.active.With(s.def)
	for id := effective.Highest(); id >= 0; id-- {
		if !effective.Has(id) || s.layers[id] == nil {
			continue
		}
		if kc := s.layers[id].At(row, col); !kc.IsTransparent() {
			return kc, id
		}
	}

	// Unreachable while the default layer is a base layer.
	return key.None(), -1
}

// Activate turns layer id on. Activating an active layer is a no-op.
func (s *Stack) Activate(id int) {
	s.mustKnow(id)
	s.update(func(active State) State {
		return active.With(id)
	})
}

// Deactivate turns layer id off. Deactivating an inactive layer is a no-op.
func (s *Stack) Deactivate(id int) {
	s.mustKnow(id)
	s.update(func(active State) State {
		return active.Without(id)
	})
}

// Toggle flips layer id.
func (s *Stack) Toggle(id int) {
	s.mustKnow(id)
	s.update(func(active State) State {
		if active.Has(id) {
			return active.Without(id)
		}
		return active.With(id)
	})
}

// Set turns layer id on or off.
func (s *Stack) Set(id int, on bool) {
	if on {
		s.Activate(id)
	} else {
		s.Deactivate(id)
	}
}

// Clear turns off every overlay layer. The default layer is unaffected.
func (s *Stack) Clear() {
	s.update(func(State) State { return 0 })
}

// UpdateTri activates combined iff a and b are both active, and
// deactivates it otherwise.
func (s *Stack) UpdateTri(a, b, combined int) {
	s.mustKnow(a)
	s.mustKnow(b)
	s.mustKnow(combined)
	s.update(func(active State) State {
		effective := active.With(s.def)
		if effective.Has(a) && effective.Has(b) {
			return active.With(combined)
		}
		return active.Without(combined)
	})
}

// SetDefault makes id the default layer. id must be a base layer.
func (s *Stack) SetDefault(id int) {
	s.mustKnow(id)
	if !s.layers[id].IsBase() {
		panic(fmt.Errorf("%w: %s is not a base layer", ErrNoBaseLayer, s.layers[id].Name()))
	}

	from := s.active.With(s.def)
	s.def = id
	s.notify(from, s.active.With(s.def))
}

// Default returns the default layer id.
func (s *Stack) Default() int {
	return s.def
}

// IsActive reports whether layer id takes part in resolution.
func (s *Stack) IsActive(id int) bool {
	return s.active.With(s.def).Has(id)
}

// State returns the overlay bitmask without the default layer bit.
func (s *Stack) State() State {
	return s.active
}

// Effective returns the overlay bitmask with the default layer bit.
func (s *Stack) Effective() State {
	return s.active.With(s.def)
}

// Active returns the ids taking part in resolution, ascending.
func (s *Stack) Active() []int {
	return s.Effective().IDs()
}

// Highest returns the highest active layer id.
func (s *Stack) Highest() int {
	return s.Effective().Highest()
}

// OnChange registers a callback for state changes.
// Returns a function to unregister the callback.
func (s *Stack) OnChange(callback ChangeCallback) func() {
	s.callbacks = append(s.callbacks, callback)
	index := len(s.callbacks) - 1

	return func() {
		// Remove callback by setting to nil (preserves indices)
		if index < len(s.callbacks) {
			s.callbacks[index] = nil
		}
	}
}

// update applies fn to the overlay state and notifies callbacks if the
// effective state changed.
func (s *Stack) update(fn func(State) State) {
	from := s.active.With(s.def)
	s.active = fn(s.active)
	s.notify(from, s.active.With(s.def))
}

// notify calls the registered callbacks when from and to differ.
// Callbacks registered during notification are not called.
func (s *Stack) notify(from, to State) {
	if from == to {
		return
	}
	for _, cb := range s.callbacks {
		if cb != nil {
			cb(from, to)
		}
	}
}

// mustKnow panics if id is not a defined layer.
func (s *Stack) mustKnow(id int) {
	if id < 0 || id >= MaxLayers || s.layers[id] == nil {
		unknownLayer(id)
	}
}
