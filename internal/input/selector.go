package input

import (
	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/input/layer"
	"github.com/dshills/keyweave/internal/logging"
)

// Persister stores the default layer across restarts.
// Implementations log their own failures.
type Persister interface {
	SaveDefaultLayer(id int)
	LoadDefaultLayer() (int, bool)
}

// Selector changes the persistent default layer.
type Selector struct {
	stack  *layer.Stack
	tone   audio.Tone
	songs  map[int][]audio.Note
	store  Persister
	logger *logging.Logger
}

// NewSelector creates a selector. songs maps a layer id to the tune played
// when it is selected. tone and store may be nil.
func NewSelector(stack *layer.Stack, tone audio.Tone, songs map[int][]audio.Note, store Persister, logger *logging.Logger) *Selector {
	if tone == nil {
		tone = audio.Silent{}
	}
	return &Selector{
		stack:  stack,
		tone:   tone,
		songs:  songs,
		store:  store,
		logger: logging.OrDiscard(logger).WithComponent("selector"),
	}
}

// Select makes id the default layer, drops every overlay, plays the
// layer's song and persists the choice. id must be a base layer.
func (s *Selector) Select(id int) {
	s.stack.SetDefault(id)
	s.stack.Clear()

	if song, ok := s.songs[id]; ok {
		s.tone.PlaySequence(song)
	}
	if s.store != nil {
		s.store.SaveDefaultLayer(id)
	}
	s.logger.Info("default layer", "layer", s.stack.LayerName(id), "id", id)
}

// Restore loads the persisted default layer into the stack. It reports
// false and keeps the current default when nothing usable is stored.
func (s *Selector) Restore() (int, bool) {
	if s.store == nil {
		return s.stack.Default(), false
	}
	id, ok := s.store.LoadDefaultLayer()
	if !ok {
		return s.stack.Default(), false
	}
	if s.stack.Layer(id) == nil || !s.stack.IsBase(id) {
		s.logger.Warn("ignoring stored default layer", "id", id)
		return s.stack.Default(), false
	}
	s.stack.SetDefault(id)
	s.logger.Debug("restored default layer", "layer", s.stack.LayerName(id), "id", id)
	return id, true
}
