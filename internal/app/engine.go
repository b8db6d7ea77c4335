package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/input"
	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/input/layer"
	"github.com/dshills/keyweave/internal/input/tapping"
	"github.com/dshills/keyweave/internal/logging"
	"github.com/dshills/keyweave/internal/muse"
	"github.com/dshills/keyweave/internal/source"
)

// Layer names the engine binds its actions to.
const (
	LayerLower  = "LOWER"
	LayerRaise  = "RAISE"
	LayerAdjust = "ADJUST"
	LayerQwerty = "QWERTY"
	LayerHack   = "HACK"
)

// Config configures an Engine.
type Config struct {
	Input input.Config
	Muse  muse.Config
}

// DefaultConfig returns the configuration of the built-in layout.
func DefaultConfig() Config {
	mc := muse.DefaultConfig()
	mc.OffsetLayer = keymap.Raise
	mc.AdjustLayer = keymap.Adjust
	return Config{
		Input: input.DefaultConfig(),
		Muse:  mc,
	}
}

// Bind returns cfg with every layer id resolved by name in km.
// The tri-layer layers are required; selection layers are optional.
func Bind(km *keymap.Keymap, cfg Config) (Config, error) {
	required := []struct {
		name string
		dst  *int
	}{
		{LayerLower, &cfg.Input.LowerLayer},
		{LayerRaise, &cfg.Input.RaiseLayer},
		{LayerAdjust, &cfg.Input.AdjustLayer},
	}
	for _, r := range required {
		id, ok := km.LayerID(r.name)
		if !ok {
			return cfg, fmt.Errorf("%w: %s", ErrMissingLayer, r.name)
		}
		*r.dst = id
	}
	cfg.Muse.OffsetLayer = cfg.Input.RaiseLayer
	cfg.Muse.AdjustLayer = cfg.Input.AdjustLayer

	selections := []struct {
		name   string
		action key.Action
		song   []audio.Note
	}{
		{LayerQwerty, key.ActionSelectQwerty, audio.SongQwerty},
		{LayerHack, key.ActionSelectHack, audio.SongHack},
	}
	cfg.Input.Defaults = make(map[key.Action]int, len(selections))
	cfg.Input.Songs = make(map[int][]audio.Note, len(selections))
	for _, s := range selections {
		id, ok := km.LayerID(s.name)
		if !ok {
			continue
		}
		cfg.Input.Defaults[s.action] = id
		cfg.Input.Songs[id] = s.song
	}
	return cfg, nil
}

// Deps holds the collaborators of an Engine. HID is required.
type Deps struct {
	HID       hid.Reporter
	Tone      audio.Tone
	Indicator input.Indicator
	Persister input.Persister
	Pulser    muse.Pulser
	Logger    *logging.Logger

	// Hooks are registered with every dispatcher the engine builds.
	Hooks []input.HookRegistration
}

// Scheduler arms hold timeouts for dual-role keys.
type Scheduler interface {
	Schedule(pos key.Pos, after time.Duration)
}

// Status is a summary of the engine state for display.
type Status struct {
	Layout  string
	Default string
	Active  []string
	Muse    muse.State
}

// String returns a one-line summary like "preonic | QWERTY | LOWER | muse off".
func (s Status) String() string {
	active := "-"
	if len(s.Active) > 0 {
		active = strings.Join(s.Active, " ")
	}
	museState := "muse off"
	if s.Muse.Enabled {
		museState = fmt.Sprintf("muse offset=%d tempo=%d", s.Muse.Offset, s.Muse.Tempo)
	}
	return fmt.Sprintf("%s | %s | %s | %s", s.Layout, s.Default, active, museState)
}

// Engine owns the layer stack, the dispatcher and the sequencer for one
// layout. It is not safe for concurrent use; the loop serializes calls.
type Engine struct {
	cfg    Config
	deps   Deps
	layout *keymap.Keymap

	stack   *layer.Stack
	handler *input.Handler
	muse    *muse.Modulator
	gate    *audio.Gate
	metrics *input.Metrics

	sched    Scheduler
	now      time.Time
	unwatch  func()
	onStatus []func(Status)
	logger   *logging.Logger
}

// NewEngine builds an engine for km. The stored default layer is not
// restored; call Restore once storage is ready.
func NewEngine(km *keymap.Keymap, cfg Config, deps Deps) (*Engine, error) {
	logger := logging.OrDiscard(deps.Logger)
	e := &Engine{
		cfg:     cfg,
		deps:    deps,
		metrics: input.NewMetrics(),
		logger:  logger.WithComponent("engine"),
	}
	e.gate = audio.NewGate(toneOrSilent(deps.Tone), cfg.Input.AudioEnabled)
	if err := e.build(km, nil); err != nil {
		return nil, err
	}
	return e, nil
}

func toneOrSilent(t audio.Tone) audio.Tone {
	if t == nil {
		return audio.Silent{}
	}
	return t
}

// build replaces the stack, handler and modulator with ones for km.
// prev carries sequencer tuning across a rebuild.
func (e *Engine) build(km *keymap.Keymap, prev *muse.State) error {
	cfg, err := Bind(km, e.cfg)
	if err != nil {
		return err
	}
	stack, err := km.Build()
	if err != nil {
		return err
	}

	handler := input.NewHandler(cfg.Input, stack, input.Deps{
		HID:       e.deps.HID,
		Tone:      e.gate,
		Indicator: e.deps.Indicator,
		Persister: e.deps.Persister,
		Timer:     tapping.TimerFunc(e.schedule),
		Logger:    e.deps.Logger,
		Metrics:   e.metrics,
	})
	for _, reg := range e.deps.Hooks {
		handler.Hooks().RegisterWithOptions(reg.Hook, reg.Name, reg.Priority)
	}

	mc := cfg.Muse
	if prev != nil {
		mc.Offset = prev.Offset
		mc.Tempo = prev.Tempo
	}
	mod := muse.NewModulator(mc, stack, handler, e.gate, e.deps.Pulser, e.deps.Logger)
	if prev != nil && prev.Enabled {
		mod.OnSwitch(muse.SwitchMuse, true)
	}

	if e.unwatch != nil {
		e.unwatch()
	}
	e.cfg = cfg
	e.layout = km
	e.stack = stack
	e.handler = handler
	e.muse = mod
	e.unwatch = stack.OnChange(func(from, to layer.State) {
		e.logger.Debug("layers", "from", from.String(), "to", to.String())
		e.notify()
	})
	return nil
}

func (e *Engine) schedule(pos key.Pos, after time.Duration) {
	if e.sched != nil {
		e.sched.Schedule(pos, after)
	}
}

// SetScheduler sets where hold timeouts are armed. Without a scheduler
// dual-role keys resolve on release or on the first event past the
// tapping term.
func (e *Engine) SetScheduler(s Scheduler) {
	e.sched = s
}

// OnStatus registers fn to be called after every layer change.
func (e *Engine) OnStatus(fn func(Status)) {
	e.onStatus = append(e.onStatus, fn)
}

func (e *Engine) notify() {
	if len(e.onStatus) == 0 {
		return
	}
	st := e.Status()
	for _, fn := range e.onStatus {
		fn(st)
	}
}

// Restore applies the stored default layer, if any.
func (e *Engine) Restore() (int, bool) {
	id, ok := e.handler.Selector().Restore()
	e.notify()
	return id, ok
}

// Handle dispatches one source event.
func (e *Engine) Handle(ev source.Event) {
	if !ev.Time.IsZero() {
		e.now = ev.Time
	}
	switch ev.Kind {
	case source.KindKey:
		e.handler.HandleEvent(ev.Key)
	case source.KindRotate:
		e.muse.OnRotate(ev.Clockwise)
	case source.KindSwitch:
		e.muse.OnSwitch(ev.Switch, ev.On)
		e.notify()
	case source.KindScan:
		e.muse.OnScan()
	default:
		e.logger.Warn("unknown event", "kind", ev.Kind.String())
	}
}

// HoldTimeout delivers an expired hold timeout for pos.
func (e *Engine) HoldTimeout(pos key.Pos, at time.Time) {
	e.now = at
	e.handler.HandleHoldTimeout(pos, at)
}

// SwapLayout rebuilds the engine for km. Held keys are released first;
// the default layer is kept when km has a base layer of the same name.
func (e *Engine) SwapLayout(km *keymap.Keymap) error {
	current := e.stack.LayerName(e.stack.Default())
	state := e.muse.State()
	if err := km.Validate(); err != nil {
		return err
	}
	if _, err := Bind(km, e.cfg); err != nil {
		return err
	}

	e.handler.Reset()
	if state.Sounding {
		e.gate.StopAll()
	}
	if err := e.build(km, &state); err != nil {
		return err
	}
	if id, ok := km.LayerID(current); ok && e.stack.IsBase(id) {
		e.stack.SetDefault(id)
	}
	e.logger.Info("layout loaded", "name", km.Name, "source", km.Source, "default", e.stack.LayerName(e.stack.Default()))
	e.notify()
	return nil
}

// Reset releases every held key and modifier.
func (e *Engine) Reset() {
	e.handler.Reset()
}

// Status returns a summary of the current state.
func (e *Engine) Status() Status {
	st := Status{
		Layout:  e.layout.Name,
		Default: e.stack.LayerName(e.stack.Default()),
		Muse:    e.muse.State(),
	}
	for _, id := range e.stack.State().IDs() {
		st.Active = append(st.Active, e.stack.LayerName(id))
	}
	return st
}

// Layout returns the layout in use.
func (e *Engine) Layout() *keymap.Keymap { return e.layout }

// Stack returns the layer stack.
func (e *Engine) Stack() *layer.Stack { return e.stack }

// Handler returns the dispatcher.
func (e *Engine) Handler() *input.Handler { return e.handler }

// Muse returns the sequencer.
func (e *Engine) Muse() *muse.Modulator { return e.muse }

// Tone returns the audio gate shared by the dispatcher and the sequencer.
func (e *Engine) Tone() *audio.Gate { return e.gate }

// Metrics returns the dispatcher metrics.
func (e *Engine) Metrics() *input.Metrics { return e.metrics }

// Now returns the time of the last event handled.
func (e *Engine) Now() time.Time { return e.now }

// Close releases every held key and detaches from the stack.
func (e *Engine) Close() {
	e.handler.Reset()
	if e.unwatch != nil {
		e.unwatch()
		e.unwatch = nil
	}
}
