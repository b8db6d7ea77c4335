package input

import (
	"slices"
	"time"

	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/backlight"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/input/key"
	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/input/layer"
	"github.com/dshills/keyweave/internal/input/tapping"
	"github.com/dshills/keyweave/internal/logging"
)

// Indicator is the backlight collaborator.
type Indicator interface {
	StepBrightness()
	SetAuxSignal(on bool)
}

// Config configures the handler.
type Config struct {
	// LowerLayer and RaiseLayer are held by the Lower and Raise actions;
	// AdjustLayer is active while both are.
	LowerLayer  int
	RaiseLayer  int
	AdjustLayer int

	// Defaults maps default-layer selection actions to layer ids.
	Defaults map[key.Action]int

	// Songs maps a layer id to the tune played when it becomes default.
	Songs map[int][]audio.Note

	// TappingTerm is how long a dual-role key must be held to act as hold.
	// Default: 200ms
	TappingTerm time.Duration

	// MusicStart is the music mode note of the bottom-left key.
	MusicStart int

	// AudioEnabled is the initial state of the audio gate.
	AudioEnabled bool
}

// DefaultConfig returns the configuration of the built-in layout.
func DefaultConfig() Config {
	return Config{
		LowerLayer:  keymap.Lower,
		RaiseLayer:  keymap.Raise,
		AdjustLayer: keymap.Adjust,
		Defaults: map[key.Action]int{
			key.ActionSelectQwerty: keymap.Qwerty,
			key.ActionSelectHack:   keymap.Hack,
		},
		Songs: map[int][]audio.Note{
			keymap.Qwerty: audio.SongQwerty,
			keymap.Hack:   audio.SongHack,
		},
		TappingTerm:  tapping.DefaultTerm,
		MusicStart:   DefaultMusicStart,
		AudioEnabled: true,
	}
}

// Deps holds the collaborators of a Handler. Nil values are replaced by
// no-op implementations, except HID which is required.
type Deps struct {
	HID       hid.Reporter
	Tone      audio.Tone
	Indicator Indicator
	Persister Persister
	Timer     tapping.Timer
	Logger    *logging.Logger
	Metrics   *Metrics
}

// Handler is the event dispatcher. It is not safe for concurrent use.
type Handler struct {
	config Config
	stack  *layer.Stack

	out       hid.Reporter
	gate      *audio.Gate
	indicator Indicator
	taps      *tapping.Resolver
	selector  *Selector
	music     *Music
	hooks     *HookManager
	metrics   *Metrics
	logger    *logging.Logger

	// pressed caches the keycode each held position resolved to.
	pressed map[key.Pos]key.Keycode

	// heldMods caches the modifier bits each held position registered,
	// after the Alt/Gui swap in effect at press time.
	heldMods map[key.Pos]key.Modifier

	// buffered holds transitions that arrived while a dual-role key was
	// pending, in arrival order.
	buffered []key.Event

	// modCount counts holders of each modifier bit.
	modCount [8]int

	swapAltGui bool
	debugLevel logging.Level
}

// NewHandler creates a handler dispatching through stack.
func NewHandler(config Config, stack *layer.Stack, deps Deps) *Handler {
	logger := logging.OrDiscard(deps.Logger)
	if config.TappingTerm <= 0 {
		config.TappingTerm = tapping.DefaultTerm
	}

	h := &Handler{
		config:    config,
		stack:     stack,
		out:       deps.HID,
		gate:      asGate(deps.Tone, config.AudioEnabled),
		indicator: deps.Indicator,
		hooks:     NewHookManager(),
		metrics:   deps.Metrics,
		logger:    logger.WithComponent("input"),
		pressed:   make(map[key.Pos]key.Keycode),
		heldMods:  make(map[key.Pos]key.Modifier),
	}
	if h.indicator == nil {
		h.indicator = backlight.Nop{}
	}
	if h.metrics == nil {
		h.metrics = NewMetrics()
	}

	h.taps = tapping.NewResolver(config.TappingTerm, deps.Timer, h)
	h.taps.OnResolve(h.onResolve)
	h.selector = NewSelector(stack, h.gate, config.Songs, deps.Persister, logger)
	h.music = NewMusic(config.MusicStart, stack.Rows(), h.gate, logger)
	h.hooks.RegisterWithOptions(h.music, "music", HookPriorityHigh)

	return h
}

// asGate wraps tone in a gate unless it already is one.
func asGate(tone audio.Tone, enabled bool) *audio.Gate {
	if g, ok := tone.(*audio.Gate); ok {
		return g
	}
	return audio.NewGate(tone, enabled)
}

// Stack returns the layer stack.
func (h *Handler) Stack() *layer.Stack { return h.stack }

// Selector returns the default-layer selector.
func (h *Handler) Selector() *Selector { return h.selector }

// Music returns the music mode hook.
func (h *Handler) Music() *Music { return h.music }

// Hooks returns the hook manager.
func (h *Handler) Hooks() *HookManager { return h.hooks }

// Metrics returns the metrics tracker.
func (h *Handler) Metrics() *Metrics { return h.metrics }

// Tapping returns the dual-role key resolver.
func (h *Handler) Tapping() *tapping.Resolver { return h.taps }

// Tone returns the gated tone collaborator.
func (h *Handler) Tone() *audio.Gate { return h.gate }

// AltGuiSwapped reports whether Alt and Gui are exchanged.
func (h *Handler) AltGuiSwapped() bool { return h.swapAltGui }

// HandleEvent processes one physical key transition.
//
// While a dual-role key is pending, transitions of other keys are buffered.
// They are replayed once the key resolves: after the tap code when it is
// released within the tapping term, or with the hold engaged otherwise.
func (h *Handler) HandleEvent(ev key.Event) {
	timer := h.metrics.StartKeyEventTimer()
	defer timer.Stop()

	if !h.stack.Contains(ev.Pos.Row, ev.Pos.Col) {
		h.logger.Warn("event outside matrix", "event", ev.String())
		h.metrics.RecordDroppedEvent()
		return
	}

	h.expire(ev.Time)
	pending, ok := h.taps.Pending()
	switch {
	case !ok:
		h.process(ev)
	case ev.Pos == pending && !ev.Pressed:
		h.process(ev)
		h.flush()
	default:
		h.buffered = append(h.buffered, ev)
	}
}

// process resolves and dispatches one transition.
func (h *Handler) process(ev key.Event) {
	var kc key.Keycode
	if ev.Pressed {
		kc = h.stack.Resolve(ev.Pos.Row, ev.Pos.Col)
		h.pressed[ev.Pos] = kc
	} else {
		cached, ok := h.pressed[ev.Pos]
		if !ok {
			h.logger.Debug("release without press", "pos", ev.Pos.String())
			return
		}
		delete(h.pressed, ev.Pos)
		kc = cached
	}

	if h.hooks.RunPreKeyEvent(&ev, kc) {
		h.metrics.RecordHookConsumption()
		return
	}
	h.dispatch(ev, kc)
	h.hooks.RunPostKeyEvent(&ev, kc)
}

// expire resolves the pending key as hold when at is past its tapping
// term, for timers that have not been delivered yet.
func (h *Handler) expire(at time.Time) {
	for {
		pos, ok := h.taps.Pending()
		if !ok || h.taps.OnHoldTimeout(pos, at) != tapping.Held {
			return
		}
		h.flush()
	}
}

// flush replays buffered transitions until none are left or a replayed
// press leaves a dual-role key pending. A buffered release of the pending
// key is taken ahead of the transitions before it, since it taps the key.
func (h *Handler) flush() {
	for len(h.buffered) > 0 {
		pos, ok := h.taps.Pending()
		if !ok {
			ev := h.buffered[0]
			h.buffered = h.buffered[1:]
			h.process(ev)
			continue
		}
		if h.taps.OnHoldTimeout(pos, h.buffered[0].Time) == tapping.Held {
			continue
		}
		i := slices.IndexFunc(h.buffered, func(ev key.Event) bool {
			return ev.Pos == pos && !ev.Pressed
		})
		if i < 0 {
			return
		}
		ev := h.buffered[i]
		if h.taps.OnHoldTimeout(pos, ev.Time) == tapping.Held {
			continue
		}
		h.buffered = slices.Delete(h.buffered, i, i+1)
		h.process(ev)
	}
}

// Buffered returns the number of transitions waiting on a pending key.
func (h *Handler) Buffered() int {
	return len(h.buffered)
}

// HandleHoldTimeout delivers the tapping timer for pos.
func (h *Handler) HandleHoldTimeout(pos key.Pos, at time.Time) {
	if h.taps.OnHoldTimeout(pos, at) == tapping.Held {
		h.flush()
	}
}

// IsHeld reports whether pos is between press and release.
func (h *Handler) IsHeld(pos key.Pos) bool {
	_, ok := h.pressed[pos]
	return ok
}

// HeldCount returns the number of positions between press and release.
func (h *Handler) HeldCount() int {
	return len(h.pressed)
}

func (h *Handler) dispatch(ev key.Event, kc key.Keycode) {
	switch kc.Kind() {
	case key.KindTransparent, key.KindNone:

	case key.KindPlain:
		if ev.Pressed {
			h.heldMods[ev.Pos] = h.holdMods(kc.Mods() | codeMods(kc.Code()))
			h.press(kc.Code())
		} else {
			h.release(kc.Code())
			h.delMods(h.heldMods[ev.Pos])
			delete(h.heldMods, ev.Pos)
		}

	case key.KindModTap, key.KindLayerTap:
		if ev.Pressed {
			h.taps.OnPress(ev.Pos, kc, ev.Time)
		} else {
			h.taps.OnRelease(ev.Pos, ev.Time)
		}

	case key.KindLayerMomentary:
		h.stack.Set(kc.Layer(), ev.Pressed)

	case key.KindLayerToggle:
		if ev.Pressed {
			h.stack.Toggle(kc.Layer())
		}

	case key.KindUnicodePair:
		if ev.Pressed {
			h.out.TypeUnicode(kc.Rune(h.shifted()))
		}

	case key.KindCustom:
		if !h.HandleAction(kc.Action(), ev.Pressed) {
			h.logger.Debug("unhandled action", "action", kc.Action().String())
		}
	}
}

// HandleAction runs a custom action and reports whether it was consumed.
func (h *Handler) HandleAction(action key.Action, pressed bool) bool {
	if h.hooks.RunPreAction(action, pressed) {
		h.metrics.RecordHookConsumption()
		return true
	}
	if action.Valid() {
		h.metrics.RecordAction()
	}

	switch action {
	case key.ActionSelectQwerty, key.ActionSelectHack:
		if pressed {
			id, ok := h.config.Defaults[action]
			if !ok {
				h.logger.Warn("no layer for selection", "action", action.String())
				return true
			}
			h.selector.Select(id)
		}
		return true

	case key.ActionLower:
		h.triLayer(h.config.LowerLayer, pressed)
		return true

	case key.ActionRaise:
		h.triLayer(h.config.RaiseLayer, pressed)
		return true

	case key.ActionBacklit:
		if pressed {
			h.addMods(key.ModRShift)
			h.indicator.StepBrightness()
			h.indicator.SetAuxSignal(true)
		} else {
			h.delMods(key.ModRShift)
			h.indicator.SetAuxSignal(false)
		}
		return true

	case key.ActionAudioOn:
		if pressed {
			h.gate.SetEnabled(true)
			h.logger.Info("audio", "enabled", true)
		}
		return true

	case key.ActionAudioOff:
		if pressed {
			h.music.SetEnabled(false)
			h.gate.SetEnabled(false)
			h.logger.Info("audio", "enabled", false)
		}
		return true

	case key.ActionMusicOn:
		if pressed {
			h.music.SetEnabled(true)
		}
		return true

	case key.ActionMusicOff:
		if pressed {
			h.music.SetEnabled(false)
		}
		return true

	case key.ActionAltGuiNormal:
		if pressed {
			h.swapAltGui = false
		}
		return true

	case key.ActionAltGuiSwap:
		if pressed {
			h.swapAltGui = true
		}
		return true

	case key.ActionUnicodeLinux:
		h.setUnicodeMode(hid.UnicodeLinux, pressed)
		return true

	case key.ActionUnicodeMac:
		h.setUnicodeMode(hid.UnicodeMac, pressed)
		return true

	case key.ActionUnicodeWinCompose:
		h.setUnicodeMode(hid.UnicodeWinCompose, pressed)
		return true

	case key.ActionDebugToggle:
		if pressed {
			h.toggleDebug()
		}
		return true

	case key.ActionNone:
		return false
	}
	return false
}

// triLayer holds or releases a tri-layer input layer.
func (h *Handler) triLayer(id int, pressed bool) {
	h.stack.Set(id, pressed)
	h.stack.UpdateTri(h.config.LowerLayer, h.config.RaiseLayer, h.config.AdjustLayer)
}

func (h *Handler) setUnicodeMode(mode hid.UnicodeMode, pressed bool) {
	if !pressed {
		return
	}
	setter, ok := h.out.(hid.UnicodeModeSetter)
	if !ok {
		h.logger.Warn("reporter has fixed unicode mode", "mode", mode.String())
		return
	}
	setter.SetUnicodeMode(mode)
	h.logger.Info("unicode mode", "mode", mode.String())
}

func (h *Handler) toggleDebug() {
	if h.logger.Level() == logging.LevelDebug {
		level := h.debugLevel
		if level == logging.LevelDebug {
			level = logging.LevelInfo
		}
		h.logger.SetLevel(level)
		return
	}
	h.debugLevel = h.logger.Level()
	h.logger.SetLevel(logging.LevelDebug)
	h.logger.Debug("debug logging enabled")
}

// codeMods returns the modifier bit of a modifier code.
func codeMods(code key.Code) key.Modifier {
	if code.IsModifier() {
		return code.Modifier()
	}
	return 0
}

// press reports a plain code. Modifier codes are registered as bits by
// holdMods instead.
func (h *Handler) press(code key.Code) {
	if code != key.CodeNone && !code.IsModifier() {
		h.out.Press(code)
	}
}

func (h *Handler) release(code key.Code) {
	if code != key.CodeNone && !code.IsModifier() {
		h.out.Release(code)
	}
}

// holdMods applies the Alt/Gui swap to mods, registers the result and
// returns it. The caller releases exactly the returned bits.
func (h *Handler) holdMods(mods key.Modifier) key.Modifier {
	if h.swapAltGui {
		mods = mods.SwapAltGui()
	}
	h.addMods(mods)
	return mods
}

// addMods registers modifier bits. Each bit is reference counted so two
// keys holding the same modifier release it only when both are up.
func (h *Handler) addMods(mods key.Modifier) {
	if mods.IsEmpty() {
		return
	}
	var added key.Modifier
	for bit := 0; bit < 8; bit++ {
		m := key.Modifier(1 << bit)
		if !mods.Has(m) {
			continue
		}
		if h.modCount[bit] == 0 {
			added |= m
		}
		h.modCount[bit]++
	}
	if !added.IsEmpty() {
		h.out.AddMods(added)
	}
}

func (h *Handler) delMods(mods key.Modifier) {
	if mods.IsEmpty() {
		return
	}
	var removed key.Modifier
	for bit := 0; bit < 8; bit++ {
		m := key.Modifier(1 << bit)
		if !mods.Has(m) || h.modCount[bit] == 0 {
			continue
		}
		h.modCount[bit]--
		if h.modCount[bit] == 0 {
			removed |= m
		}
	}
	if !removed.IsEmpty() {
		h.out.DelMods(removed)
	}
}

// Mods returns the modifier bits currently held by the handler.
func (h *Handler) Mods() key.Modifier {
	var mods key.Modifier
	for bit := 0; bit < 8; bit++ {
		if h.modCount[bit] > 0 {
			mods |= key.Modifier(1 << bit)
		}
	}
	return mods
}

func (h *Handler) shifted() bool {
	return h.Mods().HasShift()
}

// Tap implements tapping.Output.
func (h *Handler) Tap(code key.Code) {
	if code.IsModifier() {
		h.delMods(h.holdMods(code.Modifier()))
		return
	}
	h.out.Tap(code)
}

// Engage implements tapping.Output.
func (h *Handler) Engage(pos key.Pos, kc key.Keycode) {
	switch kc.Kind() {
	case key.KindModTap:
		h.heldMods[pos] = h.holdMods(kc.Mods())
	case key.KindLayerTap:
		h.stack.Activate(kc.Layer())
	}
}

// Disengage implements tapping.Output.
func (h *Handler) Disengage(pos key.Pos, kc key.Keycode) {
	switch kc.Kind() {
	case key.KindModTap:
		h.delMods(h.heldMods[pos])
		delete(h.heldMods, pos)
	case key.KindLayerTap:
		h.stack.Deactivate(kc.Layer())
	}
}

func (h *Handler) onResolve(pos key.Pos, kc key.Keycode, res tapping.Resolution) {
	switch res {
	case tapping.Tapped:
		h.metrics.RecordTap()
	case tapping.Held:
		h.metrics.RecordHold()
	}
	h.logger.Debug("dual-role resolved", "pos", pos.String(), "keycode", kc.String(), "as", res.String())
}

// Reset releases everything the handler holds: pending and held dual-role
// keys, buffered transitions, cached presses, modifiers and music notes.
func (h *Handler) Reset() {
	h.taps.Reset()
	h.buffered = nil
	clear(h.heldMods)
	for pos, kc := range h.pressed {
		if kc.Kind() == key.KindPlain && !kc.Code().IsModifier() {
			h.out.Release(kc.Code())
		}
		delete(h.pressed, pos)
	}
	if mods := h.Mods(); !mods.IsEmpty() {
		h.out.DelMods(mods)
	}
	h.modCount = [8]int{}
	h.music.StopAll()
}
