package tapping

import (
	"time"

	"github.com/dshills/keyweave/internal/input/key"
)

// DefaultTerm is the default tapping term.
const DefaultTerm = 200 * time.Millisecond

// Timer schedules a hold timeout for pos. The implementation must call
// Resolver.OnHoldTimeout (usually through the event loop) once after the
// duration has elapsed.
type Timer interface {
	Schedule(pos key.Pos, after time.Duration)
}

// TimerFunc adapts a function to the Timer interface.
type TimerFunc func(pos key.Pos, after time.Duration)

// Schedule calls f.
func (f TimerFunc) Schedule(pos key.Pos, after time.Duration) {
	f(pos, after)
}

// Output receives the effects of a resolution.
type Output interface {
	// Tap emits the tap code as a press immediately followed by a release.
	Tap(code key.Code)

	// Engage applies the hold role of the key at pos: modifiers for
	// ModTap, a layer for LayerTap.
	Engage(pos key.Pos, kc key.Keycode)

	// Disengage reverses Engage for the key at pos.
	Disengage(pos key.Pos, kc key.Keycode)
}

// Resolution is the outcome of a dual-role key press.
type Resolution uint8

const (
	// Unresolved means the key is still pending or unknown.
	Unresolved Resolution = iota
	// Tapped means the key resolved as a tap.
	Tapped
	// Held means the key resolved as a hold.
	Held
)

// String returns the resolution name.
func (r Resolution) String() string {
	switch r {
	case Tapped:
		return "tap"
	case Held:
		return "hold"
	default:
		return "unresolved"
	}
}

type keyState uint8

const (
	statePressed keyState = iota + 1
	stateHeld
)

// tracked is a dual-role key between press and release.
type tracked struct {
	kc        key.Keycode
	pressedAt time.Time
	state     keyState
}

// Resolver tracks pending dual-role keys by matrix position.
// It is not safe for concurrent use; call it from the event loop only.
type Resolver struct {
	term   time.Duration
	timer  Timer
	out    Output
	keys   map[key.Pos]*tracked
	order  []key.Pos
	onDone func(pos key.Pos, kc key.Keycode, r Resolution)
}

// NewResolver creates a resolver. A non-positive term selects DefaultTerm.
func NewResolver(term time.Duration, timer Timer, out Output) *Resolver {
	if term <= 0 {
		term = DefaultTerm
	}
	return &Resolver{
		term:  term,
		timer: timer,
		out:   out,
		keys:  make(map[key.Pos]*tracked),
	}
}

// Term returns the tapping term.
func (r *Resolver) Term() time.Duration {
	return r.term
}

// SetTerm changes the tapping term for subsequent presses.
func (r *Resolver) SetTerm(term time.Duration) {
	if term > 0 {
		r.term = term
	}
}

// OnResolve registers fn to be called once per press when it resolves.
func (r *Resolver) OnResolve(fn func(pos key.Pos, kc key.Keycode, res Resolution)) {
	r.onDone = fn
}

// OnPress starts tracking a dual-role key and schedules its hold timeout.
// Keycodes that are not dual-role are ignored.
func (r *Resolver) OnPress(pos key.Pos, kc key.Keycode, at time.Time) {
	if !kc.IsDualRole() {
		return
	}
	if _, exists := r.keys[pos]; exists {
		// Missed release; finish the previous press first.
		r.OnRelease(pos, at)
	}

	r.keys[pos] = &tracked{kc: kc, pressedAt: at, state: statePressed}
	r.order = append(r.order, pos)
	if r.timer != nil {
		r.timer.Schedule(pos, r.term)
	}
}

// OnHoldTimeout resolves the key at pos as hold if it is still pending and
// the tapping term has elapsed at time at.
func (r *Resolver) OnHoldTimeout(pos key.Pos, at time.Time) Resolution {
	t, ok := r.keys[pos]
	if !ok || t.state != statePressed {
		return Unresolved
	}
	if at.Sub(t.pressedAt) < r.term {
		// Timeout belongs to an earlier press of this key.
		return Unresolved
	}
	r.hold(pos, t)
	return Held
}

// OnRelease finishes the key at pos and reports how it resolved.
// It returns Unresolved if pos is not a tracked dual-role key.
func (r *Resolver) OnRelease(pos key.Pos, at time.Time) Resolution {
	t, ok := r.keys[pos]
	if !ok {
		return Unresolved
	}
	r.forget(pos)

	switch t.state {
	case stateHeld:
		r.out.Disengage(pos, t.kc)
		return Held

	default:
		if at.Sub(t.pressedAt) >= r.term {
			// Timer was late; the key was held through the term.
			r.hold(pos, t)
			r.out.Disengage(pos, t.kc)
			return Held
		}
		r.out.Tap(t.kc.Code())
		r.done(pos, t.kc, Tapped)
		return Tapped
	}
}

// Pending returns the oldest key that is pressed and not yet resolved.
func (r *Resolver) Pending() (key.Pos, bool) {
	for _, p := range r.order {
		if t := r.keys[p]; t != nil && t.state == statePressed {
			return p, true
		}
	}
	return key.Pos{}, false
}

// IsTracked reports whether pos is a dual-role key between press and release.
func (r *Resolver) IsTracked(pos key.Pos) bool {
	_, ok := r.keys[pos]
	return ok
}

// IsPending reports whether pos is pressed and not yet resolved.
func (r *Resolver) IsPending(pos key.Pos) bool {
	t, ok := r.keys[pos]
	return ok && t.state == statePressed
}

// PendingCount returns the number of unresolved keys.
func (r *Resolver) PendingCount() int {
	n := 0
	for _, t := range r.keys {
		if t.state == statePressed {
			n++
		}
	}
	return n
}

// Reset disengages held keys and forgets every tracked key.
func (r *Resolver) Reset() {
	for _, p := range r.order {
		if t := r.keys[p]; t != nil && t.state == stateHeld {
			r.out.Disengage(p, t.kc)
		}
	}
	r.keys = make(map[key.Pos]*tracked)
	r.order = r.order[:0]
}

func (r *Resolver) hold(pos key.Pos, t *tracked) {
	t.state = stateHeld
	r.out.Engage(pos, t.kc)
	r.done(pos, t.kc, Held)
}

func (r *Resolver) done(pos key.Pos, kc key.Keycode, res Resolution) {
	if r.onDone != nil {
		r.onDone(pos, kc, res)
	}
}

func (r *Resolver) forget(pos key.Pos) {
	delete(r.keys, pos)
	for i, p := range r.order {
		if p == pos {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
