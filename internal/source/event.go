package source

import (
	"context"
	"fmt"
	"time"

	"github.com/dshills/keyweave/internal/input/key"
)

// Kind tags the variant held by an Event.
type Kind uint8

const (
	// KindKey is a key matrix transition.
	KindKey Kind = iota
	// KindRotate is one encoder detent.
	KindRotate
	// KindSwitch is a dip switch change.
	KindSwitch
	// KindScan is one matrix scan tick. Only scripts emit it; live runs use
	// a ticker.
	KindScan
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindKey:
		return "key"
	case KindRotate:
		return "rotate"
	case KindSwitch:
		return "switch"
	case KindScan:
		return "scan"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Event is one input delivered by a source.
type Event struct {
	Kind Kind

	// Key is set for KindKey.
	Key key.Event

	// Clockwise is set for KindRotate.
	Clockwise bool

	// Switch and On are set for KindSwitch.
	Switch int
	On     bool

	// Time is when the input was observed.
	Time time.Time
}

// KeyEvent wraps a key transition.
func KeyEvent(ev key.Event) Event {
	return Event{Kind: KindKey, Key: ev, Time: ev.Time}
}

// RotateEvent creates an encoder event.
func RotateEvent(clockwise bool, at time.Time) Event {
	return Event{Kind: KindRotate, Clockwise: clockwise, Time: at}
}

// SwitchEvent creates a dip switch event.
func SwitchEvent(index int, on bool, at time.Time) Event {
	return Event{Kind: KindSwitch, Switch: index, On: on, Time: at}
}

// ScanEvent creates a scan tick.
func ScanEvent(at time.Time) Event {
	return Event{Kind: KindScan, Time: at}
}

// String returns a short description like "press 2,3" or "rotate cw".
func (e Event) String() string {
	switch e.Kind {
	case KindKey:
		return e.Key.String()
	case KindRotate:
		if e.Clockwise {
			return "rotate cw"
		}
		return "rotate ccw"
	case KindSwitch:
		state := "off"
		if e.On {
			state = "on"
		}
		return fmt.Sprintf("switch %d %s", e.Switch, state)
	default:
		return e.Kind.String()
	}
}

// Source produces events until ctx is done or its input ends.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Run delivers events to out. It blocks and returns nil when the
	// input ends or ctx is cancelled.
	Run(ctx context.Context, out chan<- Event) error
}

// deliver sends ev unless ctx is done first.
func deliver(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
