package key

import (
	"fmt"
	"time"
)

// Pos is a physical matrix position.
type Pos struct {
	Row int
	Col int
}

// String returns "r,c".
func (p Pos) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// Event is a physical key transition delivered by the event source.
type Event struct {
	// Pos is the matrix position of the key.
	Pos Pos

	// Pressed is true for key-down, false for key-up.
	Pressed bool

	// Time is when the transition was observed.
	Time time.Time
}

// NewEvent creates an event at the given position and time.
func NewEvent(row, col int, pressed bool, at time.Time) Event {
	return Event{
		Pos:     Pos{Row: row, Col: col},
		Pressed: pressed,
		Time:    at,
	}
}

// Press creates a key-down event.
func Press(row, col int, at time.Time) Event {
	return NewEvent(row, col, true, at)
}

// Release creates a key-up event.
func Release(row, col int, at time.Time) Event {
	return NewEvent(row, col, false, at)
}

// String returns a canonical string representation like "press 2,3".
func (e Event) String() string {
	if e.Pressed {
		return "press " + e.Pos.String()
	}
	return "release " + e.Pos.String()
}
