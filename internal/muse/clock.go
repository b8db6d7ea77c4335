package muse

// Pulser yields indexes into Scale.
type Pulser interface {
	Pulse() int
}

// PulserFunc adapts a function to Pulser.
type PulserFunc func() int

// Pulse implements Pulser.
func (f PulserFunc) Pulse() int { return f() }

// Scale is two octaves of the major scale in semitones above the offset.
var Scale = [16]int{0, 2, 4, 5, 7, 9, 11, 12, 14, 16, 17, 19, 21, 23, 24, 26}

// MaxInterval is the largest value in Scale.
const MaxInterval = 26

// Tap sources feeding the clock. The first two are constants, the next
// seven read the short counters and the rest read bits of the shift
// register.
type tap uint8

const (
	tapOff tap = iota
	tapOn
	tapHalf
	tapC1
	tapC2
	tapC4
	tapC8
	tapC3
	tapC6
	tapB1
)

// tapB returns the tap reading bit n-1 of the shift register.
func tapB(n int) tap { return tapB1 + tap(n-1) }

// parity maps a 4-bit value to its even-parity bit.
var parity = [16]bool{
	true, false, false, true, false, true, true, false,
	false, true, true, false, true, false, false, true,
}

var (
	intervalTaps = [4]tap{tapB(7), tapB(19), tapB(3), tapB(28)}
	themeTaps    = [4]tap{tapB(8), tapB(23), tapB(18), tapB(17)}
)

// Clock is a feedback shift register clocked every second pulse. Its
// output wanders through Scale without repeating quickly. The zero value
// is ready to use and always produces the same sequence.
type Clock struct {
	half    uint8
	two     uint8
	twoDiv  uint8
	four    uint8
	shifter uint32
}

// NewClock returns a clock at its initial state.
func NewClock() *Clock {
	return &Clock{}
}

// Pulse advances the clock and returns a value in [0, 15].
func (c *Clock) Pulse() int {
	top := parity[c.read(themeTaps[0])|
		c.read(themeTaps[1])<<1|
		c.read(themeTaps[2])<<2|
		c.read(themeTaps[3])<<3]

	if c.half == 0 {
		if c.twoDiv == 0 {
			c.two = (c.two + 1) % 4
		}
		c.twoDiv = (c.twoDiv + 1) % 3
		c.four = (c.four + 1) % 16
		c.shifter <<= 1
		if top {
			c.shifter |= 1
		}
	}
	c.half = (c.half + 1) % 2

	return int(c.read(intervalTaps[0]) |
		c.read(intervalTaps[1])<<1 |
		c.read(intervalTaps[2])<<2 |
		c.read(intervalTaps[3])<<3)
}

// Reset returns the clock to its initial state.
func (c *Clock) Reset() {
	*c = Clock{}
}

// read returns the current bit (0 or 1) of a tap.
func (c *Clock) read(t tap) uint8 {
	var on bool
	switch t {
	case tapOff:
		on = false
	case tapOn:
		on = true
	case tapHalf:
		on = c.half != 0
	case tapC1:
		on = c.four&1 != 0
	case tapC2:
		on = c.four&2 != 0
	case tapC4:
		on = c.four&4 != 0
	case tapC8:
		on = c.four&8 != 0
	case tapC3:
		on = c.two&1 != 0
	case tapC6:
		on = c.two&2 != 0
	default:
		on = c.shifter&(1<<(t-tapB1)) != 0
	}
	if on {
		return 1
	}
	return 0
}
