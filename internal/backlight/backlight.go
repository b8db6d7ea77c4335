package backlight

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/dshills/keyweave/internal/logging"
)

// DefaultLevels is the number of brightness steps above off.
const DefaultLevels = 3

// ErrLevels is returned for a non-positive level count.
var ErrLevels = errors.New("backlight levels must be positive")

// Device receives brightness and indicator changes.
type Device interface {
	SetBrightness(level, max int) error
	SetAux(on bool) error
}

// Backlight is a stepped brightness with an auxiliary indicator signal.
type Backlight struct {
	mu     sync.Mutex
	levels int
	level  int
	aux    bool
	device Device
	logger *logging.Logger
}

// New creates a backlight with levels steps above off. device may be nil.
func New(levels int, device Device, logger *logging.Logger) (*Backlight, error) {
	if levels <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrLevels, levels)
	}
	return &Backlight{
		levels: levels,
		device: device,
		logger: logging.OrDiscard(logger).WithComponent("backlight"),
	}, nil
}

// StepBrightness advances to the next level, wrapping from the brightest
// back to off.
func (b *Backlight) StepBrightness() {
	b.mu.Lock()
	b.level++
	if b.level > b.levels {
		b.level = 0
	}
	level := b.level
	b.mu.Unlock()

	b.logger.Debug("step", "level", level, "max", b.levels)
	if b.device != nil {
		if err := b.device.SetBrightness(level, b.levels); err != nil {
			b.logger.Error("set brightness", "level", level, "err", err)
		}
	}
}

// SetAuxSignal turns the indicator on or off.
func (b *Backlight) SetAuxSignal(on bool) {
	b.mu.Lock()
	changed := b.aux != on
	b.aux = on
	b.mu.Unlock()

	if !changed {
		return
	}
	b.logger.Debug("aux", "on", on)
	if b.device != nil {
		if err := b.device.SetAux(on); err != nil {
			b.logger.Error("set aux", "on", on, "err", err)
		}
	}
}

// Level returns the current brightness step, 0 meaning off.
func (b *Backlight) Level() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.level
}

// Levels returns the number of steps above off.
func (b *Backlight) Levels() int {
	return b.levels
}

// Aux reports whether the indicator signal is on.
func (b *Backlight) Aux() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.aux
}

// Nop is an indicator that does nothing.
type Nop struct{}

// StepBrightness implements the indicator interface.
func (Nop) StepBrightness() {}

// SetAuxSignal implements the indicator interface.
func (Nop) SetAuxSignal(bool) {}

// FileDevice writes to Linux LED class brightness files.
// Brightness is scaled from the step range to Max.
type FileDevice struct {
	// BrightnessPath is e.g. /sys/class/leds/kbd_backlight/brightness.
	BrightnessPath string
	// AuxPath is an optional second LED for the indicator signal.
	AuxPath string
	// Max is the device's max_brightness.
	Max int
}

// SetBrightness implements Device.
func (d FileDevice) SetBrightness(level, max int) error {
	if d.BrightnessPath == "" || max <= 0 {
		return nil
	}
	return writeValue(d.BrightnessPath, level*d.Max/max)
}

// SetAux implements Device.
func (d FileDevice) SetAux(on bool) error {
	if d.AuxPath == "" {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	return writeValue(d.AuxPath, v)
}

func writeValue(path string, v int) error {
	if err := os.WriteFile(path, []byte(strconv.Itoa(v)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
