package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/keyweave/internal/input/key"
)

// Script errors
var (
	ErrEmptyScript = errors.New("script has no steps")
	ErrBadStep     = errors.New("invalid script step")
)

// Script timing defaults.
const (
	// DefaultTapHold is how long a tap step holds its key.
	DefaultTapHold = 10 * time.Millisecond

	// DefaultStepGap separates consecutive key steps.
	DefaultStepGap = time.Millisecond

	// DefaultScanInterval separates scan ticks of a scan step.
	DefaultScanInterval = time.Millisecond
)

// SwitchStep sets a dip switch.
type SwitchStep struct {
	Index int  `yaml:"index"`
	On    bool `yaml:"on"`
}

// Step is one script instruction. Exactly one field may be set.
type Step struct {
	Press   []int         `yaml:"press,flow,omitempty"`
	Release []int         `yaml:"release,flow,omitempty"`
	Tap     []int         `yaml:"tap,flow,omitempty"`
	Rotate  string        `yaml:"rotate,omitempty"`
	Switch  *SwitchStep   `yaml:"switch,omitempty,flow"`
	Wait    time.Duration `yaml:"wait,omitempty"`
	Scan    int           `yaml:"scan,omitempty"`
}

// Script is a replayable sequence of inputs.
//
//	name: select hack
//	steps:
//	  - press: [4, 4]
//	  - press: [4, 7]
//	  - tap: [2, 1]
//	  - release: [4, 7]
//	  - release: [4, 4]
//	  - switch: {index: 1, on: true}
//	  - scan: 100
type Script struct {
	Name string `yaml:"name,omitempty"`

	// TapHold overrides DefaultTapHold.
	TapHold time.Duration `yaml:"tap_hold,omitempty"`

	// StepGap overrides DefaultStepGap.
	StepGap time.Duration `yaml:"step_gap,omitempty"`

	// ScanInterval overrides DefaultScanInterval.
	ScanInterval time.Duration `yaml:"scan_interval,omitempty"`

	Steps []Step `yaml:"steps"`
}

// ParseScript decodes and validates a YAML script.
func ParseScript(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyScript
		}
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScript reads and parses a script file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return s, nil
}

// Marshal encodes the script as YAML.
func (s *Script) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks every step.
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}
	var errs []error
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

func (st Step) validate() error {
	set := 0
	for _, ok := range []bool{
		st.Press != nil, st.Release != nil, st.Tap != nil,
		st.Rotate != "", st.Switch != nil, st.Wait != 0, st.Scan != 0,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: want exactly one instruction, got %d", ErrBadStep, set)
	}

	for _, p := range [][]int{st.Press, st.Release, st.Tap} {
		if p != nil && (len(p) != 2 || p[0] < 0 || p[1] < 0) {
			return fmt.Errorf("%w: position must be [row, col], got %v", ErrBadStep, p)
		}
	}
	if st.Rotate != "" {
		if _, err := parseDirection(st.Rotate); err != nil {
			return err
		}
	}
	if st.Wait < 0 {
		return fmt.Errorf("%w: negative wait %s", ErrBadStep, st.Wait)
	}
	if st.Scan < 0 {
		return fmt.Errorf("%w: negative scan count %d", ErrBadStep, st.Scan)
	}
	return nil
}

func parseDirection(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cw", "clockwise", "down":
		return true, nil
	case "ccw", "counterclockwise", "up":
		return false, nil
	}
	return false, fmt.Errorf("%w: unknown rotation %q", ErrBadStep, s)
}

func (s *Script) tapHold() time.Duration {
	if s.TapHold > 0 {
		return s.TapHold
	}
	return DefaultTapHold
}

func (s *Script) stepGap() time.Duration {
	if s.StepGap > 0 {
		return s.StepGap
	}
	return DefaultStepGap
}

func (s *Script) scanInterval() time.Duration {
	if s.ScanInterval > 0 {
		return s.ScanInterval
	}
	return DefaultScanInterval
}

// Events expands the script into timestamped events on a virtual clock
// starting at start. The script must be valid.
func (s *Script) Events(start time.Time) []Event {
	var out []Event
	now := start
	gap := s.stepGap()

	for _, st := range s.Steps {
		switch {
		case st.Press != nil:
			out = append(out, KeyEvent(key.Press(st.Press[0], st.Press[1], now)))
			now = now.Add(gap)
		case st.Release != nil:
			out = append(out, KeyEvent(key.Release(st.Release[0], st.Release[1], now)))
			now = now.Add(gap)
		case st.Tap != nil:
			out = append(out, KeyEvent(key.Press(st.Tap[0], st.Tap[1], now)))
			now = now.Add(s.tapHold())
			out = append(out, KeyEvent(key.Release(st.Tap[0], st.Tap[1], now)))
			now = now.Add(gap)
		case st.Rotate != "":
			cw, _ := parseDirection(st.Rotate)
			out = append(out, RotateEvent(cw, now))
			now = now.Add(gap)
		case st.Switch != nil:
			out = append(out, SwitchEvent(st.Switch.Index, st.Switch.On, now))
			now = now.Add(gap)
		case st.Wait > 0:
			now = now.Add(st.Wait)
		case st.Scan > 0:
			for i := 0; i < st.Scan; i++ {
				out = append(out, ScanEvent(now))
				now = now.Add(s.scanInterval())
			}
		}
	}
	return out
}

// Duration returns the virtual length of the script.
func (s *Script) Duration() time.Duration {
	start := time.Time{}
	events := s.Events(start)
	if len(events) == 0 {
		return 0
	}
	return events[len(events)-1].Time.Sub(start)
}

// Player replays a script in real time as a Source.
type Player struct {
	script *Script
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) bool
}

// NewPlayer creates a real-time player for script.
func NewPlayer(script *Script) *Player {
	return &Player{
		script: script,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Name returns the script name.
func (p *Player) Name() string {
	if p.script.Name != "" {
		return "script:" + p.script.Name
	}
	return "script"
}

// Run delivers the script's events, sleeping between them so the original
// spacing is kept. Events are stamped with the wall clock.
func (p *Player) Run(ctx context.Context, out chan<- Event) error {
	events := p.script.Events(time.Time{})
	var last time.Time
	for i, ev := range events {
		if i > 0 {
			if !p.sleep(ctx, ev.Time.Sub(last)) {
				return nil
			}
		}
		last = ev.Time

		at := p.now()
		ev.Time = at
		ev.Key.Time = at
		if !deliver(ctx, out, ev) {
			return nil
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
