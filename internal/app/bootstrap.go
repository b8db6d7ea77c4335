package app

import (
	"fmt"
	"io"
	"os"

	"github.com/dshills/keyweave/internal/audio"
	"github.com/dshills/keyweave/internal/backlight"
	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/input"
	"github.com/dshills/keyweave/internal/input/keymap"
	"github.com/dshills/keyweave/internal/input/luahook"
	"github.com/dshills/keyweave/internal/logging"
	"github.com/dshills/keyweave/internal/muse"
	"github.com/dshills/keyweave/internal/source"
	"github.com/dshills/keyweave/internal/storage"
)

// Options overrides parts of the runtime built from configuration.
type Options struct {
	// LogOutput receives log lines. Default: os.Stderr
	LogOutput io.Writer

	// HID replaces the configured HID device.
	HID hid.Reporter

	// Tone replaces the configured MIDI output.
	Tone audio.Tone

	// Indicator replaces the configured backlight.
	Indicator input.Indicator

	// Pulser replaces the sequencer clock.
	Pulser muse.Pulser
}

// Runtime is a fully wired engine with the backends it owns.
type Runtime struct {
	Config    *config.Config
	Logger    *logging.Logger
	Layout    *keymap.Keymap
	Store     storage.Backend
	Persister *storage.Persister
	Tone      audio.Tone
	HID       hid.Reporter
	Indicator input.Indicator
	Engine    *Engine
	Watcher   *keymap.Watcher
	Recorder  *source.Recorder
	Hook      *luahook.Hook

	closers []namedCloser
}

// Build creates every component described by cfg. On failure the
// components created so far are closed and an *InitError is returned.
func Build(cfg *config.Config, opts Options) (_ *Runtime, err error) {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := logging.New(logging.Config{
		Level:      cfg.LogLevel(),
		Output:     out,
		Prefix:     "keyweave",
		Timestamps: true,
	})

	r := &Runtime{
		Config:   cfg,
		Logger:   logger,
		Recorder: source.NewRecorder(),
	}
	defer func() {
		if err != nil {
			_ = r.Close()
		}
	}()

	steps := []struct {
		name string
		fn   func(Options) error
	}{
		{"layout", r.initLayout},
		{"storage", r.initStorage},
		{"audio", r.initAudio},
		{"hid", r.initHID},
		{"backlight", r.initBacklight},
		{"hooks", r.initHooks},
		{"engine", r.initEngine},
	}
	for _, s := range steps {
		if stepErr := s.fn(opts); stepErr != nil {
			return nil, &InitError{Component: s.name, Err: stepErr}
		}
	}
	logger.Info("runtime ready",
		"layout", r.Layout.Name,
		"storage", cfg.Storage.Driver,
		"default", r.Engine.Status().Default,
	)
	return r, nil
}

func (r *Runtime) addCloser(name string, fn func() error) {
	r.closers = append(r.closers, namedCloser{name: name, close: fn})
}

func (r *Runtime) initLayout(Options) error {
	if r.Config.Layout.File == "" {
		r.Layout = keymap.Default()
		return nil
	}
	km, err := keymap.NewLoader().LoadFile(r.Config.Layout.File)
	if err != nil {
		return err
	}
	r.Layout = km

	if r.Config.Layout.Watch {
		w, err := keymap.NewWatcher(r.Config.Layout.File, keymap.DefaultDebounce)
		if err != nil {
			return err
		}
		r.Watcher = w
		r.addCloser("watcher", w.Close)
	}
	return nil
}

func (r *Runtime) initStorage(Options) error {
	driver := r.Config.Storage.Driver
	if driver == config.DriverMemory {
		r.Store = storage.NewMemory()
	} else {
		dsn, err := r.Config.StorageDSN()
		if err != nil {
			return err
		}
		store, err := storage.Open(driver, dsn, r.Logger)
		if err != nil {
			return err
		}
		r.Store = store
		r.addCloser("storage", store.Close)
	}
	r.Persister = storage.NewPersister(r.Store, r.Logger)
	r.addCloser("persister", r.Persister.Close)
	return nil
}

func (r *Runtime) initAudio(opts Options) error {
	switch {
	case opts.Tone != nil:
		r.Tone = opts.Tone
	case r.Config.Audio.MIDIPort != "":
		tone, err := audio.OpenMIDITone(r.Config.Audio.MIDIPort, uint8(r.Config.Audio.Channel), r.Config.Audio.BPM, r.Logger)
		if err != nil {
			return err
		}
		r.Tone = tone
		r.addCloser("midi", tone.Close)
	default:
		r.Tone = audio.Silent{}
	}
	return nil
}

func (r *Runtime) initHID(opts Options) error {
	if opts.HID != nil {
		r.HID = opts.HID
		return nil
	}

	var out, mouse io.Writer
	if path := r.Config.HID.Device; path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open hid device: %w", err)
		}
		r.addCloser("hid", f.Close)
		out = f
	} else {
		out = reportLogger{logger: r.Logger.WithComponent("hid"), kind: "keyboard"}
	}
	if path := r.Config.HID.Mouse; path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open hid mouse: %w", err)
		}
		r.addCloser("hid-mouse", f.Close)
		mouse = f
	} else if r.Config.HID.Device == "" {
		mouse = reportLogger{logger: r.Logger.WithComponent("hid"), kind: "mouse"}
	}
	r.HID = hid.NewKeyboard(out, mouse, r.Config.UnicodeMode(), r.Logger)
	return nil
}

func (r *Runtime) initBacklight(opts Options) error {
	if opts.Indicator != nil {
		r.Indicator = opts.Indicator
		return nil
	}
	var device backlight.Device
	if r.Config.Backlight.Path != "" {
		device = backlight.FileDevice{
			BrightnessPath: r.Config.Backlight.Path,
			AuxPath:        r.Config.Backlight.AuxPath,
			Max:            r.Config.Backlight.Max,
		}
	}
	bl, err := backlight.New(r.Config.Backlight.Levels, device, r.Logger)
	if err != nil {
		return err
	}
	r.Indicator = bl
	return nil
}

func (r *Runtime) initHooks(Options) error {
	if r.Config.Hooks.Script == "" {
		return nil
	}
	hook, err := luahook.Load(r.Config.Hooks.Script, r.HID, luahook.Config{Timeout: r.Config.Hooks.Timeout}, r.Logger)
	if err != nil {
		return err
	}
	r.Hook = hook
	r.addCloser("hooks", hook.Close)
	r.Logger.Info("hook script loaded", "path", r.Config.Hooks.Script)
	return nil
}

func (r *Runtime) initEngine(opts Options) error {
	cfg := DefaultConfig()
	cfg.Input.TappingTerm = r.Config.Tapping.Term
	cfg.Input.MusicStart = r.Config.Music.StartNote
	cfg.Input.AudioEnabled = r.Config.Audio.Enabled
	cfg.Muse.Offset = r.Config.Muse.Offset
	cfg.Muse.Tempo = r.Config.Muse.Tempo

	deps := Deps{
		HID:       r.HID,
		Tone:      r.Tone,
		Indicator: r.Indicator,
		Persister: r.Persister,
		Pulser:    opts.Pulser,
		Logger:    r.Logger,
	}
	if r.Logger.Enabled(logging.LevelDebug) {
		deps.Hooks = append(deps.Hooks, input.HookRegistration{
			Name:     "trace",
			Priority: input.HookPriorityHighest,
			Hook:     input.LoggingHook{Logger: r.Logger.WithComponent("trace")},
		})
	}
	if r.Hook != nil {
		deps.Hooks = append(deps.Hooks, input.HookRegistration{
			Name:     "lua:" + r.Hook.Name(),
			Priority: input.HookPriorityNormal,
			Hook:     r.Hook,
		})
	}
	engine, err := NewEngine(r.Layout, cfg, deps)
	if err != nil {
		return err
	}
	engine.Restore()
	r.Engine = engine
	r.addCloser("engine", func() error {
		engine.Close()
		return nil
	})
	return nil
}

// Source creates the event source selected by the configuration.
// The caller owns the returned source; terminals must be shut down.
func (r *Runtime) Source() (source.Source, error) {
	switch r.Config.Source.Kind {
	case config.SourceTerminal:
		term, err := source.OpenTerminal(source.TerminalConfig{
			Hold:  r.Config.Source.Hold,
			Title: "keyweave " + r.Layout.Name,
		})
		if err != nil {
			return nil, &InitError{Component: "source", Err: err}
		}
		r.Engine.OnStatus(func(st Status) { term.SetStatus(st.String()) })
		term.SetStatus(r.Engine.Status().String())
		return term, nil

	case config.SourceMIDI:
		grid, err := source.OpenMIDIGrid(r.Config.Source.MIDIPort, source.DefaultGridConfig(), r.Logger)
		if err != nil {
			return nil, &InitError{Component: "source", Err: err}
		}
		return grid, nil

	case config.SourceScript:
		script, err := source.LoadScript(r.Config.Source.Script)
		if err != nil {
			return nil, &InitError{Component: "source", Err: err}
		}
		return source.NewPlayer(script), nil
	}
	return nil, &InitError{Component: "source", Err: fmt.Errorf("unknown source kind %q", r.Config.Source.Kind)}
}

// Loop creates a loop driving the engine from sources. Scan ticks are
// generated unless a script source supplies its own.
func (r *Runtime) Loop(sources ...source.Source) *Loop {
	scan := r.Config.Muse.ScanInterval
	for _, s := range sources {
		if _, ok := s.(*source.Player); ok {
			scan = 0
		}
	}
	return NewLoop(r.Engine, LoopConfig{
		ScanInterval: scan,
		Watcher:      r.Watcher,
		Recorder:     r.Recorder,
	}, r.Logger, sources...)
}

// Close stops every component in reverse creation order. Pending
// default-layer writes are flushed before storage closes.
func (r *Runtime) Close() error {
	closers := r.closers
	r.closers = nil
	return closeAll(closers)
}

// reportLogger logs HID reports when no gadget device is configured.
type reportLogger struct {
	logger *logging.Logger
	kind   string
}

func (w reportLogger) Write(p []byte) (int, error) {
	w.logger.Debug("report", "kind", w.kind, "bytes", fmt.Sprintf("% x", p))
	return len(p), nil
}
