package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dshills/keyweave/internal/hid"
	"github.com/dshills/keyweave/internal/logging"
)

// FileName is the config file base name searched for by Load.
const FileName = "keyweave.toml"

// EnvPrefix prefixes environment overrides, e.g. KEYWEAVE_MUSE_TEMPO.
const EnvPrefix = "keyweave"

// Source kinds.
const (
	SourceTerminal = "terminal"
	SourceMIDI     = "midi"
	SourceScript   = "script"
)

// Storage drivers accepted in storage.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Config is the complete runtime configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Tapping   TappingConfig   `mapstructure:"tapping"`
	Muse      MuseConfig      `mapstructure:"muse"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Storage   StorageConfig   `mapstructure:"storage"`
	HID       HIDConfig       `mapstructure:"hid"`
	Layout    LayoutConfig    `mapstructure:"layout"`
	Backlight BacklightConfig `mapstructure:"backlight"`
	Music     MusicConfig     `mapstructure:"music"`
	Source    SourceConfig    `mapstructure:"source"`
	Hooks     HooksConfig     `mapstructure:"hooks"`

	// Path is the file the configuration was read from, if any.
	Path string `mapstructure:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info"},
		Tapping:   TappingConfig{Term: 200 * time.Millisecond},
		Muse:      MuseConfig{Offset: 70, Tempo: 50, ScanInterval: time.Millisecond},
		Audio:     AudioConfig{Enabled: true, Channel: 0, BPM: 120},
		Storage:   StorageConfig{Driver: DriverSQLite},
		HID:       HIDConfig{UnicodeMode: "linux"},
		Layout:    LayoutConfig{},
		Backlight: BacklightConfig{Levels: 3, Max: 255},
		Music:     MusicConfig{StartNote: 48},
		Source:    SourceConfig{Kind: SourceTerminal, Hold: 20 * time.Millisecond},
		Hooks:     HooksConfig{Timeout: 20 * time.Millisecond},
	}
}

// Settings returns every setting keyed by its dotted path. Durations are
// rendered as strings so the map round-trips through TOML.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"log.level":          c.Log.Level,
		"tapping.term":       c.Tapping.Term.String(),
		"muse.offset":        c.Muse.Offset,
		"muse.tempo":         c.Muse.Tempo,
		"muse.scan_interval": c.Muse.ScanInterval.String(),
		"audio.enabled":      c.Audio.Enabled,
		"audio.midi_port":    c.Audio.MIDIPort,
		"audio.channel":      c.Audio.Channel,
		"audio.bpm":          c.Audio.BPM,
		"storage.driver":     c.Storage.Driver,
		"storage.dsn":        c.Storage.DSN,
		"hid.device":         c.HID.Device,
		"hid.mouse":          c.HID.Mouse,
		"hid.unicode_mode":   c.HID.UnicodeMode,
		"layout.file":        c.Layout.File,
		"layout.watch":       c.Layout.Watch,
		"backlight.levels":   c.Backlight.Levels,
		"backlight.path":     c.Backlight.Path,
		"backlight.aux_path": c.Backlight.AuxPath,
		"backlight.max":      c.Backlight.Max,
		"music.start_note":   c.Music.StartNote,
		"source.kind":        c.Source.Kind,
		"source.script":      c.Source.Script,
		"source.midi_port":   c.Source.MIDIPort,
		"source.hold":        c.Source.Hold.String(),
		"hooks.script":       c.Hooks.Script,
		"hooks.timeout":      c.Hooks.Timeout.String(),
	}
}

// flagKeys maps command line flags to settings.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"tapping-term":   "tapping.term",
	"layout":         "layout.file",
	"watch":          "layout.watch",
	"storage-driver": "storage.driver",
	"storage-dsn":    "storage.dsn",
	"midi-out":       "audio.midi_port",
	"hid-device":     "hid.device",
	"source":         "source.kind",
	"script":         "source.script",
	"midi-in":        "source.midi_port",
	"hooks":          "hooks.script",
}

// RegisterFlags adds the flags Load understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.Duration("tapping-term", d.Tapping.Term, "dual-role key hold threshold")
	fs.String("layout", d.Layout.File, "TOML layout file (default: built-in)")
	fs.Bool("watch", d.Layout.Watch, "reload the layout file when it changes")
	fs.String("storage-driver", d.Storage.Driver, "sqlite, postgres, mysql or memory")
	fs.String("storage-dsn", d.Storage.DSN, "storage data source name")
	fs.String("midi-out", d.Audio.MIDIPort, "MIDI output port for tones")
	fs.String("hid-device", d.HID.Device, "HID keyboard gadget device")
	fs.String("source", d.Source.Kind, "input source (terminal, midi, script)")
	fs.String("script", d.Source.Script, "replay script for --source script")
	fs.String("midi-in", d.Source.MIDIPort, "MIDI input port for --source midi")
	fs.String("hooks", d.Hooks.Script, "Lua hook script")
}

// Load resolves the configuration from defaults, the config file, the
// environment and flags, then validates it. path names an explicit config
// file; when empty keyweave.toml is searched for in the user config
// directory and the working directory. flags may be nil.
func Load(flags *pflag.FlagSet, path string) (*Config, error) {
	v := viper.New()

	for key, value := range Default().Settings() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("toml")
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
		}
		v.SetConfigFile(path)
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, &ParseError{Path: v.ConfigFileUsed(), Message: err.Error(), Err: err}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var c Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.UnmarshalExact(&c, hooks); err != nil {
		return nil, &ParseError{Path: v.ConfigFileUsed(), Message: err.Error(), Err: err}
	}
	c.Path = v.ConfigFileUsed()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		bad("log.level", "must be debug, info, warn or error", c.Log.Level, ErrCodeInvalidEnum)
	}
	if c.Tapping.Term <= 0 || c.Tapping.Term > 5*time.Second {
		bad("tapping.term", "must be positive and at most 5s", c.Tapping.Term, ErrCodeOutOfRange)
	}
	if c.Muse.Offset < 0 || c.Muse.Offset > 127-26 {
		bad("muse.offset", "must be between 0 and 101", c.Muse.Offset, ErrCodeOutOfRange)
	}
	if c.Muse.Tempo < 1 || c.Muse.Tempo > 255 {
		bad("muse.tempo", "must be between 1 and 255", c.Muse.Tempo, ErrCodeOutOfRange)
	}
	if c.Muse.ScanInterval <= 0 {
		bad("muse.scan_interval", "must be positive", c.Muse.ScanInterval, ErrCodeOutOfRange)
	}
	if c.Audio.Channel < 0 || c.Audio.Channel > 15 {
		bad("audio.channel", "must be between 0 and 15", c.Audio.Channel, ErrCodeOutOfRange)
	}
	if c.Audio.BPM <= 0 {
		bad("audio.bpm", "must be positive", c.Audio.BPM, ErrCodeOutOfRange)
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres, DriverMySQL:
		if c.Storage.DSN == "" {
			bad("storage.dsn", "is required for "+c.Storage.Driver, c.Storage.DSN, ErrCodeRequiredMissing)
		}
	default:
		bad("storage.driver", "must be sqlite, postgres, mysql or memory", c.Storage.Driver, ErrCodeInvalidEnum)
	}

	if _, err := hid.ParseUnicodeMode(c.HID.UnicodeMode); err != nil {
		bad("hid.unicode_mode", "must be linux, mac or wincompose", c.HID.UnicodeMode, ErrCodeInvalidEnum)
	}
	if c.Layout.Watch && c.Layout.File == "" {
		bad("layout.watch", "requires layout.file", c.Layout.Watch, ErrCodeRequiredMissing)
	}
	if c.Backlight.Levels <= 0 {
		bad("backlight.levels", "must be positive", c.Backlight.Levels, ErrCodeOutOfRange)
	}
	if c.Backlight.Max <= 0 {
		bad("backlight.max", "must be positive", c.Backlight.Max, ErrCodeOutOfRange)
	}
	// 60 keys above the start note must stay valid MIDI notes.
	if c.Music.StartNote < 0 || c.Music.StartNote > 127-59 {
		bad("music.start_note", "must be between 0 and 68", c.Music.StartNote, ErrCodeOutOfRange)
	}

	switch c.Source.Kind {
	case SourceTerminal, SourceMIDI:
	case SourceScript:
		if c.Source.Script == "" {
			bad("source.script", "is required for the script source", c.Source.Script, ErrCodeRequiredMissing)
		}
	default:
		bad("source.kind", "must be terminal, midi or script", c.Source.Kind, ErrCodeInvalidEnum)
	}
	if c.Source.Hold <= 0 {
		bad("source.hold", "must be positive", c.Source.Hold, ErrCodeOutOfRange)
	}
	if c.Hooks.Timeout <= 0 || c.Hooks.Timeout > time.Second {
		bad("hooks.timeout", "must be positive and at most 1s", c.Hooks.Timeout, ErrCodeOutOfRange)
	}

	return errors.Join(errs...)
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() logging.Level {
	level, _ := logging.ParseLevel(c.Log.Level)
	return level
}

// UnicodeMode returns the parsed unicode input mode.
func (c *Config) UnicodeMode() hid.UnicodeMode {
	mode, _ := hid.ParseUnicodeMode(c.HID.UnicodeMode)
	return mode
}

// StorageDSN returns the data source, filling in the default sqlite file.
func (c *Config) StorageDSN() (string, error) {
	if c.Storage.DSN != "" || c.Storage.Driver != DriverSQLite {
		return c.Storage.DSN, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "keyweave.db"), nil
}

// Dir returns the user configuration directory of keyweave.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(base, "keyweave"), nil
}

// Marshal encodes the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	tree := make(map[string]map[string]any)
	for path, value := range c.Settings() {
		section, name, _ := strings.Cut(path, ".")
		if tree[section] == nil {
			tree[section] = make(map[string]any)
		}
		tree[section][name] = value
	}
	return toml.Marshal(tree)
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
