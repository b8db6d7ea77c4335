package config

import "time"

// Section structs are plain values; Load fills them from viper.

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// TappingConfig configures dual-role keys.
type TappingConfig struct {
	// Term is how long a dual-role key must be held to act as hold.
	Term time.Duration `mapstructure:"term"`
}

// MuseConfig configures the ambient sequencer.
type MuseConfig struct {
	// Offset is the base MIDI note, 0-101.
	Offset int `mapstructure:"offset"`
	// Tempo is the number of scans per step, 1-255.
	Tempo int `mapstructure:"tempo"`
	// ScanInterval is the period of the scan tick.
	ScanInterval time.Duration `mapstructure:"scan_interval"`
}

// AudioConfig configures tone output.
type AudioConfig struct {
	// Enabled is the initial state of the audio gate.
	Enabled bool `mapstructure:"enabled"`
	// MIDIPort is the output port name. Empty disables MIDI output.
	MIDIPort string `mapstructure:"midi_port"`
	// Channel is the MIDI channel, 0-15.
	Channel int `mapstructure:"channel"`
	// BPM is the tempo of confirmation songs.
	BPM int `mapstructure:"bpm"`
}

// StorageConfig configures default-layer persistence.
type StorageConfig struct {
	// Driver is sqlite, postgres, mysql or memory.
	Driver string `mapstructure:"driver"`
	// DSN is the data source. For sqlite an empty DSN uses a file in the
	// user config directory.
	DSN string `mapstructure:"dsn"`
}

// HIDConfig configures the HID output.
type HIDConfig struct {
	// Device is the keyboard gadget, e.g. /dev/hidg0. Empty logs reports
	// instead of writing them.
	Device string `mapstructure:"device"`
	// Mouse is the optional mouse gadget, e.g. /dev/hidg1.
	Mouse string `mapstructure:"mouse"`
	// UnicodeMode is linux, mac or wincompose.
	UnicodeMode string `mapstructure:"unicode_mode"`
}

// LayoutConfig selects the layout.
type LayoutConfig struct {
	// File is a TOML layout. Empty uses the built-in layout.
	File string `mapstructure:"file"`
	// Watch reloads File when it changes.
	Watch bool `mapstructure:"watch"`
}

// BacklightConfig configures the backlight.
type BacklightConfig struct {
	// Levels is the number of brightness steps.
	Levels int `mapstructure:"levels"`
	// Path is an LED class brightness file. Empty disables the device.
	Path string `mapstructure:"path"`
	// AuxPath is the LED driven by the indicator signal.
	AuxPath string `mapstructure:"aux_path"`
	// Max is the device's max_brightness.
	Max int `mapstructure:"max"`
}

// MusicConfig configures music mode.
type MusicConfig struct {
	// StartNote is the note of the bottom-left key.
	StartNote int `mapstructure:"start_note"`
}

// SourceConfig selects where input comes from.
type SourceConfig struct {
	// Kind is terminal, midi or script.
	Kind string `mapstructure:"kind"`
	// Script is the replay file for the script source.
	Script string `mapstructure:"script"`
	// MIDIPort is a substring of the MIDI input port name.
	MIDIPort string `mapstructure:"midi_port"`
	// Hold is the synthesized key hold of the terminal source.
	Hold time.Duration `mapstructure:"hold"`
}

// HooksConfig configures the Lua hook script.
type HooksConfig struct {
	// Script is a Lua file run as a dispatcher hook. Empty disables hooks.
	Script string `mapstructure:"script"`
	// Timeout bounds each handler call.
	Timeout time.Duration `mapstructure:"timeout"`
}
