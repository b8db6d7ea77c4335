package keymap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// Ext is the layout file extension.
const Ext = ".toml"

// ParseError reports a layout file that is not valid TOML.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing keymap %s: %s", e.Path, e.Message)
}

// Unwrap returns the decoder error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader loads keymaps from layout files.
type Loader struct {
	// searchPaths are directories to search for layout files.
	searchPaths []string
}

// NewLoader creates a new keymap loader.
func NewLoader() *Loader {
	return &Loader{
		searchPaths: make([]string, 0),
	}
}

// AddSearchPath adds a directory to search for layout files.
func (l *Loader) AddSearchPath(path string) {
	l.searchPaths = append(l.searchPaths, path)
}

// LoadFile loads and validates a keymap from a TOML file.
func (l *Loader) LoadFile(path string) (*Keymap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening keymap file: %w", err)
	}
	defer f.Close()

	km, err := l.decode(path, f)
	if err != nil {
		return nil, err
	}
	km.Source = path
	return km, nil
}

// LoadReader loads and validates a keymap from a reader.
func (l *Loader) LoadReader(r io.Reader) (*Keymap, error) {
	return l.decode("<reader>", r)
}

func (l *Loader) decode(source string, r io.Reader) (*Keymap, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading keymap: %w", err)
	}

	var km Keymap
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&km); err != nil {
		msg := err.Error()
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			msg = fmt.Sprintf("line %d col %d: %s", row, col, derr.Error())
		}
		return nil, &ParseError{Path: source, Message: msg, Err: err}
	}
	if err := km.Validate(); err != nil {
		return nil, fmt.Errorf("keymap %s: %w", source, err)
	}
	return &km, nil
}

// Find returns the first layout file named name+Ext in the search paths.
func (l *Loader) Find(name string) (string, bool) {
	for _, dir := range l.searchPaths {
		path := filepath.Join(dir, name+Ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// LoadAll loads every layout file in the search paths. Files that fail
// to load are returned as a joined error alongside the good ones.
func (l *Loader) LoadAll() ([]*Keymap, error) {
	var (
		keymaps []*Keymap
		errs    []error
	)

	for _, dir := range l.searchPaths {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
		if err != nil {
			continue
		}
		sort.Strings(matches)

		for _, path := range matches {
			km, err := l.LoadFile(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			keymaps = append(keymaps, km)
		}
	}

	return keymaps, errors.Join(errs...)
}

// Marshal encodes the keymap as TOML.
func (k *Keymap) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(k); err != nil {
		return nil, fmt.Errorf("encoding keymap: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveFile writes the keymap to a TOML file.
func (k *Keymap) SaveFile(path string) error {
	data, err := k.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing keymap file: %w", err)
	}

	return nil
}
