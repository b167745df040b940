// Package config loads the xforward file configuration (YAML or TOML) and
// watches it for changes.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/trickstertwo/xforward"
	"github.com/trickstertwo/xforward/destination"
	"github.com/trickstertwo/xforward/format"
	"github.com/trickstertwo/xforward/settings"
)

var (
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
	ErrInvalid           = errors.New("config: invalid")
)

// File is the top-level configuration document.
type File struct {
	Node         string          `yaml:"node" toml:"node"`
	Log          Log             `yaml:"log" toml:"log"`
	Store        settings.Config `yaml:"store" toml:"store"`
	Destinations []Destination   `yaml:"destinations" toml:"destinations"`
	Adapters     []Adapter       `yaml:"adapters" toml:"adapters"`
}

// Log configures the process's own logger.
type Log struct {
	Backend string         `yaml:"backend" toml:"backend"` // zap | zerolog | slog
	Level   xforward.Level `yaml:"level" toml:"level"`
	Console bool           `yaml:"console" toml:"console"`
}

// Destination declares a named console destination.
type Destination struct {
	Name   string `yaml:"name" toml:"name"`
	Output string `yaml:"output" toml:"output"` // stdout (default), stderr or a file path
	Buffer int    `yaml:"buffer" toml:"buffer"`
}

// Adapter declares one forwarder. Unset fields leave the persisted setting
// untouched; destination "none" disables forwarding.
type Adapter struct {
	Name        string            `yaml:"name" toml:"name"`
	Level       *xforward.Level   `yaml:"level" toml:"level"`
	Destination *string           `yaml:"destination" toml:"destination"`
	Metadata    xforward.Metadata `yaml:"metadata" toml:"metadata"`
	Formatter   string            `yaml:"formatter" toml:"formatter"`
}

// Options converts a into settings overrides.
func (a Adapter) Options() (settings.Options, error) {
	var o settings.Options
	if a.Level != nil {
		o = o.WithLevel(*a.Level)
	}
	if a.Destination != nil {
		ref, err := destination.ParseRef(*a.Destination)
		if err != nil {
			return settings.Options{}, fmt.Errorf("%w: adapter %q: %w", ErrInvalid, a.Name, err)
		}
		o = o.WithDestination(ref)
	}
	if a.Metadata != nil {
		o = o.WithMetadata(a.Metadata)
	}
	if a.Formatter != "" {
		o = o.WithFormatter(format.FromName(a.Formatter))
	}
	return o, nil
}

// Default returns the configuration used when no file is given.
func Default() *File {
	return &File{
		Log:   Log{Backend: "zerolog", Level: xforward.LevelInfo},
		Store: settings.Config{Backend: settings.BackendMemory},
	}
}

// Load reads path, choosing the decoder by extension (.yaml, .yml, .toml).
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(filepath.Ext(path), b)
}

// Parse decodes b in the format named by ext and validates the result.
func Parse(ext string, b []byte) (*File, error) {
	f := Default()
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: yaml: %w", err)
		}
	case "toml":
		md, err := toml.Decode(string(b), f)
		if err != nil {
			return nil, fmt.Errorf("config: toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown toml keys %v", ErrInvalid, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks names and references.
func (f *File) Validate() error {
	switch f.Log.Backend {
	case "", "zap", "zerolog", "slog":
	default:
		return fmt.Errorf("%w: log backend %q", ErrInvalid, f.Log.Backend)
	}
	dests := make(map[string]bool, len(f.Destinations))
	for _, d := range f.Destinations {
		if d.Name == "" {
			return fmt.Errorf("%w: destination without name", ErrInvalid)
		}
		if dests[d.Name] {
			return fmt.Errorf("%w: duplicate destination %q", ErrInvalid, d.Name)
		}
		dests[d.Name] = true
	}
	seen := make(map[string]bool, len(f.Adapters))
	for _, a := range f.Adapters {
		if a.Name == "" {
			return fmt.Errorf("%w: adapter without name", ErrInvalid)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate adapter %q", ErrInvalid, a.Name)
		}
		seen[a.Name] = true
		if _, err := a.Options(); err != nil {
			return err
		}
	}
	return nil
}

// Adapter returns the adapter declared under name.
func (f *File) Adapter(name string) (Adapter, bool) {
	for _, a := range f.Adapters {
		if a.Name == name {
			return a, true
		}
	}
	return Adapter{}, false
}
