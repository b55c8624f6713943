// Package config loads the editor's settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults
//  2. the TOML file at DefaultPath (or --config)
//  3. NOTOS_* environment variables
//  4. command-line flags, applied by the caller
//
// Example file:
//
//	[log]
//	level = "debug"
//	file = "/tmp/notos.log"
//
//	[plugins]
//	enabled = true
//	dirs = ["~/.local/share/notos/plugins"]
//	libraries = ["/opt/notos/extra.so"]
//	script_timeout = "2s"
//
//	[editor]
//	tab_width = 4
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/notos/internal/logging"
)

// AppName names the configuration directory.
const AppName = "notos"

// FileName is the configuration file name.
const FileName = "config.toml"

// Config holds all editor settings.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Plugins PluginsConfig `toml:"plugins"`
	Editor  EditorConfig  `toml:"editor"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// File receives log output. Empty means stderr.
	File string `toml:"file"`
}

// PluginsConfig configures plugin loading.
type PluginsConfig struct {
	Enabled bool `toml:"enabled"`
	// Dirs are scanned in order. Empty means the "plugins" directory next
	// to the executable.
	Dirs []string `toml:"dirs"`
	// Libraries are loaded after the directory scan.
	Libraries []string `toml:"libraries"`
	// ScriptTimeout bounds each call into a Lua plugin.
	ScriptTimeout Duration `toml:"script_timeout"`
}

// EditorConfig configures the document view.
type EditorConfig struct {
	TabWidth int `toml:"tab_width"`
}

// Duration is a time.Duration written as a string such as "2s".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Plugins: PluginsConfig{
			Enabled:       true,
			ScriptTimeout: Duration(2 * time.Second),
		},
		Editor: EditorConfig{
			TabWidth: 4,
		},
	}
}

// DefaultPath returns the configuration file location under the user's
// configuration directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, FileName)
}

// Load builds the configuration from defaults, the file at path and the
// environment. A missing file is only an error when explicit is set.
func Load(path string, explicit bool) (*Config, error) {
	return load(path, explicit, os.LookupEnv)
}

func load(path string, explicit bool, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.decode(path, bytes.NewReader(data)); err != nil {
				return nil, err
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
			// Defaults only
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		default:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes TOML from r over the defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := cfg.decode("<input>", r); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays TOML from r onto c. Unknown keys are rejected.
func (c *Config) decode(source string, r io.Reader) error {
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}

		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) {
			perr.Message = "unknown setting: " + strings.TrimSpace(serr.String())
			if len(serr.Errors) > 0 {
				perr.Line, perr.Column = serr.Errors[0].Position()
			}
		}
		return perr
	}
	return nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Log.Level) {
		return &ValidationError{Setting: "log.level", Value: c.Log.Level, Message: "unknown log level"}
	}
	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 16 {
		return &ValidationError{Setting: "editor.tab_width", Value: c.Editor.TabWidth, Message: "must be between 1 and 16"}
	}
	if c.Plugins.ScriptTimeout < 0 {
		return &ValidationError{
			Setting: "plugins.script_timeout",
			Value:   time.Duration(c.Plugins.ScriptTimeout),
			Message: "must not be negative",
		}
	}
	return nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
