package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable the editor reads.
const EnvPrefix = "NOTOS_"

// Environment variables mapped onto settings.
const (
	EnvLogLevel        = EnvPrefix + "LOG_LEVEL"
	EnvLogFile         = EnvPrefix + "LOG_FILE"
	EnvPluginsEnabled  = EnvPrefix + "PLUGINS_ENABLED"
	EnvPluginDirs      = EnvPrefix + "PLUGIN_DIRS"
	EnvPluginLibraries = EnvPrefix + "PLUGIN_LIBRARIES"
	EnvScriptTimeout   = EnvPrefix + "SCRIPT_TIMEOUT"
	EnvTabWidth        = EnvPrefix + "TAB_WIDTH"
)

// LookupFunc looks up an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from environment variables. List variables
// use the platform path list separator.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if v, ok := lookup(EnvLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.Log.File = v
	}
	if v, ok := lookup(EnvPluginsEnabled); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPluginsEnabled, err)
		}
		c.Plugins.Enabled = b
	}
	if v, ok := lookup(EnvPluginDirs); ok {
		c.Plugins.Dirs = splitList(v)
	}
	if v, ok := lookup(EnvPluginLibraries); ok {
		c.Plugins.Libraries = splitList(v)
	}
	if v, ok := lookup(EnvScriptTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvScriptTimeout, err)
		}
		c.Plugins.ScriptTimeout = Duration(d)
	}
	if v, ok := lookup(EnvTabWidth); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTabWidth, err)
		}
		c.Editor.TabWidth = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range filepath.SplitList(v) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
