package plugin

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dshills/notos/internal/logging"
)

// DefaultDirName is the plugin directory looked up next to the executable.
const DefaultDirName = "plugins"

// Candidate is a plugin file found during discovery.
type Candidate struct {
	// Path is the file to open.
	Path string

	// Name is the base file name. Plugins are deduplicated by Name.
	Name string
}

// Loader discovers plugin files in the filesystem.
type Loader struct {
	// Directories scanned non-recursively, in order
	dirs []string

	// Explicit library paths appended after the directory scan
	libraries []string

	// accept reports whether a lower-cased extension can be opened
	accept func(ext string) bool

	log *logrus.Entry
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithDirs sets the directories to scan.
func WithDirs(dirs ...string) LoaderOption {
	return func(l *Loader) {
		l.dirs = dirs
	}
}

// WithLibraries sets explicit library paths, used as-is without scanning.
func WithLibraries(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.libraries = paths
	}
}

// WithLoaderLogger sets the log entry used for discovery messages.
func WithLoaderLogger(log *logrus.Entry) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader creates a loader that keeps files whose extension satisfies accept.
func NewLoader(accept func(ext string) bool, opts ...LoaderOption) *Loader {
	l := &Loader{
		dirs:   []string{DefaultPluginDir()},
		accept: accept,
		log:    logging.WithComponent(nil, "plugin.loader"),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// DefaultPluginDir returns the "plugins" directory next to the running
// executable, or a relative "plugins" if the executable cannot be located.
func DefaultPluginDir() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultDirName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultDirName)
}

// Dirs returns the configured scan directories.
func (l *Loader) Dirs() []string {
	return l.dirs
}

// Discover lists plugin files from every directory in order, followed by
// the explicit libraries. Within a directory, files are returned in
// lexical order. Missing or unreadable directories contribute nothing.
func (l *Loader) Discover() []Candidate {
	var found []Candidate

	for _, dir := range l.dirs {
		found = append(found, l.discoverInDir(dir)...)
	}

	for _, path := range l.libraries {
		if !l.accept(fileExt(path)) {
			l.log.WithField("path", path).Warn("Ignoring plugin library with unsupported extension")
			continue
		}
		found = append(found, Candidate{Path: path, Name: filepath.Base(path)})
	}

	return found
}

// discoverInDir lists plugin files in a single directory.
func (l *Loader) discoverInDir(dir string) []Candidate {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			l.log.WithField("dir", dir).Info("Plugins folder not found")
		} else {
			l.log.WithField("dir", dir).WithError(err).Warn("Cannot read plugins folder")
		}
		return nil
	}

	// os.ReadDir returns entries sorted by filename
	var found []Candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !l.accept(fileExt(entry.Name())) {
			continue
		}
		found = append(found, Candidate{
			Path: filepath.Join(dir, entry.Name()),
			Name: entry.Name(),
		})
	}
	return found
}
