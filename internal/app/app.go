// Package app wires the editor together: configuration, logging, the plugin
// manager and the active document. It drives plugin UI one frame at a time
// on a ui.Surface.
package app

import (
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/dshills/notos/internal/config"
	"github.com/dshills/notos/internal/editor"
	"github.com/dshills/notos/internal/logging"
	"github.com/dshills/notos/internal/plugin"
)

// Application is the editor host.
//
// All methods must be called from a single goroutine.
type Application struct {
	config *config.Config

	log       *logrus.Logger
	logCloser io.Closer
	entry     *logrus.Entry

	// Undoes the routing of logrus's standard logger
	restoreStd func()

	// Nil when plugins are disabled
	plugins *plugin.Manager

	doc *editor.Document

	// Set once OnLoad has been broadcast
	started bool

	status string
	quit   bool

	running  atomic.Bool
	shutdown atomic.Bool
}

// Options configures the application.
type Options struct {
	// Config holds the settings. Nil uses config.Default().
	Config *config.Config

	// File is opened as the active document. Empty starts a scratch buffer.
	File string

	// Logger overrides the logger built from Config.Log.
	Logger *logrus.Logger

	// LogOutput receives log lines when Config.Log.File is empty.
	// Nil means stderr.
	LogOutput io.Writer

	// Openers overrides the plugin manager's openers.
	Openers map[string]plugin.Opener
}

// New creates an Application. Plugins are discovered by Start.
func New(opts Options) (*Application, error) {
	app := &Application{
		config: opts.Config,
	}
	if app.config == nil {
		app.config = config.Default()
	}

	if err := app.bootstrap(opts); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap(opts Options) error {
	cfg := app.config

	// 1. Logging
	if opts.Logger != nil {
		app.log = opts.Logger
		app.logCloser = nopCloser{}
	} else {
		logger, closer, err := logging.NewLogger(logging.LoggerConfig{
			Level:  cfg.Log.Level,
			File:   config.ExpandHome(cfg.Log.File),
			Output: opts.LogOutput,
		})
		if err != nil {
			return &InitError{Component: "logging", Err: err}
		}
		app.log = logger
		app.logCloser = closer
	}
	app.entry = logging.WithComponent(app.log, "app")
	app.restoreStd = logging.RouteStandard(app.log)

	// 2. Plugin manager
	if cfg.Plugins.Enabled {
		app.plugins = plugin.NewManager(plugin.ManagerConfig{
			Dirs:          pluginDirs(cfg.Plugins.Dirs),
			Libraries:     expandAll(cfg.Plugins.Libraries),
			Openers:       opts.Openers,
			ScriptTimeout: cfg.Plugins.ScriptTimeout.Std(),
			Logger:        app.log,
		})
	} else {
		app.entry.Info("Plugins disabled")
	}

	// 3. Document
	if opts.File != "" {
		doc, err := editor.Open(opts.File)
		if err != nil {
			app.restoreStd()
			app.logCloser.Close()
			return &FileError{Op: "open", Path: opts.File, Err: err}
		}
		app.doc = doc
	} else {
		app.doc = editor.NewScratchDocument()
	}

	return nil
}

// pluginDirs resolves the configured plugin directories. An empty list
// selects the directory next to the executable.
func pluginDirs(dirs []string) []string {
	if len(dirs) == 0 {
		return []string{plugin.DefaultPluginDir()}
	}
	return expandAll(dirs)
}

func expandAll(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Clean(config.ExpandHome(p)))
	}
	return out
}

// Config returns the settings.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *logrus.Logger {
	return app.log
}

// Plugins returns the plugin manager, or nil when plugins are disabled.
func (app *Application) Plugins() *plugin.Manager {
	return app.plugins
}

// Document returns the active document.
func (app *Application) Document() *editor.Document {
	return app.doc
}

// Status returns the last status message.
func (app *Application) Status() string {
	return app.status
}

// QuitRequested reports whether the user asked to quit.
func (app *Application) QuitRequested() bool {
	return app.quit
}

// IsRunning reports whether Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Shutdown broadcasts OnUnload, destroys every plugin handle and closes the
// log file. It is safe to call more than once.
func (app *Application) Shutdown() {
	if !app.shutdown.CompareAndSwap(false, true) {
		return
	}

	if app.plugins != nil {
		app.plugins.OnUnload()
		app.plugins.Shutdown()
	}

	app.entry.Debug("Shutdown complete")
	if app.restoreStd != nil {
		app.restoreStd()
	}
	if app.logCloser != nil {
		app.logCloser.Close()
	}
}

func (app *Application) setStatus(format string, args ...any) {
	app.status = fmt.Sprintf(format, args...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
