package lua

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/notos/internal/logging"
	"github.com/dshills/notos/pkg/sdk"
)

// Extension is the file extension of Lua plugin scripts.
const Extension = ".lua"

// Global functions a plugin script defines.
const (
	CreateGlobal  = "_create_plugin"
	DestroyGlobal = "_destroy_plugin"
)

// Library is a loaded plugin script. It exposes the script's global entry
// points under the symbol names native libraries export, so the plugin
// manager treats scripts and native libraries alike.
//
// Like a native library, a Library is never closed: its state backs every
// plugin it created.
type Library struct {
	state *State
	path  string
	name  string
	log   *logrus.Entry
}

// Option configures Open.
type Option func(*options)

type options struct {
	log     *logrus.Entry
	timeout time.Duration
}

// WithLogger sets the log entry for script output and hook errors.
func WithLogger(log *logrus.Entry) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithTimeout sets the per-call execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// Open runs the script at path in a fresh sandboxed state.
func Open(path string, opts ...Option) (*Library, error) {
	o := options{
		log:     logging.WithComponent(nil, "plugin.lua"),
		timeout: DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	log := o.log.WithField("script", name)

	sandbox := NewSandbox(log)
	sandbox.Allow(ModuleName)

	state := NewState(WithExecutionTimeout(o.timeout), WithSandbox(sandbox))
	registerBridge(state.L)

	if err := state.DoFile(path); err != nil {
		state.Close()
		return nil, fmt.Errorf("run %s: %w", filepath.Base(path), err)
	}

	return &Library{
		state: state,
		path:  path,
		name:  name,
		log:   log,
	}, nil
}

// Path returns the script file.
func (l *Library) Path() string {
	return l.path
}

// Lookup resolves sdk.CreateSymbol and sdk.DestroySymbol to the script's
// CreateGlobal and DestroyGlobal functions.
func (l *Library) Lookup(symbol string) (any, error) {
	switch symbol {
	case sdk.CreateSymbol:
		if _, err := l.function(CreateGlobal); err != nil {
			return nil, err
		}
		return sdk.CreateFunc(l.create), nil
	case sdk.DestroySymbol:
		if _, err := l.function(DestroyGlobal); err != nil {
			return nil, err
		}
		return sdk.DestroyFunc(sdk.Release), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
}

// function returns the global function name.
func (l *Library) function(name string) (*lua.LFunction, error) {
	fn, ok := l.state.Global(name).(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
	}
	return fn, nil
}

// create calls CreateGlobal and boxes the returned table. It returns nil
// when the call fails or yields anything but a table.
func (l *Library) create() unsafe.Pointer {
	fn, err := l.function(CreateGlobal)
	if err != nil {
		l.log.WithError(err).Warn("Cannot create plugin")
		return nil
	}

	results, err := l.state.Call(fn)
	if err != nil {
		l.log.WithError(err).Warn("Plugin constructor failed")
		return nil
	}

	var self *lua.LTable
	if len(results) > 0 {
		self, _ = results[0].(*lua.LTable)
	}
	if self == nil {
		l.log.WithError(ErrBadPlugin).Warn("Cannot create plugin")
		return nil
	}

	return sdk.Box(newScriptPlugin(l, self))
}
