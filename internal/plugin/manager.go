package plugin

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/notos/internal/logging"
	"github.com/dshills/notos/internal/plugin/lua"
	"github.com/dshills/notos/pkg/sdk"
)

// Manager owns every loaded plugin. It discovers plugin libraries, creates
// one handle per library, and broadcasts lifecycle and per-frame calls to
// the handles in load order.
//
// Manager is not safe for concurrent use. It is driven from the editor's UI
// goroutine, and plugin code is never called concurrently.
type Manager struct {
	config ManagerConfig

	// Loader for plugin discovery
	loader *Loader

	// Openers keyed by lower-cased extension
	openers map[string]Opener

	// Live handles in load order
	handles []*Handle

	// File names already attempted; a file name is loaded at most once
	seen map[string]struct{}

	state State

	eventHandlers []subscription
	nextSub       int

	log *logrus.Entry
}

// ManagerConfig configures the plugin manager.
type ManagerConfig struct {
	// Dirs are directories scanned non-recursively for plugin libraries.
	Dirs []string

	// Libraries are explicit library paths loaded after the scan.
	Libraries []string

	// Openers maps extensions (".so", ".lua") to openers.
	// Nil selects DefaultOpeners.
	Openers map[string]Opener

	// ScriptTimeout bounds each call into a script plugin when the default
	// openers are used. Zero keeps the script backend's default.
	ScriptTimeout time.Duration

	// Logger receives plugin system logs. Nil discards them.
	Logger *logrus.Logger
}

// DefaultManagerConfig returns the default configuration: the "plugins"
// directory next to the executable and the default openers.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Dirs: []string{DefaultPluginDir()},
	}
}

// DefaultOpeners returns the native opener for NativeExtensions and the Lua
// script opener for lua.Extension. scriptOpts are passed to every lua.Open.
func DefaultOpeners(logger *logrus.Logger, scriptOpts ...lua.Option) map[string]Opener {
	native := NativeOpener()
	openers := make(map[string]Opener, len(NativeExtensions)+1)
	for _, ext := range NativeExtensions {
		openers[ext] = native
	}

	opts := append([]lua.Option{lua.WithLogger(logging.WithComponent(logger, "plugin.lua"))}, scriptOpts...)
	openers[lua.Extension] = OpenerFunc(func(path string) (Library, error) {
		lib, err := lua.Open(path, opts...)
		if err != nil {
			return nil, err
		}
		return lib, nil
	})
	return openers
}

// EventHandler handles plugin manager events.
// Handlers run synchronously and must not call back into the Manager.
// Panics in handlers are recovered.
type EventHandler func(event ManagerEvent)

type subscription struct {
	id      int
	handler EventHandler
}

// ManagerEvent represents a plugin manager event.
type ManagerEvent struct {
	Type     ManagerEventType
	Path     string
	Plugin   string
	Instance string
	Error    error
}

// ManagerEventType is the type of manager event.
type ManagerEventType int

const (
	// EventPluginLoaded is emitted when a library produced a handle.
	EventPluginLoaded ManagerEventType = iota
	// EventPluginSkipped is emitted when a library could not be loaded.
	EventPluginSkipped
	// EventPluginDestroyed is emitted after a handle was destroyed.
	EventPluginDestroyed
)

// String returns a string representation of the event type.
func (t ManagerEventType) String() string {
	switch t {
	case EventPluginLoaded:
		return "loaded"
	case EventPluginSkipped:
		return "skipped"
	case EventPluginDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Info describes a loaded plugin.
type Info struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path" yaml:"path"`
	Instance string `json:"instance" yaml:"instance"`
}

// NewManager creates a new plugin manager in StateEmpty.
func NewManager(config ManagerConfig) *Manager {
	openers := make(map[string]Opener)
	source := config.Openers
	if source == nil {
		var scriptOpts []lua.Option
		if config.ScriptTimeout > 0 {
			scriptOpts = append(scriptOpts, lua.WithTimeout(config.ScriptTimeout))
		}
		source = DefaultOpeners(config.Logger, scriptOpts...)
	}
	for ext, opener := range source {
		openers[normalizeExt(ext)] = opener
	}

	log := logging.WithComponent(config.Logger, "plugin")

	m := &Manager{
		config:  config,
		openers: openers,
		seen:    make(map[string]struct{}),
		state:   StateEmpty,
		log:     log,
	}

	m.loader = NewLoader(
		func(ext string) bool {
			_, ok := m.openers[ext]
			return ok
		},
		WithDirs(config.Dirs...),
		WithLibraries(config.Libraries...),
		WithLoaderLogger(logging.WithComponent(config.Logger, "plugin.loader")),
	)

	return m
}

// LoadPlugins discovers plugin libraries and loads every file name not
// loaded before. Failures are logged and skipped; they never stop the scan.
// It returns the number of plugins added by this call.
func (m *Manager) LoadPlugins() int {
	if m.state == StateShuttingDown {
		m.log.WithError(ErrShutDown).Warn("Ignoring plugin scan")
		return 0
	}

	m.state = StateScanning
	m.log.Info("Scanning for plugins...")

	added := 0
	for _, c := range m.loader.Discover() {
		if _, dup := m.seen[c.Name]; dup {
			m.log.WithField("path", c.Path).Debug("Plugin file name already loaded, skipping")
			continue
		}
		m.seen[c.Name] = struct{}{}

		log := m.log.WithField("path", c.Path)
		log.Info("Loading plugin library")

		h, err := m.loadFile(c.Path)
		if err != nil {
			log.WithError(err).Warn("Skipping plugin")
			m.emitEvent(ManagerEvent{Type: EventPluginSkipped, Path: c.Path, Error: err})
			continue
		}

		m.handles = append(m.handles, h)
		added++

		log.WithFields(logrus.Fields{
			"plugin":   h.ID(),
			"instance": h.Instance(),
		}).Info("Plugin loaded")
		m.emitEvent(ManagerEvent{
			Type:     EventPluginLoaded,
			Path:     c.Path,
			Plugin:   h.ID(),
			Instance: h.Instance(),
		})
	}

	m.state = StateReady
	m.log.Infof("Loaded %d plugins.", len(m.handles))
	return added
}

// loadFile opens one library and creates its plugin.
//
// If the destroy symbol is missing the library has already been opened; it
// stays open rather than being unloaded underneath code it may share.
func (m *Manager) loadFile(path string) (*Handle, error) {
	ext := fileExt(path)
	opener, ok := m.openers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoOpener, ext)
	}

	lib, err := opener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load library: %w", err)
	}

	create, err := resolveCreate(lib)
	if err != nil {
		return nil, fmt.Errorf("missing %s: %w", sdk.CreateSymbol, err)
	}

	destroy, err := resolveDestroy(lib)
	if err != nil {
		return nil, fmt.Errorf("missing %s: %w", sdk.DestroySymbol, err)
	}

	ptr := create()
	if ptr == nil {
		return nil, ErrNilHandle
	}

	return newHandle(ptr, destroy, path), nil
}

// OnLoad delivers OnLoad to every plugin that has not received it yet.
func (m *Manager) OnLoad(ctx sdk.RenderContext) {
	ids := make(map[string]string, len(m.handles))
	for _, h := range m.handles {
		if h.closed {
			continue
		}

		// IDs are not arbitrated; a collision is only reported.
		id := h.ID()
		if other, dup := ids[id]; dup && !h.loaded {
			m.log.WithFields(logrus.Fields{
				"plugin": id,
				"path":   h.Path(),
				"other":  other,
			}).Warn("Duplicate plugin id")
		}
		ids[id] = h.Path()

		if h.loaded {
			continue
		}
		h.loaded = true
		h.Plugin().OnLoad(ctx)
	}
}

// UI calls every plugin's UI hook in load order and returns the last
// non-None action.
func (m *Manager) UI(ctx sdk.RenderContext, ed sdk.EditorContext) sdk.Action {
	return m.broadcast("ui", func(p sdk.Plugin) sdk.Action {
		return p.UI(ctx, ed)
	})
}

// MenuUI calls every plugin's MenuUI hook in load order and returns the
// last non-None action.
func (m *Manager) MenuUI(menu sdk.MenuContext, ed sdk.EditorContext) sdk.Action {
	return m.broadcast("menu_ui", func(p sdk.Plugin) sdk.Action {
		return p.MenuUI(menu, ed)
	})
}

// broadcast calls fn on each live plugin and folds the results: a later
// non-None action replaces an earlier one.
func (m *Manager) broadcast(hook string, fn func(p sdk.Plugin) sdk.Action) sdk.Action {
	result := sdk.None()
	if m.state != StateReady {
		return result
	}

	var from *Handle
	for _, h := range m.handles {
		if h.closed {
			continue
		}

		action := fn(h.Plugin())
		if action.IsNone() {
			continue
		}

		if from != nil {
			m.log.WithFields(logrus.Fields{
				"hook":       hook,
				"plugin":     h.ID(),
				"overridden": from.ID(),
			}).Debug("Plugin action overrides earlier action")
		}
		result = action
		from = h
	}
	return result
}

// OnUnload delivers OnUnload to every plugin that has not received it yet.
func (m *Manager) OnUnload() {
	for _, h := range m.handles {
		if h.closed || h.unloaded {
			continue
		}
		h.unloaded = true
		h.Plugin().OnUnload()
	}
}

// Shutdown delivers OnUnload where still pending, then destroys every
// handle in load order and returns the manager to StateEmpty.
// Calling Shutdown again is harmless.
func (m *Manager) Shutdown() {
	if len(m.handles) == 0 {
		m.state = StateEmpty
		return
	}

	m.state = StateShuttingDown
	m.OnUnload()

	for _, h := range m.handles {
		id, instance := h.ID(), h.Instance()
		m.log.WithFields(logrus.Fields{
			"plugin":   id,
			"instance": instance,
		}).Debug("Destroying plugin instance")

		h.Close()
		m.emitEvent(ManagerEvent{
			Type:     EventPluginDestroyed,
			Path:     h.Path(),
			Plugin:   id,
			Instance: instance,
		})
	}

	m.handles = nil
	m.state = StateEmpty
}

// State returns the manager's lifecycle state.
func (m *Manager) State() State {
	return m.state
}

// Count returns the number of live plugins.
func (m *Manager) Count() int {
	return len(m.handles)
}

// Handles returns the live handles in load order.
func (m *Manager) Handles() []*Handle {
	result := make([]*Handle, len(m.handles))
	copy(result, m.handles)
	return result
}

// List describes the live plugins in load order.
func (m *Manager) List() []Info {
	result := make([]Info, 0, len(m.handles))
	for _, h := range m.handles {
		result = append(result, Info{
			ID:       h.ID(),
			Name:     h.Name(),
			Path:     h.Path(),
			Instance: h.Instance(),
		})
	}
	return result
}

// Extensions returns the file extensions the manager can open, sorted.
func (m *Manager) Extensions() []string {
	exts := make([]string, 0, len(m.openers))
	for ext := range m.openers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Loader returns the underlying loader.
func (m *Manager) Loader() *Loader {
	return m.loader
}

// Subscribe adds an event handler.
// Returns an unsubscribe function to remove the handler.
func (m *Manager) Subscribe(handler EventHandler) func() {
	if handler == nil {
		return func() {}
	}

	m.nextSub++
	id := m.nextSub
	m.eventHandlers = append(m.eventHandlers, subscription{id: id, handler: handler})

	return func() {
		for i, sub := range m.eventHandlers {
			if sub.id == id {
				// Copy so an emitEvent in progress keeps its slice.
				m.eventHandlers = append(m.eventHandlers[:i:i], m.eventHandlers[i+1:]...)
				return
			}
		}
	}
}

// SubscriberCount returns the number of subscribed event handlers.
func (m *Manager) SubscriberCount() int {
	return len(m.eventHandlers)
}

// emitEvent sends an event to all handlers, recovering handler panics.
func (m *Manager) emitEvent(event ManagerEvent) {
	for _, sub := range m.eventHandlers {
		handler := sub.handler
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.WithField("event", event.Type.String()).Errorf("event handler panicked: %v", r)
				}
			}()
			handler(event)
		}()
	}
}
