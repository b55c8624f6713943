package lua

import (
	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/notos/pkg/sdk"
)

// Hook names looked up on the plugin table.
const (
	hookOnLoad   = "on_load"
	hookUI       = "ui"
	hookMenuUI   = "menu_ui"
	hookOnUnload = "on_unload"
)

// scriptPlugin adapts a plugin table returned by a script to sdk.Plugin.
// Hooks are called as methods, so the table is passed as the first
// argument. Missing hooks are no-ops. Errors raised by a hook are logged and
// the hook yields None.
type scriptPlugin struct {
	lib  *Library
	self *lua.LTable

	id   string
	name string
}

var (
	_ sdk.Plugin    = (*scriptPlugin)(nil)
	_ sdk.Destroyer = (*scriptPlugin)(nil)
)

func newScriptPlugin(lib *Library, self *lua.LTable) *scriptPlugin {
	p := &scriptPlugin{lib: lib, self: self}

	p.id = lib.name
	if id, ok := lookup(self, "id").(lua.LString); ok && id != "" {
		p.id = string(id)
	}
	p.name = p.id
	if name, ok := lookup(self, "name").(lua.LString); ok && name != "" {
		p.name = string(name)
	}
	return p
}

// ID returns the table's id field, or the script name.
func (p *scriptPlugin) ID() string {
	return p.id
}

// Name returns the table's name field, or the id.
func (p *scriptPlugin) Name() string {
	return p.name
}

// OnLoad calls self:on_load(ui).
func (p *scriptPlugin) OnLoad(ctx sdk.RenderContext) {
	L := p.lib.state.L
	w := &widget{render: ctx, live: true}
	defer func() { w.live = false }()

	p.call(hookOnLoad, newWidget(L, renderTypeName, w))
}

// UI calls self:ui(ui, ed).
func (p *scriptPlugin) UI(ctx sdk.RenderContext, ed sdk.EditorContext) sdk.Action {
	L := p.lib.state.L
	w := &widget{render: ctx, live: true}
	defer func() { w.live = false }()

	return p.action(hookUI, p.call(hookUI, newWidget(L, renderTypeName, w), editorTable(L, ed)))
}

// MenuUI calls self:menu_ui(menu, ed).
func (p *scriptPlugin) MenuUI(menu sdk.MenuContext, ed sdk.EditorContext) sdk.Action {
	L := p.lib.state.L
	w := &widget{menu: menu, live: true}
	defer func() { w.live = false }()

	return p.action(hookMenuUI, p.call(hookMenuUI, newWidget(L, menuTypeName, w), editorTable(L, ed)))
}

// OnUnload calls self:on_unload().
func (p *scriptPlugin) OnUnload() {
	p.call(hookOnUnload)
}

// Destroy hands the table to the script's destroy function.
func (p *scriptPlugin) Destroy() {
	fn, err := p.lib.function(DestroyGlobal)
	if err != nil {
		p.lib.log.WithError(err).Warn("Cannot destroy plugin")
		return
	}
	if _, err := p.lib.state.Call(fn, p.self); err != nil {
		p.lib.log.WithError(err).WithField("plugin", p.id).Warn("Plugin destructor failed")
	}
	p.self = nil
}

// call invokes the named hook with self prepended and returns its first
// result, or LNil.
func (p *scriptPlugin) call(hook string, args ...lua.LValue) lua.LValue {
	if p.self == nil {
		return lua.LNil
	}

	fn, ok := lookup(p.self, hook).(*lua.LFunction)
	if !ok {
		return lua.LNil
	}

	results, err := p.lib.state.Call(fn, append([]lua.LValue{p.self}, args...)...)
	if err != nil {
		p.lib.log.WithError(err).WithFields(logrus.Fields{
			"plugin": p.id,
			"hook":   hook,
		}).Warn("Plugin hook failed")
		return lua.LNil
	}
	if len(results) == 0 {
		return lua.LNil
	}
	return results[0]
}

// action converts a hook result, logging invalid actions.
func (p *scriptPlugin) action(hook string, v lua.LValue) sdk.Action {
	a, ok := toAction(v)
	if !ok {
		p.lib.log.WithFields(logrus.Fields{
			"plugin": p.id,
			"hook":   hook,
			"value":  v.String(),
		}).Warn("Ignoring invalid plugin action")
	}
	return a
}

// maxIndexDepth bounds the __index chain followed by lookup.
const maxIndexDepth = 8

// lookup reads t[name], following __index tables but never calling Lua.
// Class-style plugins keep their hooks on a metatable.
func lookup(t *lua.LTable, name string) lua.LValue {
	for depth := 0; t != nil && depth < maxIndexDepth; depth++ {
		if v := t.RawGetString(name); v != lua.LNil {
			return v
		}
		mt, ok := t.Metatable.(*lua.LTable)
		if !ok {
			return lua.LNil
		}
		t, _ = mt.RawGetString("__index").(*lua.LTable)
	}
	return lua.LNil
}
