package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/notos/pkg/sdk"
)

// ModuleName is the host module scripts load with require("notos").
const ModuleName = "notos"

// Metatable names for widget userdata.
const (
	renderTypeName = "notos.render"
	panelTypeName  = "notos.panel"
	menuTypeName   = "notos.menu"
)

// widget is the userdata payload behind ui, panel and menu handles.
// live is cleared when the frame or body that produced it returns.
type widget struct {
	render sdk.RenderContext
	panel  sdk.Panel
	menu   sdk.MenuContext
	live   bool
}

// registerBridge installs the host module and the widget metatables.
func registerBridge(L *lua.LState) {
	L.PreloadModule(ModuleName, func(L *lua.LState) int {
		mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"none": func(L *lua.LState) int {
				L.Push(lua.LNil)
				return 1
			},
			"replace_all": func(L *lua.LState) int {
				L.Push(actionTable(L, sdk.ActionReplaceAll, L.CheckString(1)))
				return 1
			},
			"replace_selection": func(L *lua.LState) int {
				L.Push(actionTable(L, sdk.ActionReplaceSelection, L.CheckString(1)))
				return 1
			},
		})
		L.Push(mod)
		return 1
	})

	registerType(L, renderTypeName, map[string]lua.LGFunction{
		"window": renderWindow,
	})
	registerType(L, panelTypeName, map[string]lua.LGFunction{
		"heading":   panelHeading,
		"label":     panelLabel,
		"separator": panelSeparator,
		"button":    panelButton,
	})
	registerType(L, menuTypeName, map[string]lua.LGFunction{
		"menu":       menuMenu,
		"button":     menuButton,
		"close_menu": menuCloseMenu,
	})
}

func registerType(L *lua.LState, name string, methods map[string]lua.LGFunction) {
	mt := L.NewTypeMetatable(name)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), methods))
}

// newWidget wraps w in userdata of the given type.
func newWidget(L *lua.LState, typ string, w *widget) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = w
	L.SetMetatable(ud, L.GetTypeMetatable(typ))
	return ud
}

// checkWidget returns the live widget at stack index 1.
func checkWidget(L *lua.LState) *widget {
	ud := L.CheckUserData(1)
	w, ok := ud.Value.(*widget)
	if !ok {
		L.ArgError(1, "widget expected")
		return nil
	}
	if !w.live {
		L.RaiseError("%s", ErrStaleWidget.Error())
		return nil
	}
	return w
}

// ui:window(title, body [, open]) -> open
func renderWindow(L *lua.LState) int {
	w := checkWidget(L)
	title := L.CheckString(2)
	body := L.CheckFunction(3)

	var open *bool
	if L.GetTop() >= 4 && L.Get(4) != lua.LNil {
		v := lua.LVAsBool(L.Get(4))
		open = &v
	}

	w.render.Window(title, open, func(p sdk.Panel) {
		pw := &widget{panel: p, live: true}
		defer func() { pw.live = false }()

		L.Push(body)
		L.Push(newWidget(L, panelTypeName, pw))
		L.Call(1, 0)
	})

	if open == nil {
		L.Push(lua.LTrue)
	} else {
		L.Push(lua.LBool(*open))
	}
	return 1
}

func panelHeading(L *lua.LState) int {
	checkWidget(L).panel.Heading(L.CheckString(2))
	return 0
}

func panelLabel(L *lua.LState) int {
	checkWidget(L).panel.Label(L.CheckString(2))
	return 0
}

func panelSeparator(L *lua.LState) int {
	checkWidget(L).panel.Separator()
	return 0
}

func panelButton(L *lua.LState) int {
	w := checkWidget(L)
	L.Push(lua.LBool(w.panel.Button(L.CheckString(2))))
	return 1
}

// menu:menu(label, body)
func menuMenu(L *lua.LState) int {
	w := checkWidget(L)
	label := L.CheckString(2)
	body := L.CheckFunction(3)

	w.menu.Menu(label, func(m sdk.MenuContext) {
		mw := &widget{menu: m, live: true}
		defer func() { mw.live = false }()

		L.Push(body)
		L.Push(newWidget(L, menuTypeName, mw))
		L.Call(1, 0)
	})
	return 0
}

func menuButton(L *lua.LState) int {
	w := checkWidget(L)
	L.Push(lua.LBool(w.menu.Button(L.CheckString(2))))
	return 1
}

func menuCloseMenu(L *lua.LState) int {
	checkWidget(L).menu.CloseMenu()
	return 0
}

// editorTable converts an editor snapshot into the table handed to hooks:
//
//	{ content = "...", selection = { start = 0, ["end"] = 3 }, selected_text = "..." }
//
// Offsets are zero-based byte offsets into content; end is exclusive.
// selection and selected_text are nil when nothing is selected.
func editorTable(L *lua.LState, ed sdk.EditorContext) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("content", lua.LString(ed.Content))

	if r, ok := ed.Selection(); ok {
		sel := L.NewTable()
		sel.RawSetString("start", lua.LNumber(r.Start))
		sel.RawSetString("end", lua.LNumber(r.End))
		t.RawSetString("selection", sel)
	}
	if text, ok := ed.SelectedText(); ok {
		t.RawSetString("selected_text", lua.LString(text))
	}
	return t
}

// actionTable builds the table form of an action.
func actionTable(L *lua.LState, kind sdk.ActionKind, text string) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("kind", lua.LString(kind.String()))
	t.RawSetString("text", lua.LString(text))
	return t
}

// toAction converts a hook result into an action. nil and false mean None.
// The second result is false when v is not a valid action.
func toAction(v lua.LValue) (sdk.Action, bool) {
	if lua.LVIsFalse(v) {
		return sdk.None(), true
	}

	t, ok := v.(*lua.LTable)
	if !ok {
		return sdk.None(), false
	}

	text, ok := t.RawGetString("text").(lua.LString)
	kind := lua.LVAsString(t.RawGetString("kind"))
	switch kind {
	case sdk.ActionNone.String():
		return sdk.None(), true
	case sdk.ActionReplaceAll.String():
		if !ok {
			return sdk.None(), false
		}
		return sdk.ReplaceAll(string(text)), true
	case sdk.ActionReplaceSelection.String():
		if !ok {
			return sdk.None(), false
		}
		return sdk.ReplaceSelection(string(text)), true
	default:
		return sdk.None(), false
	}
}
