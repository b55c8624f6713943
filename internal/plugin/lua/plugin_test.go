package lua

import (
	"testing"

	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/notos/internal/ui"
	"github.com/dshills/notos/pkg/sdk"
)

func TestScriptPluginMenuAction(t *testing.T) {
	p := createPlugin(t, openScript(t, uppercaseScript))
	h := ui.NewHeadless()
	ed := sdk.NewEditorContext("abc")

	var action sdk.Action
	headlessFrame(h, func() { action = p.MenuUI(h.Menu(), ed) })
	if !action.IsNone() {
		t.Fatalf("MenuUI() without click = %v, want none", action)
	}
	if _, ok := h.Find(ui.WidgetMenuButton, "Edit", "Uppercase"); !ok {
		t.Error("menu entry not declared")
	}

	h.Click("Edit", "Uppercase")
	headlessFrame(h, func() { action = p.MenuUI(h.Menu(), ed) })

	if action.Kind != sdk.ActionReplaceAll || action.Text != "ABC" {
		t.Errorf("MenuUI() = %v %q, want replace_all %q", action.Kind, action.Text, "ABC")
	}
	if h.MenuCloses() != 1 {
		t.Errorf("MenuCloses() = %d, want 1", h.MenuCloses())
	}
}

func TestScriptPluginSelection(t *testing.T) {
	p := createPlugin(t, openScript(t, `
local notos = require("notos")
function _create_plugin() return {
    ui = function(self, ui, ed)
        if ed.selected_text == nil then return nil end
        assert(ed.selection.start == 4 and ed.selection["end"] == 9)
        return notos.replace_selection("[" .. ed.selected_text .. "]")
    end,
} end
function _destroy_plugin(p) end
`))
	h := ui.NewHeadless()

	var action sdk.Action
	headlessFrame(h, func() { action = p.UI(h.Render(), sdk.NewEditorContext("one two three")) })
	if !action.IsNone() {
		t.Errorf("UI() without selection = %v, want none", action)
	}

	ed := sdk.NewEditorContext("one two three").WithSelection(4, 9)
	headlessFrame(h, func() { action = p.UI(h.Render(), ed) })
	if action.Kind != sdk.ActionReplaceSelection || action.Text != "[two t]" {
		t.Errorf("UI() = %v %q, want replace_selection %q", action.Kind, action.Text, "[two t]")
	}
}

func TestScriptPluginWindow(t *testing.T) {
	p := createPlugin(t, openScript(t, `
function _create_plugin() return { id = "about", show = true } end
function _destroy_plugin(p) end
function about_ui(self, ui, ed)
    self.show = ui:window("About", function(panel)
        panel:heading("Notos")
        panel:label("bytes: " .. #ed.content)
        panel:separator()
        if panel:button("OK") then self.ok = true end
    end, self.show)
end
`))

	// Hooks may also be attached after creation.
	self := p.(*scriptPlugin).self
	self.RawSetString("ui", p.(*scriptPlugin).lib.state.Global("about_ui"))

	h := ui.NewHeadless()
	ed := sdk.NewEditorContext("hello")

	headlessFrame(h, func() { p.UI(h.Render(), ed) })
	if _, ok := h.Find(ui.WidgetLabel, "About", "bytes: 5"); !ok {
		t.Errorf("window label not drawn; widgets = %v", h.Widgets())
	}
	if _, ok := h.Find(ui.WidgetHeading, "About", "Notos"); !ok {
		t.Error("window heading not drawn")
	}

	h.Click("About", "OK")
	headlessFrame(h, func() { p.UI(h.Render(), ed) })
	if self.RawGetString("ok").String() != "true" {
		t.Error("button click not seen by script")
	}

	h.CloseWindow("About")
	headlessFrame(h, func() { p.UI(h.Render(), ed) })
	headlessFrame(h, func() { p.UI(h.Render(), ed) })
	if len(h.Widgets()) != 0 {
		t.Error("window still drawn after close")
	}
	if self.RawGetString("show").String() != "false" {
		t.Errorf("show = %v, want false", self.RawGetString("show"))
	}
}

func TestScriptPluginLifecycleHooks(t *testing.T) {
	lib := openScript(t, uppercaseScript)
	p := createPlugin(t, lib)
	h := ui.NewHeadless()

	p.OnLoad(h.Render())
	p.OnUnload()

	if got := lib.state.Global("loaded").String(); got != "1" {
		t.Errorf("loaded = %s, want 1", got)
	}
	if got := lib.state.Global("unloaded").String(); got != "1" {
		t.Errorf("unloaded = %s, want 1", got)
	}
}

func TestScriptPluginMissingHooks(t *testing.T) {
	p := createPlugin(t, openScript(t, `
function _create_plugin() return {} end
function _destroy_plugin(p) end
`))
	h := ui.NewHeadless()

	p.OnLoad(h.Render())
	if a := p.UI(h.Render(), sdk.NewEditorContext("x")); !a.IsNone() {
		t.Errorf("UI() = %v, want none", a)
	}
	if a := p.MenuUI(h.Menu(), sdk.NewEditorContext("x")); !a.IsNone() {
		t.Errorf("MenuUI() = %v, want none", a)
	}
	p.OnUnload()

	// The id falls back to the script name.
	if p.ID() != "test" || p.Name() != "test" {
		t.Errorf("ID(), Name() = %q, %q, want test, test", p.ID(), p.Name())
	}
}

func TestScriptPluginHookErrors(t *testing.T) {
	p := createPlugin(t, openScript(t, `
function _create_plugin() return {
    ui = function(self) error("boom") end,
    menu_ui = function(self) return 42 end,
} end
function _destroy_plugin(p) end
`))
	h := ui.NewHeadless()

	if a := p.UI(h.Render(), sdk.NewEditorContext("x")); !a.IsNone() {
		t.Errorf("UI() after error = %v, want none", a)
	}
	if a := p.MenuUI(h.Menu(), sdk.NewEditorContext("x")); !a.IsNone() {
		t.Errorf("MenuUI() with invalid action = %v, want none", a)
	}
}

func TestScriptPluginStaleWidget(t *testing.T) {
	p := createPlugin(t, openScript(t, `
function _create_plugin() return {
    ui = function(self, ui, ed)
        if saved then
            saved:window("Late", function() end)
            return { kind = "replace_all", text = "late" }
        end
        saved = ui
    end,
} end
function _destroy_plugin(p) end
`))
	h := ui.NewHeadless()

	headlessFrame(h, func() { p.UI(h.Render(), sdk.NewEditorContext("")) })

	var action sdk.Action
	headlessFrame(h, func() { action = p.UI(h.Render(), sdk.NewEditorContext("")) })
	if !action.IsNone() {
		t.Errorf("UI() using a stale widget = %v, want none", action)
	}
	if len(h.Widgets()) != 0 {
		t.Error("stale widget drew a window")
	}
}

func TestToAction(t *testing.T) {
	state := NewState()
	defer state.Close()
	L := state.L

	tests := []struct {
		name   string
		value  func() glua.LValue
		want   sdk.Action
		wantOK bool
	}{
		{"nil", func() glua.LValue { return glua.LNil }, sdk.None(), true},
		{"false", func() glua.LValue { return glua.LFalse }, sdk.None(), true},
		{"replace all", func() glua.LValue { return actionTable(L, sdk.ActionReplaceAll, "x") }, sdk.ReplaceAll("x"), true},
		{"replace selection", func() glua.LValue { return actionTable(L, sdk.ActionReplaceSelection, "y") }, sdk.ReplaceSelection("y"), true},
		{"none kind", func() glua.LValue { return actionTable(L, sdk.ActionNone, "") }, sdk.None(), true},
		{"number", func() glua.LValue { return glua.LNumber(1) }, sdk.None(), false},
		{"unknown kind", func() glua.LValue {
			tbl := L.NewTable()
			tbl.RawSetString("kind", glua.LString("delete"))
			return tbl
		}, sdk.None(), false},
		{"missing text", func() glua.LValue {
			tbl := L.NewTable()
			tbl.RawSetString("kind", glua.LString("replace_all"))
			return tbl
		}, sdk.None(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toAction(tt.value())
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("toAction() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
