package plugin

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"unsafe"

	"github.com/dshills/notos/pkg/sdk"
)

func TestNewManager(t *testing.T) {
	m := NewManager(ManagerConfig{Dirs: []string{t.TempDir()}})

	if m.State() != StateEmpty {
		t.Errorf("State() = %v, want %v", m.State(), StateEmpty)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}

	want := []string{".dll", ".dylib", ".lua", ".so"}
	if got := m.Extensions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Extensions() = %v, want %v", got, want)
	}
}

func TestNewManagerNormalizesExtensions(t *testing.T) {
	m := NewManager(ManagerConfig{
		Openers: map[string]Opener{"SO": newFakeOpener()},
	})
	if got := m.Extensions(); !reflect.DeepEqual(got, []string{".so"}) {
		t.Errorf("Extensions() = %v, want [.so]", got)
	}
}

func TestManagerLoadInLexicalOrder(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.so", "a.so", "notes.txt", "c.SO")
	touch(t, filepath.Join(dir, "nested"), "d.so")

	rec := &recorder{}
	opener := newFakeOpener()
	for _, name := range []string{"a.so", "b.so", "c.SO", "d.so"} {
		opener.libs[name] = exportLibrary(t, name, &testPlugin{id: name, rec: rec})
	}

	m := newTestManager(opener, dir)
	if n := m.LoadPlugins(); n != 3 {
		t.Fatalf("LoadPlugins() = %d, want 3", n)
	}
	if m.State() != StateReady {
		t.Errorf("State() = %v, want %v", m.State(), StateReady)
	}

	var ids []string
	for _, info := range m.List() {
		ids = append(ids, info.ID)
	}
	if want := []string{"a.so", "b.so", "c.SO"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("load order = %v, want %v", ids, want)
	}
}

func TestManagerMissingDirectory(t *testing.T) {
	m := newTestManager(newFakeOpener(), filepath.Join(t.TempDir(), "missing"))

	if n := m.LoadPlugins(); n != 0 {
		t.Errorf("LoadPlugins() = %d, want 0", n)
	}
	if m.State() != StateReady {
		t.Errorf("State() = %v, want %v", m.State(), StateReady)
	}
}

func TestManagerDeduplicatesFileNames(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	touch(t, dir1, "p.so")
	touch(t, dir2, "p.so", "q.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["p.so"] = exportLibrary(t, "p.so", &testPlugin{id: "p", rec: rec})
	opener.libs["q.so"] = exportLibrary(t, "q.so", &testPlugin{id: "q", rec: rec})

	m := newTestManager(opener, dir1, dir2)
	if n := m.LoadPlugins(); n != 2 {
		t.Fatalf("LoadPlugins() = %d, want 2", n)
	}

	want := []string{filepath.Join(dir1, "p.so"), filepath.Join(dir2, "q.so")}
	if !reflect.DeepEqual(opener.opened, want) {
		t.Errorf("opened = %v, want %v", opener.opened, want)
	}

	// A second scan adds nothing already seen.
	touch(t, dir2, "r.so")
	opener.libs["r.so"] = exportLibrary(t, "r.so", &testPlugin{id: "r", rec: rec})
	if n := m.LoadPlugins(); n != 1 {
		t.Errorf("second LoadPlugins() = %d, want 1", n)
	}
	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
}

func TestManagerSkipsBrokenLibraries(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so", "b.so", "c.so", "d.so", "e.so", "f.so", "g.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "a", rec: rec})
	// b.so cannot be opened
	opener.libs["c.so"] = &fakeLibrary{symbols: map[string]any{
		sdk.DestroySymbol: func(unsafe.Pointer) {},
	}}
	opener.libs["d.so"] = &fakeLibrary{symbols: map[string]any{
		sdk.CreateSymbol: func() unsafe.Pointer {
			t.Error("create called on a library without a destroyer")
			return nil
		},
	}}
	opener.libs["e.so"] = &fakeLibrary{symbols: map[string]any{
		sdk.CreateSymbol:  func() unsafe.Pointer { return nil },
		sdk.DestroySymbol: func(unsafe.Pointer) {},
	}}
	opener.libs["f.so"] = &fakeLibrary{symbols: map[string]any{
		sdk.CreateSymbol:  "not a function",
		sdk.DestroySymbol: func(unsafe.Pointer) {},
	}}
	opener.libs["g.so"] = exportLibrary(t, "g.so", &testPlugin{id: "g", rec: rec})

	m := newTestManager(opener, dir)

	var skipped []error
	m.Subscribe(func(e ManagerEvent) {
		if e.Type == EventPluginSkipped {
			skipped = append(skipped, e.Error)
		}
	})

	if n := m.LoadPlugins(); n != 2 {
		t.Fatalf("LoadPlugins() = %d, want 2", n)
	}
	if len(skipped) != 5 {
		t.Fatalf("skipped %d libraries, want 5", len(skipped))
	}

	wantErrs := []error{errOpenFailed, ErrSymbolNotFound, ErrSymbolNotFound, ErrNilHandle, ErrBadSymbol}
	for i, want := range wantErrs {
		if !errors.Is(skipped[i], want) {
			t.Errorf("skip %d error = %v, want %v", i, skipped[i], want)
		}
	}
}

func TestManagerLifecycle(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so", "b.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "a", rec: rec})
	opener.libs["b.so"] = exportLibrary(t, "b.so", &testPlugin{id: "b", rec: rec})

	m := newTestManager(opener, dir)
	m.LoadPlugins()

	m.OnLoad(nopRender{})
	m.OnLoad(nopRender{})
	m.UI(nopRender{}, sdk.NewEditorContext(""))
	m.MenuUI(nopMenu{}, sdk.NewEditorContext(""))
	m.OnUnload()
	m.Shutdown()
	m.Shutdown()

	want := []string{
		"load:a", "load:b",
		"ui:a", "ui:b",
		"menu:a", "menu:b",
		"unload:a", "unload:b",
		"destroy:a.so", "destroy:b.so",
	}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
	if m.State() != StateEmpty {
		t.Errorf("State() = %v, want %v", m.State(), StateEmpty)
	}
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestManagerShutdownDeliversPendingUnload(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "a", rec: rec})

	m := newTestManager(opener, dir)
	m.LoadPlugins()
	m.OnLoad(nopRender{})
	m.Shutdown()

	want := []string{"load:a", "unload:a", "destroy:a.so"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
}

func TestManagerNoCallsAfterShutdown(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "a", rec: rec, ui: sdk.ReplaceAll("x")})

	m := newTestManager(opener, dir)
	m.LoadPlugins()
	handles := m.Handles()
	m.Shutdown()

	if a := m.UI(nopRender{}, sdk.NewEditorContext("")); !a.IsNone() {
		t.Errorf("UI() after Shutdown() = %v, want none", a)
	}
	m.OnUnload()

	if len(rec.calls) != 2 {
		t.Errorf("calls = %v, want unload and destroy only", rec.calls)
	}
	if !handles[0].IsClosed() || handles[0].Plugin() != nil {
		t.Error("handle not closed by Shutdown()")
	}
}

func TestManagerActionLastWins(t *testing.T) {
	tests := []struct {
		name  string
		first sdk.Action
		last  sdk.Action
		want  sdk.Action
	}{
		{"both none", sdk.None(), sdk.None(), sdk.None()},
		{"first only", sdk.ReplaceAll("A"), sdk.None(), sdk.ReplaceAll("A")},
		{"last only", sdk.None(), sdk.ReplaceSelection("B"), sdk.ReplaceSelection("B")},
		{"both", sdk.ReplaceAll("A"), sdk.ReplaceAll("B"), sdk.ReplaceAll("B")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, "1.so", "2.so")

			rec := &recorder{}
			opener := newFakeOpener()
			opener.libs["1.so"] = exportLibrary(t, "1.so", &testPlugin{id: "1", rec: rec, ui: tt.first, menu: tt.first})
			opener.libs["2.so"] = exportLibrary(t, "2.so", &testPlugin{id: "2", rec: rec, ui: tt.last, menu: tt.last})

			m := newTestManager(opener, dir)
			m.LoadPlugins()
			defer m.Shutdown()

			ed := sdk.NewEditorContext("text")
			if got := m.UI(nopRender{}, ed); got != tt.want {
				t.Errorf("UI() = %v, want %v", got, tt.want)
			}
			if got := m.MenuUI(nopMenu{}, ed); got != tt.want {
				t.Errorf("MenuUI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManagerPluginsSeeSameSnapshot(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so", "b.so")

	rec := &recorder{}
	a := &testPlugin{id: "a", rec: rec, mutate: true, ui: sdk.ReplaceAll("from a")}
	b := &testPlugin{id: "b", rec: rec}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", a)
	opener.libs["b.so"] = exportLibrary(t, "b.so", b)

	m := newTestManager(opener, dir)
	m.LoadPlugins()
	defer m.Shutdown()

	m.UI(nopRender{}, sdk.NewEditorContext("original"))

	if a.seen != "original" || b.seen != "original" {
		t.Errorf("plugins saw %q and %q, want original", a.seen, b.seen)
	}
}

func TestManagerDuplicateIDsBothLoad(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so", "b.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "same", rec: rec})
	opener.libs["b.so"] = exportLibrary(t, "b.so", &testPlugin{id: "same", rec: rec})

	m := newTestManager(opener, dir)
	if n := m.LoadPlugins(); n != 2 {
		t.Fatalf("LoadPlugins() = %d, want 2", n)
	}
	m.OnLoad(nopRender{})
	m.Shutdown()

	want := []string{"load:same", "load:same", "unload:same", "unload:same", "destroy:a.so", "destroy:b.so"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
}

func TestManagerExplicitLibraries(t *testing.T) {
	dir, other := t.TempDir(), t.TempDir()
	touch(t, dir, "a.so")
	touch(t, other, "x.so", "a.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "a", rec: rec})
	opener.libs["x.so"] = exportLibrary(t, "x.so", &testPlugin{id: "x", rec: rec})

	m := NewManager(ManagerConfig{
		Dirs:      []string{dir},
		Libraries: []string{filepath.Join(other, "x.so"), filepath.Join(other, "a.so"), filepath.Join(other, "x.txt")},
		Openers:   map[string]Opener{".so": opener},
	})
	if n := m.LoadPlugins(); n != 2 {
		t.Fatalf("LoadPlugins() = %d, want 2", n)
	}

	list := m.List()
	if list[0].Path != filepath.Join(dir, "a.so") || list[1].Path != filepath.Join(other, "x.so") {
		t.Errorf("List() = %+v", list)
	}
}

func TestManagerEvents(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so", "b.so")

	rec := &recorder{}
	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "a", rec: rec})

	m := newTestManager(opener, dir)

	var events []ManagerEventType
	unsubscribe := m.Subscribe(func(e ManagerEvent) {
		events = append(events, e.Type)
	})
	m.Subscribe(func(ManagerEvent) {
		panic("handler panic")
	})
	m.Subscribe(nil)

	m.LoadPlugins()
	m.Shutdown()

	want := []ManagerEventType{EventPluginLoaded, EventPluginSkipped, EventPluginDestroyed}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}

	unsubscribe()
	touch(t, dir, "c.so")
	m.LoadPlugins()
	if len(events) != len(want) {
		t.Error("event delivered after unsubscribe")
	}
}

func TestManagerUnsubscribeRemovesHandler(t *testing.T) {
	m := newTestManager(newFakeOpener(), t.TempDir())

	var got []string
	first := m.Subscribe(func(ManagerEvent) { got = append(got, "first") })
	second := m.Subscribe(func(ManagerEvent) { got = append(got, "second") })
	m.Subscribe(func(ManagerEvent) { got = append(got, "third") })

	second()
	second()
	if n := m.SubscriberCount(); n != 2 {
		t.Fatalf("SubscriberCount() after unsubscribe = %d, want 2", n)
	}

	m.emitEvent(ManagerEvent{Type: EventPluginLoaded})
	if want := []string{"first", "third"}; !reflect.DeepEqual(got, want) {
		t.Errorf("handlers run = %v, want %v", got, want)
	}

	first()
	if n := m.SubscriberCount(); n != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", n)
	}
}

func TestManagerEventTypeString(t *testing.T) {
	tests := []struct {
		typ  ManagerEventType
		want string
	}{
		{EventPluginLoaded, "loaded"},
		{EventPluginSkipped, "skipped"},
		{EventPluginDestroyed, "destroyed"},
		{ManagerEventType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("ManagerEventType(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestManagerInfo(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.so")

	opener := newFakeOpener()
	opener.libs["a.so"] = exportLibrary(t, "a.so", &testPlugin{id: "a", rec: &recorder{}})

	m := newTestManager(opener, dir)
	m.LoadPlugins()
	defer m.Shutdown()

	list := m.List()
	if len(list) != 1 {
		t.Fatalf("List() returned %d entries, want 1", len(list))
	}
	info := list[0]
	if info.ID != "a" || info.Name != "Test a" || info.Path != filepath.Join(dir, "a.so") {
		t.Errorf("List()[0] = %+v", info)
	}
	if info.Instance == "" {
		t.Error("Instance is empty")
	}
	if m.Loader() == nil {
		t.Error("Loader() is nil")
	}
}

func TestManagerLoadsLuaScripts(t *testing.T) {
	dir := t.TempDir()
	script := `
local notos = require("notos")
function _create_plugin()
    return {
        id = "upper",
        menu_ui = function(self, menu, ed)
            return notos.replace_all(string.upper(ed.content))
        end,
    }
end
function _destroy_plugin(p) end
`
	writeFile(t, filepath.Join(dir, "upper.lua"), script)
	writeFile(t, filepath.Join(dir, "broken.lua"), `function _create_plugin() return {} end`)

	m := NewManager(ManagerConfig{
		Dirs:    []string{dir},
		Openers: DefaultOpeners(nil),
	})
	if n := m.LoadPlugins(); n != 1 {
		t.Fatalf("LoadPlugins() = %d, want 1", n)
	}
	defer m.Shutdown()

	got := m.MenuUI(nopMenu{}, sdk.NewEditorContext("abc"))
	if got != sdk.ReplaceAll("ABC") {
		t.Errorf("MenuUI() = %v, want replace_all ABC", got)
	}
}

func TestManagerLoadsIdenticalScriptsUnderDifferentNames(t *testing.T) {
	dir := t.TempDir()
	script := `
function _create_plugin() return { id = "twin" } end
function _destroy_plugin(p) end
`
	writeFile(t, filepath.Join(dir, "twin.lua"), script)
	writeFile(t, filepath.Join(dir, "twin_copy.lua"), script)

	m := NewManager(ManagerConfig{
		Dirs:    []string{dir},
		Openers: DefaultOpeners(nil),
	})
	defer m.Shutdown()

	if n := m.LoadPlugins(); n != 2 {
		t.Fatalf("LoadPlugins() = %d, want 2", n)
	}

	list := m.List()
	if list[0].Path != filepath.Join(dir, "twin.lua") || list[1].Path != filepath.Join(dir, "twin_copy.lua") {
		t.Errorf("List() = %+v", list)
	}
	if list[0].Instance == list[1].Instance {
		t.Error("copies share an instance id")
	}
}
