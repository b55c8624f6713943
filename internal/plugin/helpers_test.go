package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/dshills/notos/pkg/sdk"
)

// recorder collects calls made by test plugins across a test.
type recorder struct {
	calls []string
}

func (r *recorder) add(call string) {
	r.calls = append(r.calls, call)
}

// testPlugin is a scripted sdk.Plugin.
type testPlugin struct {
	id  string
	rec *recorder

	ui   sdk.Action
	menu sdk.Action

	// Content observed by the last UI call
	seen string

	// mutate overwrites the received context to prove isolation
	mutate bool
}

func (p *testPlugin) ID() string   { return p.id }
func (p *testPlugin) Name() string { return "Test " + p.id }

func (p *testPlugin) OnLoad(sdk.RenderContext) {
	p.rec.add("load:" + p.id)
}

func (p *testPlugin) UI(_ sdk.RenderContext, ed sdk.EditorContext) sdk.Action {
	p.rec.add("ui:" + p.id)
	p.seen = ed.Content
	if p.mutate {
		ed.Content = "mutated by " + p.id
	}
	return p.ui
}

func (p *testPlugin) MenuUI(_ sdk.MenuContext, ed sdk.EditorContext) sdk.Action {
	p.rec.add("menu:" + p.id)
	return p.menu
}

func (p *testPlugin) OnUnload() {
	p.rec.add("unload:" + p.id)
}

// fakeLibrary is an in-memory Library.
type fakeLibrary struct {
	symbols map[string]any
}

func (l *fakeLibrary) Lookup(symbol string) (any, error) {
	sym, ok := l.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return sym, nil
}

// exportLibrary builds a library whose create returns p and whose destroy
// records the library name and checks it got back the pointer it created.
func exportLibrary(t *testing.T, name string, p *testPlugin) *fakeLibrary {
	t.Helper()
	var created unsafe.Pointer

	create := func() unsafe.Pointer {
		created = sdk.Box(p)
		return created
	}
	destroy := func(ptr unsafe.Pointer) {
		if ptr != created {
			t.Errorf("%s: destroy got a pointer it did not create", name)
		}
		p.rec.add("destroy:" + name)
		sdk.Release(ptr)
	}

	return &fakeLibrary{symbols: map[string]any{
		sdk.CreateSymbol:  create,
		sdk.DestroySymbol: destroy,
	}}
}

var errOpenFailed = errors.New("cannot open")

// fakeOpener opens libraries registered by base file name.
type fakeOpener struct {
	libs   map[string]Library
	opened []string
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{libs: make(map[string]Library)}
}

func (o *fakeOpener) Open(path string) (Library, error) {
	o.opened = append(o.opened, path)
	lib, ok := o.libs[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errOpenFailed, path)
	}
	return lib, nil
}

// touch creates empty files in dir.
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// newTestManager creates a manager that opens ".so" files with opener.
func newTestManager(opener Opener, dirs ...string) *Manager {
	return NewManager(ManagerConfig{
		Dirs:    dirs,
		Openers: map[string]Opener{".so": opener},
	})
}

// nopRender and nopMenu are contexts that draw nothing.
type nopRender struct{}

func (nopRender) Window(string, *bool, func(sdk.Panel)) {}

type nopMenu struct{}

func (nopMenu) Menu(string, func(sdk.MenuContext)) {}
func (nopMenu) Button(string) bool                 { return false }
func (nopMenu) CloseMenu()                         {}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
