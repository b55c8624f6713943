package lua

import (
	"strings"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/notos/internal/logging"
)

// Sandbox restricts what a plugin script can reach.
//
// Scripts cannot load code from disk, and require only resolves the
// built-in libraries and modules preloaded by the host. print is routed to
// the plugin log instead of stdout, which the terminal frontend owns.
type Sandbox struct {
	log *logrus.Entry

	// Modules require may resolve
	modules map[string]bool
}

// NewSandbox creates a sandbox that logs script output to log.
func NewSandbox(log *logrus.Entry) *Sandbox {
	if log == nil {
		log = logging.WithComponent(nil, "plugin.lua")
	}
	return &Sandbox{
		log: log,
		modules: map[string]bool{
			"string": true,
			"table":  true,
			"math":   true,
		},
	}
}

// Allow lets require resolve the named module. The module must be
// preloaded with LState.PreloadModule.
func (s *Sandbox) Allow(module string) {
	s.modules[module] = true
}

// Allowed reports whether require may resolve the named module.
func (s *Sandbox) Allowed(module string) bool {
	return s.modules[module]
}

// Install applies the restrictions to L.
func (s *Sandbox) Install(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	s.installPrint(L)
	s.installRequire(L)
}

// installPrint replaces print with a version that writes to the plugin log.
func (s *Sandbox) installPrint(L *lua.LState) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.log.Info(strings.Join(parts, "\t"))
		return 0
	}))
}

// installRequire clears the module search paths and replaces require with a
// version that only resolves allowed modules.
func (s *Sandbox) installRequire(L *lua.LState) {
	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}

	original := L.GetGlobal("require")
	if original.Type() != lua.LTFunction {
		return
	}

	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !s.modules[name] {
			// RaiseError does not return.
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(original)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}
