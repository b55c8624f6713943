// Package plugin loads editor plugins from dynamic libraries and script files
// and relays editor calls to them.
//
// # Discovery
//
// On startup the Manager scans its plugin directories (by default the
// "plugins" directory next to the executable). Each directory is read
// non-recursively, files are visited in lexical order, and only files whose
// extension has a registered Opener are considered:
//
//	.so .dylib .dll   native Go plugins (-buildmode=plugin)
//	.lua              Lua scripts
//
// Explicitly configured library paths are visited after the scan. A file
// name that has already been attempted is skipped for the lifetime of the
// Manager, so two directories shipping "base64.so" produce one plugin.
//
// # Entry points
//
// Every library exports a create function and a destroy function (see
// sdk.CreateSymbol and sdk.DestroySymbol). create returns a one-word handle;
// destroy takes that handle back. The Manager always destroys a handle with
// the destroy function of the library that created it.
//
// A library that cannot be opened, or lacks either symbol, is logged and
// skipped. Loading never fails as a whole.
//
// # Lifecycle
//
//	m := plugin.NewManager(plugin.ManagerConfig{Dirs: dirs, Logger: logger})
//	m.LoadPlugins()
//	m.OnLoad(ctx)
//	for running {
//	    action := m.MenuUI(menu, doc.Snapshot())
//	    ...
//	    action = m.UI(ctx, doc.Snapshot())
//	}
//	m.OnUnload()
//	m.Shutdown()
//
// UI and MenuUI call plugins in load order. When several plugins return an
// action in the same call the last one wins.
//
// Libraries are never unloaded, even after Shutdown.
//
// # Threading
//
// The Manager and every plugin run on the editor's UI goroutine. None of the
// types in this package are safe for concurrent use.
package plugin
