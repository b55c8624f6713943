// Package sdk defines the contract between the Notos editor and its plugins.
//
// A plugin is a shared library that exports two functions. For Go plugins
// built with -buildmode=plugin they are:
//
//	func CreatePlugin() unsafe.Pointer
//	func DestroyPlugin(ptr unsafe.Pointer)
//
// CreatePlugin constructs a value implementing Plugin and returns a thin
// handle to it (see Box). DestroyPlugin receives that exact pointer once, when
// the editor shuts down, and releases it (see Release).
//
// # Example Plugin
//
//	package main
//
//	import (
//	    "strings"
//	    "unsafe"
//
//	    "github.com/dshills/notos/pkg/sdk"
//	)
//
//	type upper struct{ sdk.Base }
//
//	func (upper) ID() string   { return "example_upper" }
//	func (upper) Name() string { return "Uppercase" }
//
//	func (upper) MenuUI(menu sdk.MenuContext, ed sdk.EditorContext) sdk.Action {
//	    action := sdk.None()
//	    menu.Menu("Plugins", func(m sdk.MenuContext) {
//	        if m.Button("Uppercase") {
//	            action = sdk.ReplaceAll(strings.ToUpper(ed.Content))
//	            m.CloseMenu()
//	        }
//	    })
//	    return action
//	}
//
//	func CreatePlugin() unsafe.Pointer     { return sdk.Box(upper{}) }
//	func DestroyPlugin(ptr unsafe.Pointer) { sdk.Release(ptr) }
//
// # Build Requirements
//
// Go plugins share the host's runtime. A plugin must be built with the same
// toolchain, the same build flags, and the same version of this package as
// the editor that loads it, otherwise loading fails or the process crashes.
//
// # Threading
//
// Every Plugin method is called from the editor's UI goroutine, one call at a
// time, once per frame. There is no timeout: a plugin that blocks stalls the
// editor, and a plugin that panics takes the editor down with it.
package sdk
