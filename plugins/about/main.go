// Command about is a notos plugin that adds Help > About Notos.
//
//	go build -buildmode=plugin -o about.so ./plugins/about
package main

import (
	"unsafe"

	"github.com/dshills/notos/pkg/sdk"
)

const (
	menuHelp    = "Help"
	itemAbout   = "About Notos"
	windowTitle = "About Notos"
)

// version is set by build flags.
var version = "dev"

type aboutPlugin struct {
	sdk.Base
	open bool
}

func (p *aboutPlugin) ID() string   { return "notos_about" }
func (p *aboutPlugin) Name() string { return "About Plugin" }

func (p *aboutPlugin) MenuUI(menu sdk.MenuContext, _ sdk.EditorContext) sdk.Action {
	menu.Menu(menuHelp, func(m sdk.MenuContext) {
		if m.Button(itemAbout) {
			p.open = true
			m.CloseMenu()
		}
	})
	return sdk.None()
}

func (p *aboutPlugin) UI(ctx sdk.RenderContext, _ sdk.EditorContext) sdk.Action {
	if !p.open {
		return sdk.None()
	}
	ctx.Window(windowTitle, &p.open, func(panel sdk.Panel) {
		panel.Heading("Notos Text Editor")
		panel.Label("Version " + version)
		panel.Separator()
		panel.Label("A small text editor with loadable plugins.")
		if panel.Button("Close") {
			p.open = false
		}
	})
	return sdk.None()
}

var create, destroy = sdk.Export(func() sdk.Plugin { return &aboutPlugin{} })

// CreatePlugin constructs the plugin for the editor.
func CreatePlugin() unsafe.Pointer { return create() }

// DestroyPlugin releases a handle returned by CreatePlugin.
func DestroyPlugin(ptr unsafe.Pointer) { destroy(ptr) }

func main() {}
