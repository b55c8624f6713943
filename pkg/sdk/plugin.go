package sdk

// Plugin is the capability set every editor plugin provides.
type Plugin interface {
	// ID returns a stable identifier, unique across loaded plugins.
	ID() string

	// Name returns the human-readable display name.
	Name() string

	// OnLoad is called exactly once, after construction and before the
	// first frame. Plugins may register resources against ctx here.
	OnLoad(ctx RenderContext)

	// UI is called every frame. It may draw windows and may request at
	// most one edit action.
	UI(ctx RenderContext, ed EditorContext) Action

	// MenuUI is called every frame while the main menu bar is built.
	MenuUI(menu MenuContext, ed EditorContext) Action

	// OnUnload is called exactly once before the plugin is destroyed.
	OnUnload()
}

// Destroyer is implemented by plugins that need teardown when their handle
// is released by DestroyPlugin.
type Destroyer interface {
	Destroy()
}

// Base provides no-op implementations of the optional Plugin hooks.
// Embed it and implement ID and Name.
type Base struct{}

// OnLoad does nothing.
func (Base) OnLoad(RenderContext) {}

// UI draws nothing and returns None.
func (Base) UI(RenderContext, EditorContext) Action { return None() }

// MenuUI contributes no menu entries and returns None.
func (Base) MenuUI(MenuContext, EditorContext) Action { return None() }

// OnUnload does nothing.
func (Base) OnUnload() {}
