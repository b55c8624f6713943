package sdk

// RenderContext is the immediate-mode drawing surface for a frame.
// Widgets exist only for the frame in which they are declared.
type RenderContext interface {
	// Window declares a floating window. body runs only while the window
	// is shown. If open is non-nil the window is skipped when *open is
	// false, and *open is cleared when the user closes the window.
	Window(title string, open *bool, body func(p Panel))
}

// Panel lays out widgets inside a window.
type Panel interface {
	Heading(text string)
	Label(text string)
	Separator()

	// Button declares a button and reports whether it was clicked.
	Button(label string) bool
}

// MenuContext builds the main menu bar. Menus declared with the same label
// by different plugins are merged.
type MenuContext interface {
	// Menu declares a (sub)menu. body runs only while the menu is open.
	Menu(label string, body func(m MenuContext))

	// Button declares a menu entry and reports whether it was clicked.
	Button(label string) bool

	// CloseMenu closes the open menu after the current frame.
	CloseMenu()
}
