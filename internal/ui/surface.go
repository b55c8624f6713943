// Package ui provides the immediate-mode surfaces plugins draw on.
//
// A Surface is driven one frame at a time:
//
//	s.BeginFrame()
//	action := manager.MenuUI(s.Menu(), ed)
//	...
//	action = manager.UI(s.Render(), ed)
//	s.EndFrame()
//
// Headless records widgets in memory and answers scripted clicks; it backs
// tests and the command-line apply mode. Terminal draws to a tcell screen.
package ui

import (
	"strings"

	"github.com/dshills/notos/pkg/sdk"
)

// Surface is a frame-based UI a host draws through.
type Surface interface {
	// BeginFrame starts a new frame and discards the previous frame's widgets.
	BeginFrame()

	// Render returns the drawing context for plugin windows.
	Render() sdk.RenderContext

	// Menu returns the context for the main menu bar.
	Menu() sdk.MenuContext

	// EndFrame finishes the frame and presents it.
	EndFrame()
}

// WidgetKind identifies a recorded widget.
type WidgetKind int

const (
	WidgetMenu WidgetKind = iota
	WidgetMenuButton
	WidgetWindow
	WidgetHeading
	WidgetLabel
	WidgetSeparator
	WidgetButton
)

// String returns a string representation of the kind.
func (k WidgetKind) String() string {
	switch k {
	case WidgetMenu:
		return "menu"
	case WidgetMenuButton:
		return "menu-button"
	case WidgetWindow:
		return "window"
	case WidgetHeading:
		return "heading"
	case WidgetLabel:
		return "label"
	case WidgetSeparator:
		return "separator"
	case WidgetButton:
		return "button"
	default:
		return "unknown"
	}
}

// Widget is a widget declared during a frame.
type Widget struct {
	Kind WidgetKind

	// Path is the chain of menus or the window title leading to the widget,
	// ending with the widget's own label.
	Path []string
}

// Label returns the widget's own label.
func (w Widget) Label() string {
	if len(w.Path) == 0 {
		return ""
	}
	return w.Path[len(w.Path)-1]
}

// PathSeparator joins path elements in PathString.
const PathSeparator = " > "

// PathString returns the widget path joined with PathSeparator.
func (w Widget) PathString() string {
	return JoinPath(w.Path...)
}

// JoinPath joins path elements with PathSeparator.
func JoinPath(path ...string) string {
	return strings.Join(path, PathSeparator)
}

// SplitPath splits a path written as "Edit > Base64 > Encode". Elements are
// trimmed of surrounding spaces.
func SplitPath(s string) []string {
	parts := strings.Split(s, ">")
	path := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			path = append(path, p)
		}
	}
	return path
}

// appendPath returns a new slice, so recorded paths never alias.
func appendPath(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}
