package ui

import (
	"github.com/dshills/notos/pkg/sdk"
)

// Headless is a Surface without a display. Every menu is treated as open,
// every widget is recorded, and clicks are scripted with Click.
//
// A scripted click is consumed by the first button whose path matches
// during a later frame.
type Headless struct {
	frame int

	widgets []Widget

	// Pending clicks and window closes, keyed by joined path
	clicks map[string]int
	closes map[string]bool

	// CloseMenu requests seen in the current frame
	menuCloses int
}

var _ Surface = (*Headless)(nil)

// NewHeadless creates a headless surface.
func NewHeadless() *Headless {
	return &Headless{
		clicks: make(map[string]int),
		closes: make(map[string]bool),
	}
}

// BeginFrame starts a new frame.
func (h *Headless) BeginFrame() {
	h.frame++
	h.widgets = h.widgets[:0]
	h.menuCloses = 0
}

// EndFrame finishes the frame.
func (h *Headless) EndFrame() {}

// Frame returns the number of frames begun.
func (h *Headless) Frame() int {
	return h.frame
}

// Render returns the window context for the current frame.
func (h *Headless) Render() sdk.RenderContext {
	return headlessRender{h: h}
}

// Menu returns the menu bar context for the current frame.
func (h *Headless) Menu() sdk.MenuContext {
	return headlessMenu{h: h}
}

// Click schedules a click on the button at path: menu labels followed by
// the entry label, or a window title followed by the button label.
func (h *Headless) Click(path ...string) {
	h.clicks[JoinPath(path...)]++
}

// PendingClicks returns the number of scheduled clicks not yet consumed.
func (h *Headless) PendingClicks() int {
	n := 0
	for _, c := range h.clicks {
		n += c
	}
	return n
}

// ClearClicks drops every scheduled click.
func (h *Headless) ClearClicks() {
	clear(h.clicks)
}

// CloseWindow schedules closing the window with title. A window declared
// with an open flag has the flag cleared in the next frame it is declared.
func (h *Headless) CloseWindow(title string) {
	h.closes[title] = true
}

// Widgets returns the widgets declared in the current frame.
func (h *Headless) Widgets() []Widget {
	out := make([]Widget, len(h.widgets))
	copy(out, h.widgets)
	return out
}

// Find returns the first widget of kind at path in the current frame.
func (h *Headless) Find(kind WidgetKind, path ...string) (Widget, bool) {
	key := JoinPath(path...)
	for _, w := range h.widgets {
		if w.Kind == kind && w.PathString() == key {
			return w, true
		}
	}
	return Widget{}, false
}

// Buttons returns the paths of all clickable widgets in the current frame.
func (h *Headless) Buttons() []string {
	var out []string
	for _, w := range h.widgets {
		if w.Kind == WidgetButton || w.Kind == WidgetMenuButton {
			out = append(out, w.PathString())
		}
	}
	return out
}

// MenuCloses returns the number of CloseMenu calls in the current frame.
func (h *Headless) MenuCloses() int {
	return h.menuCloses
}

func (h *Headless) record(kind WidgetKind, path []string) {
	h.widgets = append(h.widgets, Widget{Kind: kind, Path: path})
}

// consume reports whether a click is pending at path and consumes it.
func (h *Headless) consume(path []string) bool {
	key := JoinPath(path...)
	if h.clicks[key] == 0 {
		return false
	}
	h.clicks[key]--
	if h.clicks[key] == 0 {
		delete(h.clicks, key)
	}
	return true
}

type headlessRender struct {
	h *Headless
}

func (r headlessRender) Window(title string, open *bool, body func(p sdk.Panel)) {
	if open != nil && !*open {
		return
	}
	if r.h.closes[title] && open != nil {
		delete(r.h.closes, title)
		*open = false
		return
	}

	path := []string{title}
	r.h.record(WidgetWindow, path)
	body(headlessPanel{h: r.h, path: path})
}

type headlessPanel struct {
	h    *Headless
	path []string
}

func (p headlessPanel) Heading(text string) {
	p.h.record(WidgetHeading, appendPath(p.path, text))
}

func (p headlessPanel) Label(text string) {
	p.h.record(WidgetLabel, appendPath(p.path, text))
}

func (p headlessPanel) Separator() {
	p.h.record(WidgetSeparator, appendPath(p.path, ""))
}

func (p headlessPanel) Button(label string) bool {
	path := appendPath(p.path, label)
	p.h.record(WidgetButton, path)
	return p.h.consume(path)
}

type headlessMenu struct {
	h    *Headless
	path []string
}

func (m headlessMenu) Menu(label string, body func(m sdk.MenuContext)) {
	path := appendPath(m.path, label)
	m.h.record(WidgetMenu, path)
	body(headlessMenu{h: m.h, path: path})
}

func (m headlessMenu) Button(label string) bool {
	path := appendPath(m.path, label)
	m.h.record(WidgetMenuButton, path)
	return m.h.consume(path)
}

func (m headlessMenu) CloseMenu() {
	m.h.menuCloses++
}
