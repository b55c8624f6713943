package app

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/dshills/notos/internal/editor"
	"github.com/dshills/notos/internal/ui"
	"github.com/dshills/notos/pkg/sdk"
)

// Host menu labels.
const (
	MenuFile      = "File"
	MenuEdit      = "Edit"
	ItemSave      = "Save"
	ItemQuit      = "Quit"
	ItemUndo      = "Undo"
	ItemSelectAll = "Select All"
)

// viewSetter is implemented by surfaces that draw the document.
type viewSetter interface {
	SetView(v ui.DocumentView)
}

// Start discovers plugins and broadcasts OnLoad within one frame on s.
// Later calls rescan for new plugin libraries and notify only the plugins
// they added.
func (app *Application) Start(s ui.Surface) error {
	if app.shutdown.Load() {
		return ErrShutDown
	}
	if app.plugins == nil {
		app.started = true
		return nil
	}

	n := app.plugins.LoadPlugins()
	app.entry.WithField("count", n).Info("Plugins loaded")

	if n > 0 || !app.started {
		s.BeginFrame()
		app.plugins.OnLoad(s.Render())
		app.present(s)
	}
	app.started = true
	return nil
}

// Frame runs one frame on s: host menus, then the plugin menu bar, then
// plugin windows. The action each plugin broadcast produces is applied to
// the document before the next broadcast sees it. Frame reports whether
// the document changed.
func (app *Application) Frame(s ui.Surface) bool {
	if app.shutdown.Load() {
		return false
	}

	s.BeginFrame()

	menu := s.Menu()
	changed := app.hostMenus(menu)

	if app.plugins != nil {
		action := app.plugins.MenuUI(menu, app.doc.Snapshot())
		changed = app.apply("menu", action) || changed

		action = app.plugins.UI(s.Render(), app.doc.Snapshot())
		changed = app.apply("window", action) || changed
	}

	app.present(s)
	return changed
}

// present hands the document to surfaces that draw it and ends the frame.
func (app *Application) present(s ui.Surface) {
	if v, ok := s.(viewSetter); ok {
		v.SetView(app.view())
	}
	s.EndFrame()
}

// view builds the terminal's picture of the document.
func (app *Application) view() ui.DocumentView {
	v := ui.DocumentView{
		Title:    app.doc.Name(),
		Content:  app.doc.Content(),
		Modified: app.doc.IsModified(),
		Cursor:   app.doc.Cursor(),
		Status:   app.status,
	}
	if r, ok := app.doc.Selection(); ok && !r.IsEmpty() {
		v.Selection = r
		v.HasSelection = true
	}
	return v
}

// hostMenus declares the editor's own menus. Plugin menus with the same
// labels are merged into them by the surface.
func (app *Application) hostMenus(menu sdk.MenuContext) bool {
	changed := false

	menu.Menu(MenuFile, func(m sdk.MenuContext) {
		if m.Button(ItemSave) {
			app.save()
			m.CloseMenu()
		}
		if m.Button(ItemQuit) {
			app.quit = true
			m.CloseMenu()
		}
	})

	menu.Menu(MenuEdit, func(m sdk.MenuContext) {
		if m.Button(ItemUndo) {
			changed = app.doc.Undo()
			m.CloseMenu()
		}
		if m.Button(ItemSelectAll) {
			app.doc.SelectAll()
			m.CloseMenu()
		}
	})

	return changed
}

// apply performs a plugin action on the document.
func (app *Application) apply(source string, action sdk.Action) bool {
	if action.IsNone() {
		return false
	}

	changed := app.doc.Apply(action)
	app.entry.WithFields(logrus.Fields{
		"source":  source,
		"action":  action.String(),
		"changed": changed,
	}).Debug("Applied plugin action")

	if changed {
		app.setStatus("Applied %s", action.Kind)
	}
	return changed
}

// save writes the document to its file.
func (app *Application) save() {
	err := app.doc.Save()
	switch {
	case errors.Is(err, editor.ErrNoPath):
		app.setStatus("Scratch buffer has no file name")
	case err != nil:
		app.entry.WithError(err).Error("Save failed")
		app.setStatus("Save failed: %v", err)
	default:
		app.setStatus("Saved %s", app.doc.Path())
	}
}
