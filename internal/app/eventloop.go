package app

import (
	"io"

	"github.com/dshills/notos/internal/ui"
)

// terminalSurface is the terminal frontend Run drives.
type terminalSurface interface {
	ui.Surface
	Init() error
	Shutdown()
	PollInput() ui.Input
}

// Run starts the terminal editor on t and blocks until the user quits.
// It does not shut the application down.
func (app *Application) Run(t terminalSurface) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	if err := t.Init(); err != nil {
		return &InitError{Component: "terminal", Err: err}
	}
	defer t.Shutdown()

	// Log lines written to stderr would corrupt the screen.
	if app.config.Log.File == "" {
		out := app.log.Out
		app.log.SetOutput(io.Discard)
		defer app.log.SetOutput(out)
	}

	if err := app.Start(t); err != nil {
		return err
	}

	for !app.quit {
		app.Frame(t)
		if app.quit {
			break
		}
		app.HandleInput(t.PollInput())
	}
	return nil
}

// HandleInput applies a terminal editing command to the document.
func (app *Application) HandleInput(in ui.Input) {
	doc := app.doc

	switch in.Kind {
	case ui.InputRune:
		doc.Insert(string(in.Rune))
	case ui.InputEnter:
		doc.Insert("\n")
	case ui.InputTab:
		doc.Insert("\t")
	case ui.InputBackspace:
		doc.Backspace()
	case ui.InputDelete:
		doc.Delete()
	case ui.InputLeft:
		doc.MoveLeft(in.Shift)
	case ui.InputRight:
		doc.MoveRight(in.Shift)
	case ui.InputUp:
		doc.MoveUp(in.Shift)
	case ui.InputDown:
		doc.MoveDown(in.Shift)
	case ui.InputHome:
		doc.MoveHome(in.Shift)
	case ui.InputEnd:
		doc.MoveEnd(in.Shift)
	case ui.InputSelectAll:
		doc.SelectAll()
	case ui.InputSave:
		app.save()
	case ui.InputUndo:
		if !doc.Undo() {
			app.setStatus("Nothing to undo")
		}
	case ui.InputQuit:
		app.quit = true
	}
}
