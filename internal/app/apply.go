package app

import (
	"fmt"

	"github.com/dshills/notos/internal/ui"
)

// ApplyMenu clicks the menu entry at path on a headless surface and applies
// whatever the plugins return. Start must have been called with h.
//
// It returns ErrMenuItemNotFound when no menu declared the entry during
// the frame.
func (app *Application) ApplyMenu(h *ui.Headless, path ...string) (bool, error) {
	if app.shutdown.Load() {
		return false, ErrShutDown
	}

	h.ClearClicks()
	h.Click(path...)
	changed := app.Frame(h)

	if h.PendingClicks() > 0 {
		h.ClearClicks()
		return changed, fmt.Errorf("%w: %s", ErrMenuItemNotFound, ui.JoinPath(path...))
	}
	return changed, nil
}
