package plugin

import (
	"unsafe"

	"github.com/google/uuid"

	"github.com/dshills/notos/pkg/sdk"
)

// Handle owns one plugin instance created by a library's create function.
//
// The handle stores the one-word pointer returned by create together with
// the destroy function resolved from the same library. The pointer is never
// shared outside the handle and is passed back to destroy exactly once.
type Handle struct {
	ptr     unsafe.Pointer
	destroy sdk.DestroyFunc

	path     string
	instance string

	loaded   bool // OnLoad delivered
	unloaded bool // OnUnload delivered
	closed   bool
}

// newHandle wraps a pointer returned by create and its paired destroyer.
func newHandle(ptr unsafe.Pointer, destroy sdk.DestroyFunc, path string) *Handle {
	return &Handle{
		ptr:      ptr,
		destroy:  destroy,
		path:     path,
		instance: uuid.NewString(),
	}
}

// Plugin returns the plugin behind the handle, or nil once closed.
func (h *Handle) Plugin() sdk.Plugin {
	if h.closed {
		return nil
	}
	return sdk.Unbox(h.ptr)
}

// ID returns the plugin's identifier, or "" once closed.
func (h *Handle) ID() string {
	if p := h.Plugin(); p != nil {
		return p.ID()
	}
	return ""
}

// Name returns the plugin's display name, or "" once closed.
func (h *Handle) Name() string {
	if p := h.Plugin(); p != nil {
		return p.Name()
	}
	return ""
}

// Path returns the library file the plugin was created from.
func (h *Handle) Path() string {
	return h.path
}

// Instance returns a per-process identifier for this handle, used to
// correlate log lines and events.
func (h *Handle) Instance() string {
	return h.instance
}

// IsClosed returns true if the handle has been destroyed.
func (h *Handle) IsClosed() bool {
	return h.closed
}

// Close invokes the library's destroy function with the stored pointer.
// Subsequent calls do nothing.
func (h *Handle) Close() {
	if h.closed {
		return
	}
	h.closed = true

	ptr := h.ptr
	h.ptr = nil
	h.destroy(ptr)
}
