package sdk

import "unsafe"

// Symbol names every Go plugin library exports.
const (
	CreateSymbol  = "CreatePlugin"
	DestroySymbol = "DestroyPlugin"
)

// CreateFunc constructs a plugin and returns a thin handle to it.
// The handle is never nil on success.
type CreateFunc func() unsafe.Pointer

// DestroyFunc releases a handle returned by the CreateFunc of the same
// library. A nil handle is ignored. Passing any other pointer, or the same
// pointer twice, is undefined.
type DestroyFunc func(ptr unsafe.Pointer)

// Box stores p in a heap cell and returns the cell's address.
//
// An interface value is two words wide. The cell address is one word, which
// is the only shape the host relies on when it holds the handle.
func Box(p Plugin) unsafe.Pointer {
	if p == nil {
		return nil
	}
	cell := new(Plugin)
	*cell = p
	return unsafe.Pointer(cell)
}

// Unbox returns the plugin stored behind a handle produced by Box.
// It returns nil for a nil or released handle.
func Unbox(ptr unsafe.Pointer) Plugin {
	if ptr == nil {
		return nil
	}
	return *(*Plugin)(ptr)
}

// Release empties the cell behind ptr and runs the plugin's Destroy hook if
// it implements Destroyer. After Release the plugin is unreachable from the
// handle and is reclaimed by the garbage collector.
func Release(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	cell := (*Plugin)(ptr)
	p := *cell
	*cell = nil
	if d, ok := p.(Destroyer); ok {
		d.Destroy()
	}
}

// Export returns a matching create/destroy pair for factory.
func Export(factory func() Plugin) (CreateFunc, DestroyFunc) {
	create := func() unsafe.Pointer {
		return Box(factory())
	}
	return create, Release
}
