package lua

import "errors"

// Errors for Lua script plugins.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a call runs past the execution timeout.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrSymbolNotFound is returned when a script does not define an entry point.
	ErrSymbolNotFound = errors.New("lua entry point not found")

	// ErrBadPlugin is returned when a create function does not return a table.
	ErrBadPlugin = errors.New("lua create function did not return a table")

	// ErrStaleWidget is raised when a widget handle is used after its frame.
	ErrStaleWidget = errors.New("widget used outside its frame")
)
