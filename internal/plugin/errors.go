package plugin

import "errors"

// Plugin system errors.
var (
	// ErrNoOpener is returned when no opener is registered for a file extension.
	ErrNoOpener = errors.New("no opener for plugin file extension")

	// ErrUnsupportedPlatform is returned when native plugins cannot be loaded
	// on the running platform.
	ErrUnsupportedPlatform = errors.New("native plugins are not supported on this platform")

	// ErrSymbolNotFound is returned when a library does not export a required symbol.
	ErrSymbolNotFound = errors.New("plugin symbol not found")

	// ErrBadSymbol is returned when an exported symbol has the wrong type.
	ErrBadSymbol = errors.New("plugin symbol has unexpected type")

	// ErrNilHandle is returned when a create function returns a nil handle.
	ErrNilHandle = errors.New("plugin create function returned nil")

	// ErrShutDown is returned when loading is attempted during shutdown.
	ErrShutDown = errors.New("plugin manager is shutting down")
)
