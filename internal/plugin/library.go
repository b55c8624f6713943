package plugin

import (
	"fmt"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/dshills/notos/pkg/sdk"
)

// Library is an opened plugin binary.
//
// Libraries are never closed. A live plugin may reference code and data
// owned by its library, and handle lifetimes are not tracked finely enough
// to prove that none remain, so an opened library stays mapped until the
// process exits.
type Library interface {
	// Lookup returns the exported symbol with the given name.
	Lookup(symbol string) (any, error)
}

// Opener opens a plugin file into a Library.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Library, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (Library, error) {
	return f(path)
}

// NativeExtensions are the dynamic-library extensions handed to the native opener.
var NativeExtensions = []string{".so", ".dylib", ".dll"}

// NativeOpener returns the opener for Go plugin libraries built with
// -buildmode=plugin. On platforms without plugin support every Open fails
// with ErrUnsupportedPlatform.
func NativeOpener() Opener {
	return OpenerFunc(openNative)
}

// fileExt returns the lower-cased extension of a file name, dot included.
func fileExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// normalizeExt lower-cases an extension and ensures the leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// resolveCreate resolves the create entry point from lib.
func resolveCreate(lib Library) (sdk.CreateFunc, error) {
	sym, err := lib.Lookup(sdk.CreateSymbol)
	if err != nil {
		return nil, err
	}

	var fn sdk.CreateFunc
	switch f := sym.(type) {
	case func() unsafe.Pointer:
		fn = f
	case sdk.CreateFunc:
		fn = f
	case *func() unsafe.Pointer:
		if f != nil {
			fn = *f
		}
	case *sdk.CreateFunc:
		if f != nil {
			fn = *f
		}
	default:
		return nil, fmt.Errorf("%w: %s is %T", ErrBadSymbol, sdk.CreateSymbol, sym)
	}

	if fn == nil {
		return nil, fmt.Errorf("%w: %s is nil", ErrBadSymbol, sdk.CreateSymbol)
	}
	return fn, nil
}

// resolveDestroy resolves the destroy entry point from lib.
func resolveDestroy(lib Library) (sdk.DestroyFunc, error) {
	sym, err := lib.Lookup(sdk.DestroySymbol)
	if err != nil {
		return nil, err
	}

	var fn sdk.DestroyFunc
	switch f := sym.(type) {
	case func(unsafe.Pointer):
		fn = f
	case sdk.DestroyFunc:
		fn = f
	case *func(unsafe.Pointer):
		if f != nil {
			fn = *f
		}
	case *sdk.DestroyFunc:
		if f != nil {
			fn = *f
		}
	default:
		return nil, fmt.Errorf("%w: %s is %T", ErrBadSymbol, sdk.DestroySymbol, sym)
	}

	if fn == nil {
		return nil, fmt.Errorf("%w: %s is nil", ErrBadSymbol, sdk.DestroySymbol)
	}
	return fn, nil
}
