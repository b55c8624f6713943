//go:build (linux || darwin || freebsd) && cgo

package plugin

import (
	"fmt"
	goplugin "plugin"
)

// nativeLibrary is a Go plugin opened with the standard plugin package.
type nativeLibrary struct {
	path string
	p    *goplugin.Plugin
}

func openNative(path string) (Library, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &nativeLibrary{path: path, p: p}, nil
}

// Lookup returns the exported function or variable named symbol.
func (l *nativeLibrary) Lookup(symbol string) (any, error) {
	sym, err := l.p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s: %v", ErrSymbolNotFound, symbol, l.path, err)
	}
	return sym, nil
}
