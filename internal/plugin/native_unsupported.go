//go:build !((linux || darwin || freebsd) && cgo)

package plugin

import "fmt"

func openNative(path string) (Library, error) {
	return nil, fmt.Errorf("open %s: %w", path, ErrUnsupportedPlatform)
}
