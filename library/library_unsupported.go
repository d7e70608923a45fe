//go:build !linux && !darwin

package library

import "errors"

// errUnsupported matches library.c's `#else` branch, which logs
// ERROR_NOT_IMPLEMENTED and returns a null object on platforms lacking
// FOUNDATION_SUPPORT_LIBRARY_LOAD (anything but POSIX or Windows). Go's
// stdlib plugin package only covers linux/darwin, so every other GOOS
// gets the same documented no-op here.
var errUnsupported = errors.New("library: dynamic loading not implemented for this platform")

func openLibrary(path string) (handle, error) {
	return nil, errUnsupported
}
