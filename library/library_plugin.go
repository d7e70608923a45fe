//go:build linux || darwin

package library

import "plugin"

// pluginHandle wraps the platform's dynamic-loader plugin, mirroring
// library.c's `#if FOUNDATION_PLATFORM_POSIX` branch (dlopen/dlsym).
// Go's plugin package only supports linux and darwin, matching that
// branch's reach; Windows LoadLibrary/GetProcAddress has no portable
// stdlib equivalent and is covered by library_unsupported.go instead.
type pluginHandle struct {
	p *plugin.Plugin
}

func openLibrary(path string) (handle, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return pluginHandle{p: p}, nil
}

func (h pluginHandle) lookup(name string) (any, error) {
	return h.p.Lookup(name)
}
