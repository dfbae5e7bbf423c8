//go:build !(linux || darwin || freebsd)

package smalloc

import "errors"

var errMmapUnsupported = errors.New("smalloc: mmap is not supported on this platform")

// MmapSystem is unavailable on this platform, every request fails
type MmapSystem struct{}

func NewMmapSystem() MmapSystem {
	return MmapSystem{}
}

func (MmapSystem) Alloc(n int) ([]byte, error) {
	return nil, errMmapUnsupported
}

func (MmapSystem) Free(b []byte) error {
	return nil
}

func (MmapSystem) Realloc(b []byte, n int) ([]byte, error) {
	return nil, errMmapUnsupported
}
