//go:build linux || darwin || freebsd

package smalloc

import (
	"syscall"
)

// MmapSystem maps anonymous private memory for every request. Requests
// are rounded up to whole pages by the kernel, so it suits slabs and
// large blocks better than many tiny fallback requests.
type MmapSystem struct{}

// NewMmapSystem returns an MmapSystem
func NewMmapSystem() MmapSystem {
	return MmapSystem{}
}

func (MmapSystem) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	return syscall.Mmap(-1, 0, n, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_ANON|syscall.MAP_PRIVATE)
}

// Free unmaps b. b must start at the beginning of a mapping returned by
// Alloc or Realloc and keep its capacity
func (MmapSystem) Free(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	return syscall.Munmap(b[:cap(b)])
}

func (m MmapSystem) Realloc(b []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if n <= cap(b) {
		return b[:n], nil
	}
	r, err := m.Alloc(n)
	if err != nil {
		return nil, err
	}
	copy(r, b)
	if err := m.Free(b); err != nil {
		m.Free(r)
		return nil, err
	}
	return r, nil
}
