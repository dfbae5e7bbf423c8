package smalloc

import (
	"fmt"
	"log/slog"
)

// System is the memory source underneath the allocator. Alloc returns a
// slice of exactly n bytes on success, Free releases a slice obtained from
// Alloc or Realloc, and Realloc resizes it while keeping its contents.
// Implementations report exhaustion through the returned error.
//
// Free blocks keep their list links in their own memory as plain addresses,
// so memory used for slabs must live outside of the Go heap
type System interface {
	Alloc(n int) ([]byte, error)
	Free(b []byte) error
	Realloc(b []byte, n int) ([]byte, error)
}

// OOMHandler is called with the request size and the system's error when
// memory cannot be obtained by any other means. Returning nil signals that
// memory has been released and the request should be retried once. Any
// other error is returned to the caller of the allocator as is
type OOMHandler func(n int, err error) error

// DefaultOOMHandler returns a handler that logs the failure and gives up
func DefaultOOMHandler(logger *slog.Logger) OOMHandler {
	return func(n int, err error) error {
		logger.Error("out of memory", "size", n, "err", err)
		return fmt.Errorf("%w: request of %d bytes: %v", ErrOutOfMemory, n, err)
	}
}

// fallback wraps a System 1:1 and adds the out-of-memory hook.
// It serves requests larger than MaxBytes and the allocator's last
// resort request when growth and cannibalization both failed
type fallback struct {
	system System
	oom    OOMHandler
}

func (f *fallback) alloc(n int) ([]byte, error) {
	b, err := f.system.Alloc(n)
	if err == nil {
		return b, nil
	}
	if herr := f.oom(n, err); herr != nil {
		return nil, herr
	}
	b, err = f.system.Alloc(n)
	if err != nil {
		return nil, fmt.Errorf("%w: request of %d bytes after handler: %v", ErrOutOfMemory, n, err)
	}
	return b, nil
}

func (f *fallback) free(b []byte) error {
	return f.system.Free(b)
}

func (f *fallback) realloc(b []byte, n int) ([]byte, error) {
	r, err := f.system.Realloc(b, n)
	if err == nil {
		return r, nil
	}
	if herr := f.oom(n, err); herr != nil {
		return nil, herr
	}
	r, err = f.system.Realloc(b, n)
	if err != nil {
		return nil, fmt.Errorf("%w: resize to %d bytes after handler: %v", ErrOutOfMemory, n, err)
	}
	return r, nil
}
