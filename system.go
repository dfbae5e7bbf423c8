package smalloc

import (
	"sync"

	"modernc.org/memory"
)

// HeapSystem allocates memory outside of the Go heap with a
// malloc/free/realloc allocator. It is the default System.
type HeapSystem struct {
	mu    sync.Mutex
	alloc memory.Allocator
}

// NewHeapSystem returns a ready to use HeapSystem
func NewHeapSystem() *HeapSystem {
	return &HeapSystem{}
}

func (h *HeapSystem) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc.Malloc(n)
}

func (h *HeapSystem) Free(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc.Free(b)
}

func (h *HeapSystem) Realloc(b []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc.Realloc(b, n)
}

// Close releases all memory still held by the system, including memory
// that was never freed
func (h *HeapSystem) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.alloc.Close()
}

// GoSystem takes its memory from the Go heap. Free is a no-op, the garbage
// collector reclaims memory once the allocator and its callers drop it.
//
// It cannot back slabs: an Allocator on a GoSystem serves blocks larger than
// MaxBytes only and fails smaller requests with ErrGoHeap. Use it directly or
// through SystemResource for anything else.
type GoSystem struct{}

// goHeapSystem is implemented by systems handing out Go heap memory
type goHeapSystem interface {
	goHeap()
}

func (GoSystem) goHeap() {}

func (GoSystem) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	return make([]byte, n), nil
}

func (GoSystem) Free(b []byte) error {
	return nil
}

func (GoSystem) Realloc(b []byte, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if n <= cap(b) {
		return b[:n], nil
	}
	r := make([]byte, n)
	copy(r, b)
	return r, nil
}
