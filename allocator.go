package smalloc

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rcrowley/go-metrics"
	"github.com/replay/go-small-alloc/internal/rawmem"
)

// Allocator serves small blocks of up to MaxBytes bytes from per size class
// free lists backed by slabs obtained from a System. Larger blocks are
// passed through to the System.
//
// Blocks carry no header, the size of a block is the length of the slice
// returned for it. Deallocate and Reallocate must be called with a slice of
// exactly that length; a block released with a different size silently ends
// up on the wrong free list.
//
// An Allocator is not safe for concurrent use, see Synchronized
type Allocator struct {
	fallback *fallback
	lists    *freeLists

	// the arena: unused tail of the most recent slab
	startFree uintptr
	endFree   uintptr
	heapSize  int

	slabs      [][]byte
	ownsSystem bool
	goHeap     bool
	closed     bool

	logger   *slog.Logger
	registry metrics.Registry
	metrics  *allocMetrics
}

// New returns an allocator using the collaborators in cfg
func New(cfg Config) *Allocator {
	cfg = cfg.withDefaults()
	a := &Allocator{
		lists:    newFreeLists(),
		logger:   cfg.Logger,
		registry: cfg.Registry,
	}
	system := cfg.System
	if system == nil {
		system = NewHeapSystem()
		a.ownsSystem = true
	}
	_, a.goHeap = system.(goHeapSystem)
	a.fallback = &fallback{system: system, oom: cfg.OOMHandler}
	a.metrics = newAllocMetrics(cfg.Name, cfg.Registry, cfg.Logger)
	return a
}

// Allocate returns a block of n bytes. Blocks of up to MaxBytes bytes are
// Align aligned and have the capacity of their size class
func (a *Allocator) Allocate(n int) ([]byte, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	if !pooled(n) {
		b, err := a.fallback.alloc(n)
		if err != nil {
			return nil, err
		}
		a.metrics.fallbackAllocs.Inc(1)
		return b[:n], nil
	}
	if a.goHeap {
		return nil, ErrGoHeap
	}

	idx := ClassIndex(n)
	addr, ok := a.lists.pop(idx)
	if !ok {
		var err error
		addr, err = a.refill(ClassSize(idx))
		if err != nil {
			return nil, err
		}
	}
	return rawmem.Slice(addr, ClassSize(idx))[:n], nil
}

// Deallocate gives b back to the allocator. len(b) must be the size b was
// allocated or last reallocated with
func (a *Allocator) Deallocate(b []byte) error {
	if a.closed {
		return ErrClosed
	}
	n := len(b)
	if n == 0 {
		return ErrInvalidSize
	}
	if !pooled(n) {
		if err := a.fallback.free(b); err != nil {
			return fmt.Errorf("smalloc: free of %d bytes: %w", n, err)
		}
		a.metrics.fallbackFrees.Inc(1)
		return nil
	}
	if a.goHeap {
		return ErrGoHeap
	}
	a.lists.push(ClassIndex(n), rawmem.Addr(b))
	return nil
}

// Reallocate resizes b to n bytes, keeping its first min(len(b), n) bytes.
// If both sizes fall into the same size class, b itself is returned.
// An empty b is allocated from scratch. On error b still belongs to the caller
func (a *Allocator) Reallocate(b []byte, n int) ([]byte, error) {
	if a.closed {
		return nil, ErrClosed
	}
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	old := len(b)
	if old == 0 {
		return a.Allocate(n)
	}
	if old > MaxBytes && n > MaxBytes {
		r, err := a.fallback.realloc(b, n)
		if err != nil {
			return nil, err
		}
		return r[:n], nil
	}
	if pooled(old) && pooled(n) && RoundUp(old) == RoundUp(n) {
		return b[:n], nil
	}

	r, err := a.Allocate(n)
	if err != nil {
		return nil, err
	}
	copy(r, b)
	if err := a.Deallocate(b); err != nil {
		// r was never handed out, put it back
		a.Deallocate(r)
		return nil, err
	}
	return r, nil
}

// Close returns all slabs to the system. Blocks handed out by the allocator,
// including the ones larger than MaxBytes when the allocator created its
// own system, must not be used afterwards
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	err := a.releaseSlabs()
	a.metrics.unregister(a.registry)
	if c, ok := a.fallback.system.(io.Closer); ok && a.ownsSystem {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
