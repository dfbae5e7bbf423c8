package smalloc

import (
	"math"
	"sync"
	"unsafe"
)

// Resource is a source of raw memory blocks that containers can be built on.
// Deallocate must be given a block of the length it was allocated with
type Resource interface {
	Allocate(n int) ([]byte, error)
	Deallocate(b []byte) error
	// IsEqual reports whether blocks allocated from one resource
	// can be deallocated through the other
	IsEqual(other Resource) bool
}

// IsEqual reports whether other is this allocator or a Synchronized wrapping it
func (a *Allocator) IsEqual(other Resource) bool {
	switch o := other.(type) {
	case *Allocator:
		return o == a
	case *Synchronized:
		return o.a == a
	}
	return false
}

// Synchronized guards an Allocator with a single lock. Every operation is
// serialized, which keeps the allocator's behaviour unchanged at the cost
// of all concurrency
type Synchronized struct {
	mu sync.Mutex
	a  *Allocator
}

// NewSynchronized wraps a. a must not be used directly afterwards
func NewSynchronized(a *Allocator) *Synchronized {
	return &Synchronized{a: a}
}

func (s *Synchronized) Allocate(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(n)
}

func (s *Synchronized) Deallocate(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Deallocate(b)
}

func (s *Synchronized) Reallocate(b []byte, n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Reallocate(b, n)
}

func (s *Synchronized) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}

func (s *Synchronized) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Close()
}

func (s *Synchronized) IsEqual(other Resource) bool {
	return s.a.IsEqual(other)
}

// SystemResource allocates every block directly from a System
type SystemResource struct {
	System System
}

func (r SystemResource) Allocate(n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	return r.System.Alloc(n)
}

func (r SystemResource) Deallocate(b []byte) error {
	return r.System.Free(b)
}

func (r SystemResource) IsEqual(other Resource) bool {
	o, ok := other.(SystemResource)
	return ok && o.System == r.System
}

// Typed allocates arrays of T from a Resource.
// T must not contain Go pointers: the memory behind the returned
// slices is not scanned by the garbage collector
type Typed[T any] struct {
	Resource Resource
}

// Allocate returns a slice of n zeroed values of T.
// A zero count allocates nothing and returns nil, a count whose byte size
// overflows an int fails with ErrInvalidSize
func (t Typed[T]) Allocate(n int) ([]T, error) {
	size := int(unsafe.Sizeof(*new(T)))
	if n <= 0 || size == 0 {
		return nil, nil
	}
	if n > math.MaxInt/size {
		return nil, ErrInvalidSize
	}
	b, err := t.Resource.Allocate(n * size)
	if err != nil {
		return nil, err
	}
	clear(b)
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
}

// Deallocate gives s back to the resource. len(s) must be the count s was allocated with
func (t Typed[T]) Deallocate(s []T) error {
	size := int(unsafe.Sizeof(*new(T)))
	if len(s) == 0 || size == 0 {
		return nil
	}
	return t.Resource.Deallocate(unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size))
}
