package smalloc

import "errors"

var (
	ErrOutOfMemory = errors.New("smalloc: out of memory")
	ErrInvalidSize = errors.New("smalloc: the size must be greater than zero")
	ErrClosed      = errors.New("smalloc: allocator is closed")
	ErrGoHeap      = errors.New("smalloc: Go heap memory cannot back slabs")
)
