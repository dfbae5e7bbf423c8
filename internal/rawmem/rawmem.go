// Package rawmem holds every unsafe memory access of the allocator.
//
// Memory handed out by the allocator is addressed by a plain uintptr. While a
// block sits on a free list its first machine word is reused as the link to
// the next free block, so a free block and its list node are the same bytes.
// The caller of this package must keep the backing memory alive (and, for
// Go heap memory, reachable through a slice) for as long as an address
// derived from it is in use.
package rawmem

import (
	"unsafe"
)

// WordSize is the number of bytes needed to store a free list link
const WordSize = int(unsafe.Sizeof(uintptr(0)))

// Addr returns the address of the first byte of b, or 0 if b has no capacity
func Addr(b []byte) uintptr {
	if cap(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[:1][0]))
}

// Slice builds a byte slice of length and capacity n that starts at addr.
// it is important that n does not exceed the memory owned at addr,
// otherwise anything can happen
func Slice(addr uintptr, n int) []byte {
	if addr == 0 || n <= 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

// Next reads the free list link stored in the first word of the block at addr
func Next(addr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(addr))
}

// SetNext overwrites the first word of the block at addr with a link to next
func SetNext(addr, next uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = next
}

// Contains reports whether addr lies within the memory of b
func Contains(b []byte, addr uintptr) bool {
	start := Addr(b)
	return start != 0 && addr >= start && addr < start+uintptr(cap(b))
}
