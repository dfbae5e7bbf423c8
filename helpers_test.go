package smalloc

import (
	"errors"

	"github.com/rcrowley/go-metrics"
)

var errSimulated = errors.New("simulated system failure")

// testSystem is a HeapSystem that counts its calls and can be told to fail
type testSystem struct {
	inner *HeapSystem

	fail      bool // fail every Alloc and Realloc
	failAbove int  // fail Alloc and Realloc of more than failAbove bytes, if > 0
	failFree  bool // fail every Free

	allocs   int
	frees    int
	reallocs int
}

func newTestSystem() *testSystem {
	return &testSystem{inner: NewHeapSystem()}
}

func (s *testSystem) failing(n int) bool {
	return s.fail || (s.failAbove > 0 && n > s.failAbove)
}

func (s *testSystem) Alloc(n int) ([]byte, error) {
	if s.failing(n) {
		return nil, errSimulated
	}
	s.allocs++
	return s.inner.Alloc(n)
}

func (s *testSystem) Free(b []byte) error {
	if s.failFree {
		return errSimulated
	}
	s.frees++
	return s.inner.Free(b)
}

func (s *testSystem) Realloc(b []byte, n int) ([]byte, error) {
	if s.failing(n) {
		return nil, errSimulated
	}
	s.reallocs++
	return s.inner.Realloc(b, n)
}

func (s *testSystem) Close() error {
	return s.inner.Close()
}

// newTestAllocator returns an allocator on a fresh testSystem with its own registry
func newTestAllocator() (*Allocator, *testSystem, metrics.Registry) {
	sys := newTestSystem()
	reg := metrics.NewRegistry()
	cfg := NewConfig()
	cfg.Name = "test"
	cfg.System = sys
	cfg.Registry = reg
	return New(cfg), sys, reg
}

// fill writes a recognizable pattern to b
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i)
	}
}

func hasPattern(b []byte, seed byte) bool {
	for i := range b {
		if b[i] != seed+byte(i) {
			return false
		}
	}
	return true
}
