package main

import (
	"fmt"
	"math/rand"

	smalloc "github.com/replay/go-small-alloc"
)

// workload imitates the containers the allocator is meant for: nodes are
// pushed and popped in bursts, and buffers occasionally grow or shrink
// across the pooled size limit
type workload struct {
	a       *smalloc.Allocator
	rnd     *rand.Rand
	live    [][]byte
	maxLive int
	maxSize int
}

func newWorkload(a *smalloc.Allocator, maxLive, maxSize int, seed int64) *workload {
	return &workload{
		a:       a,
		rnd:     rand.New(rand.NewSource(seed)),
		live:    make([][]byte, 0, maxLive),
		maxLive: maxLive,
		maxSize: maxSize,
	}
}

func (w *workload) run(ops int) error {
	for i := 0; i < ops; i++ {
		var err error
		switch op := w.rnd.Intn(10); {
		case len(w.live) == 0 || (op < 5 && len(w.live) < w.maxLive):
			err = w.push()
		case op < 8:
			err = w.pop()
		default:
			err = w.resize()
		}
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
	}
	return nil
}

func (w *workload) push() error {
	b, err := w.a.Allocate(1 + w.rnd.Intn(w.maxSize))
	if err != nil {
		return err
	}
	b[0] = byte(len(b))
	w.live = append(w.live, b)
	return nil
}

// pop releases the most recent block most of the time, like a stack or
// deque would, and a random one otherwise
func (w *workload) pop() error {
	j := len(w.live) - 1
	if w.rnd.Intn(4) == 0 {
		j = w.rnd.Intn(len(w.live))
	}
	b := w.live[j]
	if b[0] != byte(len(b)) {
		return fmt.Errorf("block of %d bytes was overwritten", len(b))
	}
	w.live[j] = w.live[len(w.live)-1]
	w.live = w.live[:len(w.live)-1]
	return w.a.Deallocate(b)
}

func (w *workload) resize() error {
	j := w.rnd.Intn(len(w.live))
	b, err := w.a.Reallocate(w.live[j], 1+w.rnd.Intn(w.maxSize))
	if err != nil {
		return err
	}
	b[0] = byte(len(b))
	w.live[j] = b
	return nil
}

func (w *workload) drain() error {
	for len(w.live) > 0 {
		if err := w.pop(); err != nil {
			return err
		}
	}
	return nil
}
