package smalloc

import (
	"github.com/replay/go-small-alloc/internal/rawmem"
)

// The arena is the unused tail [startFree, endFree) of the most recent
// slab. Blocks are carved from its front, and whatever cannot hold a
// single block of the requested size is spliced onto a free list before
// the arena is replaced.

// chunkAlloc carves up to nobjs consecutive blocks of size bytes out of the arena.
// size must be a rounded class size.
// On success it returns the address of the first block and the number of
// blocks carved, which is at least one and never more than nobjs.
// On failure the returned error is the one of the out-of-memory handler
func (a *Allocator) chunkAlloc(size, nobjs int) (uintptr, int, error) {
	for {
		total := size * nobjs
		left := int(a.endFree - a.startFree)

		// the arena holds the whole run
		if left >= total {
			return a.carve(total), nobjs, nil
		}

		// the arena holds at least one block, hand out as many as fit
		if left >= size {
			nobjs = left / size
			return a.carve(size * nobjs), nobjs, nil
		}

		// not even one block fits, keep the leftover and grow
		a.spliceLeftover()

		bytesToGet := GrowthMultiplier*total + RoundUp(a.heapSize>>HeapShift)
		slab, err := a.fallback.system.Alloc(bytesToGet)
		if err == nil {
			a.metrics.systemAllocs.Inc(1)
			a.logger.Debug("slab allocated", "size", bytesToGet, "heap", a.heapSize+bytesToGet)
			a.installSlab(slab[:bytesToGet])
			continue
		}
		a.logger.Debug("slab allocation failed", "size", bytesToGet, "err", err)

		// reclaim a free block of a larger class as the new arena
		if a.cannibalize(size) {
			continue
		}

		// nothing is left to reuse, ask the fallback for exactly what is needed
		chunk, err := a.fallback.alloc(total)
		if err != nil {
			return 0, 0, err
		}
		a.metrics.lastResortAllocs.Inc(1)
		a.logger.Info("arena served by fallback allocator", "size", total)
		a.installSlab(chunk[:total])
	}
}

// carve advances the start of the arena by n bytes and returns its old start
func (a *Allocator) carve(n int) uintptr {
	addr := a.startFree
	a.startFree += uintptr(n)
	a.metrics.arenaFree.Update(int64(a.endFree - a.startFree))
	return addr
}

// spliceLeftover moves the rest of the arena onto the free list of the size
// class it matches exactly and empties the arena. The leftover is always a
// multiple of Align smaller than any block requested from the arena
func (a *Allocator) spliceLeftover() {
	left := int(a.endFree - a.startFree)
	if left > 0 {
		a.lists.push(ClassIndex(left), a.startFree)
		a.metrics.splices.Inc(1)
	}
	a.startFree, a.endFree = 0, 0
	a.metrics.arenaFree.Update(0)
}

// installSlab records memory obtained from the system and makes it the arena
func (a *Allocator) installSlab(slab []byte) {
	a.slabs = append(a.slabs, slab)
	a.heapSize += len(slab)
	a.metrics.heapSize.Update(int64(a.heapSize))
	a.startFree = rawmem.Addr(slab)
	a.endFree = a.startFree + uintptr(len(slab))
	a.metrics.arenaFree.Update(int64(len(slab)))
}

// cannibalize takes the first free block of a class larger than size, in
// ascending order, and makes it the arena.
// It returns false if all larger free lists are empty
func (a *Allocator) cannibalize(size int) bool {
	idx, ok := a.lists.nextNonEmpty(ClassIndex(size))
	if !ok {
		return false
	}
	addr, _ := a.lists.pop(idx)
	a.startFree = addr
	a.endFree = addr + uintptr(ClassSize(idx))
	a.metrics.cannibalized.Inc(1)
	a.metrics.arenaFree.Update(int64(ClassSize(idx)))
	a.logger.Info("free block reclaimed as arena", "class", ClassSize(idx), "for", size)
	return true
}

// releaseSlabs returns every slab to the system and forgets the arena
// and all free lists, which point into those slabs
func (a *Allocator) releaseSlabs() error {
	var firstErr error
	for i, slab := range a.slabs {
		if err := a.fallback.system.Free(slab); err != nil && firstErr == nil {
			firstErr = err
		}
		a.slabs[i] = nil
	}
	a.slabs = nil
	a.lists.reset()
	a.startFree, a.endFree = 0, 0
	return firstErr
}

// Owns reports whether b lies in one of the allocator's slabs.
// Blocks larger than MaxBytes never do
func (a *Allocator) Owns(b []byte) bool {
	addr := rawmem.Addr(b)
	for _, slab := range a.slabs {
		if rawmem.Contains(slab, addr) {
			return true
		}
	}
	return false
}
