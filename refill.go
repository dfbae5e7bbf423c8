package smalloc

// refill serves a miss on the free list of the class with block size n.
// It carves a batch of BatchObjects blocks out of the arena, returns the
// first one and queues the rest on the free list. If the arena could only
// provide a single block, nothing is queued
func (a *Allocator) refill(n int) (uintptr, error) {
	chunk, nobjs, err := a.chunkAlloc(n, BatchObjects)
	if err != nil {
		return 0, err
	}
	a.metrics.refills.Inc(1)
	if nobjs > 1 {
		a.lists.threadRun(ClassIndex(n), chunk+uintptr(n), nobjs-1)
	}
	return chunk, nil
}
