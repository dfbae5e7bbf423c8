package smalloc

// Allocation policy. These are fixed at compile time on purpose: every free
// list, slab computation and test in this package depends on them.
const (
	// Align is the block alignment and the distance between size classes
	Align = 8
	// MaxBytes is the largest request served from the free lists,
	// larger requests go to the fallback allocator
	MaxBytes = 128
	// NumClasses is the number of size classes and free lists
	NumClasses = MaxBytes / Align
	// BatchObjects is the number of blocks a refill tries to carve at once
	BatchObjects = 20
	// GrowthMultiplier scales the immediate need when a new slab is requested
	GrowthMultiplier = 2
	// HeapShift selects the fraction of the historical heap size (heapSize >> HeapShift)
	// that is added to each new slab request
	HeapShift = 4
)

// RoundUp rounds n up to a multiple of Align
func RoundUp(n int) int {
	return (n + Align - 1) &^ (Align - 1)
}

// ClassIndex returns the index of the size class serving n bytes.
// It is only valid for 0 < n <= MaxBytes
func ClassIndex(n int) int {
	return (n+Align-1)/Align - 1
}

// ClassSize returns the block size of the size class at index idx
func ClassSize(idx int) int {
	return (idx + 1) * Align
}

// pooled reports whether requests of n bytes are served from the free lists
func pooled(n int) bool {
	return n > 0 && n <= MaxBytes
}
