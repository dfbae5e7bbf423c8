package smalloc

import (
	"log/slog"

	"github.com/rcrowley/go-metrics"
)

// Stats is a snapshot of the allocator's state and event counters
type Stats struct {
	// HeapSize is the total number of bytes ever obtained from the system for slabs
	HeapSize int
	// ArenaFree is the number of bytes left in the current slab
	ArenaFree int
	// FreeBlocks is the number of queued blocks per size class
	FreeBlocks [NumClasses]int

	SystemAllocs     int64 // slabs obtained from the system
	Refills          int64 // free list misses served by carving the arena
	Splices          int64 // arena leftovers moved onto a free list
	Cannibalized     int64 // larger free blocks reclaimed as arena
	LastResortAllocs int64 // arena requests served by the fallback allocator
	FallbackAllocs   int64 // requests larger than MaxBytes
	FallbackFrees    int64 // releases of blocks larger than MaxBytes
}

// allocMetrics holds the instruments behind Stats. They are created per
// allocator and additionally registered under the configured name
type allocMetrics struct {
	heapSize         metrics.Gauge
	arenaFree        metrics.Gauge
	systemAllocs     metrics.Counter
	refills          metrics.Counter
	splices          metrics.Counter
	cannibalized     metrics.Counter
	lastResortAllocs metrics.Counter
	fallbackAllocs   metrics.Counter
	fallbackFrees    metrics.Counter

	registered []string
}

func newAllocMetrics(name string, r metrics.Registry, logger *slog.Logger) *allocMetrics {
	m := &allocMetrics{
		heapSize:         metrics.NewGauge(),
		arenaFree:        metrics.NewGauge(),
		systemAllocs:     metrics.NewCounter(),
		refills:          metrics.NewCounter(),
		splices:          metrics.NewCounter(),
		cannibalized:     metrics.NewCounter(),
		lastResortAllocs: metrics.NewCounter(),
		fallbackAllocs:   metrics.NewCounter(),
		fallbackFrees:    metrics.NewCounter(),
	}
	m.each(func(suffix string, metric interface{}) {
		if err := r.Register(name+"/"+suffix, metric); err != nil {
			logger.Debug("metric not registered", "name", name+"/"+suffix, "err", err)
			return
		}
		m.registered = append(m.registered, name+"/"+suffix)
	})
	return m
}

func (m *allocMetrics) each(f func(suffix string, metric interface{})) {
	f("heap/size", m.heapSize)
	f("arena/free", m.arenaFree)
	f("system/allocs", m.systemAllocs)
	f("refills", m.refills)
	f("splices", m.splices)
	f("cannibalized", m.cannibalized)
	f("lastresort/allocs", m.lastResortAllocs)
	f("fallback/allocs", m.fallbackAllocs)
	f("fallback/frees", m.fallbackFrees)
}

// unregister removes the metrics this allocator managed to register
func (m *allocMetrics) unregister(r metrics.Registry) {
	for _, name := range m.registered {
		r.Unregister(name)
	}
	m.registered = nil
}

// Stats returns a snapshot of the allocator's state
func (a *Allocator) Stats() Stats {
	s := Stats{
		HeapSize:         a.heapSize,
		ArenaFree:        int(a.endFree - a.startFree),
		SystemAllocs:     a.metrics.systemAllocs.Count(),
		Refills:          a.metrics.refills.Count(),
		Splices:          a.metrics.splices.Count(),
		Cannibalized:     a.metrics.cannibalized.Count(),
		LastResortAllocs: a.metrics.lastResortAllocs.Count(),
		FallbackAllocs:   a.metrics.fallbackAllocs.Count(),
		FallbackFrees:    a.metrics.fallbackFrees.Count(),
	}
	for i := range s.FreeBlocks {
		s.FreeBlocks[i] = a.lists.count(i)
	}
	return s
}
