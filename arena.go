package lispcore

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// gcRunThreshold is GC_RUN_THRESHOLD from spec §4.2: the number of
// newly allocated bytes, since the end of the previous collection,
// that arms the collector's soft entry point.
const gcRunThreshold = 128 * 1024

// Arena wraps allocation accounting: a running total, an optional
// hard ceiling, and the threshold arming collect-soft. It never
// allocates memory itself (Go's runtime owns that); it only tracks
// how much the interpreter believes it has allocated, exactly as the
// spec describes a "size-tracking wrapper around the process
// allocator."
type Arena struct {
	mu        sync.Mutex
	allMem    int64
	memLimit  int64
	prevRun   int64
	triggered bool

	// sizeClassActivity remembers how many records of each
	// informative size class were freed in the most recent sweeps,
	// bounded to a handful of recently active classes. It never
	// retains live pointers -- Go's own GC owns real reuse -- it is
	// purely a signal for Metrics and debug logging about which
	// record shapes churn the heap.
	sizeClassActivity *lru.Cache[uintptr, int]
}

func NewArena(memLimit int64) *Arena {
	cache, _ := lru.New[uintptr, int](64)
	return &Arena{memLimit: memLimit, sizeClassActivity: cache}
}

// Alloc charges size bytes against the running total, failing with
// ErrNoMem if memLimit is set and would be exceeded (with the 256
// byte slack spec §4.2 reserves for bookkeeping).
func (a *Arena) Alloc(size uintptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sz := int64(size)
	if a.memLimit > 0 && a.allMem+sz > a.memLimit-256 {
		return errOutOfMemory
	}
	a.allMem += sz
	if a.allMem-a.prevRun >= gcRunThreshold {
		a.triggered = true
	}
	return nil
}

// Free uncharges size bytes, called from the sweep phase for every
// object it reclaims.
func (a *Arena) Free(size uintptr) {
	a.mu.Lock()
	a.allMem -= int64(size)
	if cur, ok := a.sizeClassActivity.Get(size); ok {
		a.sizeClassActivity.Add(size, cur+1)
	} else {
		a.sizeClassActivity.Add(size, 1)
	}
	a.mu.Unlock()
}

func (a *Arena) noteSweepDone() {
	a.mu.Lock()
	a.prevRun = a.allMem
	a.triggered = false
	a.mu.Unlock()
}

func (a *Arena) shouldCollectSoft(hyperGC bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return hyperGC || a.triggered
}

func (a *Arena) TotalBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allMem
}

func (a *Arena) SetMemLimit(limit int64) {
	a.mu.Lock()
	a.memLimit = limit
	a.mu.Unlock()
}

// HotSizeClasses reports which informative record sizes have recently
// been swept, least-recently-active first (the LRU cache's key order).
func (a *Arena) HotSizeClasses() []uintptr {
	return a.sizeClassActivity.Keys()
}
