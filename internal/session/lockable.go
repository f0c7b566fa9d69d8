package session

import (
	"sort"
	"sync"
	"sync/atomic"
)

// lockOrdinals allocates a process-wide ordinal per lockable resource,
// giving every resource a stable position in one global total order.
var lockOrdinals atomic.Uint64

// Lockable is the capability shared by every resource participating in the
// ordered multi-lock protocol: exclusive lock and unlock, plus a total order
// against any other lockable.
type Lockable interface {
	order() uint64
	acquire()
	release()
}

// lockable is the embedded implementation of Lockable. The ordinal is
// assigned at creation and never changes for the lifetime of the resource.
type lockable struct {
	ordinal uint64
	mu      sync.Mutex
}

func newLockable() lockable {
	return lockable{ordinal: lockOrdinals.Add(1)}
}

func (l *lockable) order() uint64 { return l.ordinal }

func (l *lockable) acquire() { l.mu.Lock() }

func (l *lockable) release() { l.mu.Unlock() }

// locked runs fn while holding every resource in resources, acquired in
// ascending ordinal order. Two concurrent critical sections over overlapping
// resource sets therefore acquire their shared resources in the same relative
// order, so no wait cycle can form. All locks are released on every exit
// path. Resources already held by an enclosing locked call must not be
// passed again; nested sections declare only the additional resources.
func locked(fn func() error, resources ...Lockable) error {
	sorted := make([]Lockable, len(resources))
	copy(sorted, resources)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].order() < sorted[j].order()
	})

	for _, resource := range sorted {
		resource.acquire()
	}
	defer func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			sorted[i].release()
		}
	}()

	return fn()
}
