package alert

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// SharedLatch is the producer/consumer lock: many concurrent shared
// holders (producers posting alerts) versus one exclusive holder (the
// consumer's drain, performing structural
// maintenance). The fast path for acquiring shared is a single atomic
// add plus a load; the fallback mutex is only contended while an
// exclusive holder is active or pending, which keeps producers from
// ever serializing against each other in the steady state.
type SharedLatch struct {
	sharedCount   int32 // atomic
	exclusiveFlag int32 // atomic bool
	mu            sync.Mutex
}

// AcquireShared takes the latch in shared mode.
func (l *SharedLatch) AcquireShared() {
	atomic.AddInt32(&l.sharedCount, 1)
	if atomic.LoadInt32(&l.exclusiveFlag) != 0 {
		// An exclusive holder is active or pending: undo the optimistic
		// increment and queue on the mutex instead of spinning against it.
		atomic.AddInt32(&l.sharedCount, -1)
		l.mu.Lock()
		atomic.AddInt32(&l.sharedCount, 1)
		l.mu.Unlock()
	}
}

// ReleaseShared releases a hold acquired via AcquireShared.
func (l *SharedLatch) ReleaseShared() {
	atomic.AddInt32(&l.sharedCount, -1)
}

// AcquireExclusive takes the latch in exclusive mode, blocking new
// shared acquirers and waiting for every outstanding shared holder to
// release before returning.
func (l *SharedLatch) AcquireExclusive() {
	l.mu.Lock()
	atomic.StoreInt32(&l.exclusiveFlag, 1)
	for atomic.LoadInt32(&l.sharedCount) > 0 {
		runtime.Gosched()
	}
}

// ReleaseExclusive releases the exclusive hold.
func (l *SharedLatch) ReleaseExclusive() {
	atomic.StoreInt32(&l.exclusiveFlag, 0)
	l.mu.Unlock()
}
