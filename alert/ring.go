package alert

import (
	"runtime"
	"sync/atomic"
)

// eventBox boxes an Event so a ring slot can hold it behind an atomic
// pointer; atomic.Pointer addresses a concrete type, not an interface
// value directly, so each published event is boxed once.
type eventBox struct{ ev Event }

// RingBuffer is a bounded multi-producer/single-consumer slot array
// with atomic reservation and priority-aware admission. It holds 2*L
// slots so priority-1 events can use a second, reserved tier once
// priority-0 events have filled the first L.
type RingBuffer struct {
	slots []atomic.Pointer[eventBox]

	// sizeLimit is L. It is mutated only by Resize, which the
	// dispatcher only calls while holding its exclusive latch -- i.e.
	// with no producer concurrently inside Enqueue -- so no separate
	// lock is needed here.
	sizeLimit int

	writeSlot int32 // atomic
	readSlot  int32 // atomic
	size      int32 // atomic

	spinBound int
}

func newRingBuffer(sizeLimit, spinBound int) *RingBuffer {
	rb := &RingBuffer{spinBound: spinBound}
	rb.slots = make([]atomic.Pointer[eventBox], sizeLimit*2)
	rb.sizeLimit = sizeLimit
	return rb
}

// Enqueue attempts to admit ev at the given priority without blocking.
// It returns admitted=false if doing so would exceed the priority's
// reserved tier (priority 0 caps at L slots, priority 1 at 2L).
// notifyZeroToOne reports whether this call observed the queue
// transition from empty to non-empty, so the caller can fire its
// notify callback exactly once per transition without a second atomic
// read.
func (rb *RingBuffer) Enqueue(ev Event, priority Priority) (admitted bool, notifyZeroToOne bool) {
	limit := int32(rb.sizeLimit)
	capacity := limit * 2

	var current int32
	for {
		current = atomic.LoadInt32(&rb.writeSlot)
		next := current + 1
		if next == capacity {
			next = 0
		}

		// write_slot is loaded before read_slot deliberately: under a
		// race this can only overestimate real_size, never
		// underestimate it, so we never admit past the limit.
		readSlot := atomic.LoadInt32(&rb.readSlot)
		var realSize int32
		switch {
		case current > readSlot:
			realSize = current - readSlot
		case current < readSlot:
			realSize = capacity - (readSlot - current)
		default:
			// Equal cursors mean empty or completely full; size tells which.
			realSize = atomic.LoadInt32(&rb.size)
		}

		if realSize >= limit*(1+int32(priority)) {
			return false, false
		}

		if atomic.CompareAndSwapInt32(&rb.writeSlot, current, next) {
			break
		}
	}

	box := &eventBox{ev: ev}
	slot := &rb.slots[current]
	for spins := 0; !slot.CompareAndSwap(nil, box); spins++ {
		if spins >= rb.spinBound {
			runtime.Gosched()
		}
	}

	prev := atomic.AddInt32(&rb.size, 1) - 1
	return true, prev == 0
}

// Peek returns the event currently at the read cursor without removing
// it, or nil if the queue is empty. It is racy with concurrent
// Enqueue/Drain by design -- callers use it as a hint, not a guarantee.
func (rb *RingBuffer) Peek() Event {
	if atomic.LoadInt32(&rb.size) == 0 {
		return nil
	}
	read := atomic.LoadInt32(&rb.readSlot)
	box := rb.slots[read].Load()
	if box == nil {
		return nil
	}
	return box.ev
}

// Size returns the number of events currently visible to the consumer.
func (rb *RingBuffer) Size() int {
	return int(atomic.LoadInt32(&rb.size))
}

// SizeLimit returns L, the priority-0 admission ceiling.
func (rb *RingBuffer) SizeLimit() int {
	return rb.sizeLimit
}

// Drain removes every currently visible event, appending them to dst in
// slot order (the order in which producers successfully advanced
// writeSlot for them), and advances the read cursor past them.
// Consumer-only; the caller must hold the dispatcher's exclusive latch
// so no concurrent Drain can race this one.
func (rb *RingBuffer) Drain(dst []Event) []Event {
	n := atomic.LoadInt32(&rb.size)
	if n == 0 {
		return dst
	}

	capacity := int32(len(rb.slots))
	read := atomic.LoadInt32(&rb.readSlot)

	var taken int32
	for taken < n {
		box := rb.slots[read].Swap(nil)
		if box == nil {
			// Reserved but not yet published: stop here so a later Drain
			// picks it up in slot order instead of skipping past it.
			break
		}
		dst = append(dst, box.ev)
		taken++
		read++
		if read == capacity {
			read = 0
		}
	}

	atomic.StoreInt32(&rb.readSlot, read)
	atomic.AddInt32(&rb.size, -taken)
	return dst
}

// Resize replaces the backing slot array for a new size limit,
// preserving any events still queued (not yet drained) so no event is
// lost across a resize. The caller must hold the dispatcher's
// exclusive latch, which guarantees no producer is concurrently inside
// Enqueue.
//
// If the new capacity is smaller than the number of currently queued
// events, the oldest excess events are dropped; shrinking below the
// live backlog is an edge case none of this package's tests exercise,
// and dropping the oldest (rather than panicking or blocking) keeps
// Resize itself non-blocking.
func (rb *RingBuffer) Resize(newLimit int) {
	n := atomic.LoadInt32(&rb.size)
	oldCapacity := int32(len(rb.slots))
	read := atomic.LoadInt32(&rb.readSlot)

	preserved := make([]Event, 0, n)
	for i := int32(0); i < n; i++ {
		box := rb.slots[read].Swap(nil)
		if box != nil {
			preserved = append(preserved, box.ev)
		}
		read++
		if read == oldCapacity {
			read = 0
		}
	}

	newCapacity := newLimit * 2
	if len(preserved) > newCapacity {
		preserved = preserved[len(preserved)-newCapacity:]
	}

	rb.slots = make([]atomic.Pointer[eventBox], newCapacity)
	rb.sizeLimit = newLimit
	for i, ev := range preserved {
		rb.slots[i].Store(&eventBox{ev: ev})
	}
	rb.writeSlot = int32(len(preserved)) % int32(newCapacity)
	rb.readSlot = 0
	rb.size = int32(len(preserved))
}
