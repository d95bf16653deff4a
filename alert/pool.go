package alert

import "sync"

// kindPool is a single kind's free list, guarded by its own mutex so
// contention on one kind never blocks acquires/releases of another.
type kindPool struct {
	mu   sync.Mutex
	free []Event
}

// EventPool is a free list of recycled events, keyed by kind. Storage
// is acquired from a kind's free list when available, or constructed
// fresh via the kind's KindInfo.New otherwise; it is never destructed
// by the pool itself, only handed back by the caller and reset by
// Release.
type EventPool struct {
	kinds [MaxKinds]kindPool
}

func newEventPool() *EventPool {
	return &EventPool{}
}

// Acquire returns an event of the given kind, reused from the free
// list if one is available, or freshly constructed otherwise.
func (p *EventPool) Acquire(kind KindID, info KindInfo) Event {
	kp := &p.kinds[kind]

	kp.mu.Lock()
	n := len(kp.free)
	if n == 0 {
		kp.mu.Unlock()
		return info.New()
	}
	ev := kp.free[n-1]
	kp.free[n-1] = nil
	kp.free = kp.free[:n-1]
	kp.mu.Unlock()

	return ev
}

// Release resets ev and returns it to its kind's free list.
func (p *EventPool) Release(kind KindID, ev Event) {
	ev.Reset()

	kp := &p.kinds[kind]
	kp.mu.Lock()
	kp.free = append(kp.free, ev)
	kp.mu.Unlock()
}

// Destroy drains every kind's free list. The pool is safe to use again
// afterward; Destroy just drops references so the GC can reclaim them.
func (p *EventPool) Destroy() {
	for i := range p.kinds {
		kp := &p.kinds[i]
		kp.mu.Lock()
		kp.free = nil
		kp.mu.Unlock()
	}
}
