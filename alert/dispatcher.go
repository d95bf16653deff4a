package alert

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NotifyFunc is called on the queue's 0->1 transition -- i.e. exactly
// when the consumer should wake its message loop to poll for alerts via
// Drain. It is replaced, not accumulated: SetNotify is single-writer
// reconfiguration, like SetCategoryMask and SetQueueSizeLimit.
type NotifyFunc func()

// Dispatcher glues the ring buffer, event pool, producer arena registry
// and extension hooks together. It is the module's sole entry point for
// hosts: one Dispatcher owns one alert queue, and the host owns its
// lifetime (there is no package-level mutable state).
type Dispatcher struct {
	logger *log.Logger

	latch SharedLatch
	ring  *RingBuffer
	pool  *EventPool

	categoryMask uint32 // atomic

	notifyMu sync.Mutex
	notify   NotifyFunc

	extensions extensionList
	reliable   extensionList

	regMu    sync.RWMutex
	registry map[uuid.UUID]*ThreadArenaSet
	order    []uuid.UUID

	// pending holds the batch handed out by the previous Drain. It is
	// released back to the pool at the start of the next Drain -- the
	// caller is trusted to be done reading the previous batch by the
	// time it calls Drain again.
	pending []Event

	// requestedLimit is non-zero while a SetQueueSizeLimit call is
	// waiting to be applied at the next Drain. Zero means "no request
	// pending", so valid limits must be positive.
	requestedLimit int32 // atomic

	waitMu sync.Mutex
	waitCV *sync.Cond

	admitted      int64 // atomic
	dropped       int64 // atomic
	notifications int64 // atomic
}

// NewDispatcher constructs a Dispatcher ready to accept producers.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.QueueSizeLimit <= 0 {
		cfg.QueueSizeLimit = def.QueueSizeLimit
	}
	if cfg.SpinBound <= 0 {
		cfg.SpinBound = def.SpinBound
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	d := &Dispatcher{
		logger:   cfg.Logger,
		ring:     newRingBuffer(cfg.QueueSizeLimit, cfg.SpinBound),
		pool:     newEventPool(),
		registry: make(map[uuid.UUID]*ThreadArenaSet),
	}
	atomic.StoreUint32(&d.categoryMask, cfg.CategoryMask)
	d.waitCV = sync.NewCond(&d.waitMu)
	return d
}

// Producer is a handle a single goroutine uses to post alerts. Go has
// no portable thread-local storage and goroutines are not pinned to OS
// threads, so unlike the original's implicit "register on first post
// per calling thread", a Producer is obtained once (typically at
// goroutine start) and reused for every subsequent Post from that
// goroutine -- see DESIGN.md's Open Questions for why this is the
// idiomatic translation of ThreadArenaSet's per-owner ownership model.
type Producer struct {
	d      *Dispatcher
	id     uuid.UUID
	arenas *ThreadArenaSet
}

// NewProducer registers a new producer and its arena set with the
// dispatcher. Registration takes the shared latch; arena sets live
// until the dispatcher is discarded.
func (d *Dispatcher) NewProducer() *Producer {
	d.latch.AcquireShared()
	defer d.latch.ReleaseShared()

	ts := newThreadArenaSet()
	id := uuid.New()

	d.regMu.Lock()
	d.registry[id] = ts
	d.order = append(d.order, id)
	d.regMu.Unlock()

	return &Producer{d: d, id: id, arenas: ts}
}

// Arena returns the producer's current scratch arena, for building a
// payload before calling Post.
func (p *Producer) Arena() *ScratchArena {
	return p.arenas.Current()
}

// Post constructs an event of the given kind and attempts to enqueue
// it. build is invoked with freshly acquired (possibly recycled) event
// storage and the producer's current arena, and should populate the
// event's fields -- including writing any variable-length payload into
// arena and recording the resulting offsets. Post returns true if the
// event was admitted, false if it was dropped because the queue was
// full at this kind's priority.
func (p *Producer) Post(kind KindID, build func(ev Event, arena *ScratchArena)) bool {
	return p.d.post(p, kind, build)
}

func (d *Dispatcher) post(p *Producer, kind KindID, build func(ev Event, arena *ScratchArena)) bool {
	d.latch.AcquireShared()
	defer d.latch.ReleaseShared()

	info := kindInfo(kind)

	ev := d.pool.Acquire(kind, info)
	ev.bindKind(kind)
	ev.bindArena(ArenaRef{Producer: p.id, Generation: p.arenas.Generation()})

	arena := p.arenas.Current()
	if build != nil {
		build(ev, arena)
	}

	admitted, zeroToOne := d.ring.Enqueue(ev, info.Priority)
	if !admitted {
		atomic.AddInt64(&d.dropped, 1)
		d.reliable.notify(ev, d.logger)
		d.pool.Release(kind, ev)
		return false
	}

	atomic.AddInt64(&d.admitted, 1)
	d.extensions.notify(ev, d.logger)

	if zeroToOne {
		atomic.AddInt64(&d.notifications, 1)
		d.fireNotify()
	}
	return true
}

func (d *Dispatcher) fireNotify() {
	d.notifyMu.Lock()
	fn := d.notify
	d.notifyMu.Unlock()

	if fn != nil {
		fn()
	}

	d.waitMu.Lock()
	d.waitCV.Broadcast()
	d.waitMu.Unlock()
}

// Drain is the consumer's batch retrieval of every alert posted since
// the previous Drain. It is not safe to call concurrently with itself:
// there is exactly one consumer.
//
// The returned slice aliases Dispatcher-owned storage and is only valid
// until the next Drain call: events in the previous batch are released
// back to the pool (and may be recycled into a new event) at the start
// of the next Drain.
func (d *Dispatcher) Drain() []Event {
	d.latch.AcquireExclusive()
	defer d.latch.ReleaseExclusive()

	for _, ev := range d.pending {
		d.pool.Release(ev.Kind(), ev)
	}
	d.pending = d.pending[:0]

	if newLimit := atomic.SwapInt32(&d.requestedLimit, 0); newLimit != 0 {
		d.ring.Resize(int(newLimit))
	}

	d.pending = d.ring.Drain(d.pending)

	d.regMu.RLock()
	for _, id := range d.order {
		d.registry[id].Rotate()
	}
	d.regMu.RUnlock()

	return d.pending
}

// Wait blocks until an event exists in the queue or timeout elapses,
// returning a peek at the head event (not removed) or nil on timeout.
// Spurious wakeups are permitted; callers should treat a non-nil return
// as a hint to call Drain, not as the authoritative retrieval.
func (d *Dispatcher) Wait(timeout time.Duration) Event {
	if ev := d.ring.Peek(); ev != nil {
		return ev
	}

	deadline := time.Now().Add(timeout)

	d.waitMu.Lock()
	defer d.waitMu.Unlock()

	for d.ring.Size() == 0 {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}
		timer := time.AfterFunc(remaining, d.wakeWaiters)
		d.waitCV.Wait()
		timer.Stop()
	}
	return d.ring.Peek()
}

func (d *Dispatcher) wakeWaiters() {
	d.waitMu.Lock()
	d.waitCV.Broadcast()
	d.waitMu.Unlock()
}

// ShouldPost reports whether kind's category bits intersect the
// current category mask. It is a relaxed hint meant to let a caller
// skip expensive event construction; it is racy with a concurrent
// SetCategoryMask by design, and repeated calls under a steady mask are
// guaranteed to agree.
func (d *Dispatcher) ShouldPost(kind KindID) bool {
	info := kindInfo(kind)
	return atomic.LoadUint32(&d.categoryMask)&info.Category != 0
}

// SetCategoryMask replaces the category filter ShouldPost consults.
func (d *Dispatcher) SetCategoryMask(mask uint32) {
	atomic.StoreUint32(&d.categoryMask, mask)
}

// CategoryMask returns the currently active category filter.
func (d *Dispatcher) CategoryMask() uint32 {
	return atomic.LoadUint32(&d.categoryMask)
}

// SetNotify replaces the 0->1 transition callback.
func (d *Dispatcher) SetNotify(fn NotifyFunc) {
	d.notifyMu.Lock()
	d.notify = fn
	d.notifyMu.Unlock()
}

// SetQueueSizeLimit requests a new value for L, effective at the next
// Drain (a resize touches the ring's backing array, which is only safe
// while no producer is mid-Enqueue). It returns the limit in effect
// before this call. n must be positive.
func (d *Dispatcher) SetQueueSizeLimit(n int) int {
	old := d.ring.SizeLimit()
	if n <= 0 {
		return old
	}
	atomic.StoreInt32(&d.requestedLimit, int32(n))
	return old
}

// QueueSizeLimit returns L as currently in effect (not reflecting a
// SetQueueSizeLimit call that has not yet applied at a Drain).
func (d *Dispatcher) QueueSizeLimit() int {
	return d.ring.SizeLimit()
}

// AddExtension registers a hook called, synchronously, on every
// successfully admitted event. It returns an id usable with
// RemoveExtension.
func (d *Dispatcher) AddExtension(hook ExtensionHook) uuid.UUID {
	d.latch.AcquireExclusive()
	defer d.latch.ReleaseExclusive()
	return d.extensions.add(hook)
}

// AddReliableExtension registers a hook called, synchronously, on
// every event dropped because admission failed -- a best-effort
// delivery to reliable extensions before the event is released back to
// the pool.
func (d *Dispatcher) AddReliableExtension(hook ExtensionHook) uuid.UUID {
	d.latch.AcquireExclusive()
	defer d.latch.ReleaseExclusive()
	return d.reliable.add(hook)
}

// RemoveExtension unregisters a hook previously returned by
// AddExtension or AddReliableExtension. It reports whether a hook with
// that id was found.
func (d *Dispatcher) RemoveExtension(id uuid.UUID) bool {
	d.latch.AcquireExclusive()
	defer d.latch.ReleaseExclusive()
	if d.extensions.remove(id) {
		return true
	}
	return d.reliable.remove(id)
}

// Resolve looks up the arena a producer was writing to at ref's
// generation, for reading back a payload an event recorded an offset
// into. It returns nil if the producer is unknown (should not happen
// for a live event) -- resolution goes through this registry, not a
// pointer the event holds, so events never directly own arena memory.
func (d *Dispatcher) Resolve(ref ArenaRef) *ScratchArena {
	d.regMu.RLock()
	ts := d.registry[ref.Producer]
	d.regMu.RUnlock()
	if ts == nil {
		return nil
	}
	return ts.at(ref.Generation)
}

// Statistics returns a point-in-time snapshot of the dispatcher's
// counters.
func (d *Dispatcher) Statistics() Statistics {
	return Statistics{
		Admitted:      atomic.LoadInt64(&d.admitted),
		Dropped:       atomic.LoadInt64(&d.dropped),
		Notifications: atomic.LoadInt64(&d.notifications),
		QueueDepth:    int64(d.ring.Size()),
		QueueLimit:    int64(d.ring.SizeLimit()),
	}
}

// Close releases pooled event storage. It does not touch the producer
// registry: registered arena sets stay referenced by the dispatcher
// until the dispatcher itself becomes unreachable.
func (d *Dispatcher) Close() {
	d.pool.Destroy()
}
