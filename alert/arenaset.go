package alert

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// arenaGenerations is the number of scratch arenas each producer owns.
// Three is the minimum that lets rotation reserve a two-generation gap
// between "currently being written" and "safe to reset": when the
// consumer rotates generation g -> g+1, arena g is left alone (it may
// still hold events reachable from the ring buffer or the pending-
// delete list) and is only reset two rotations later, when the cycle
// comes back around to it, by which point a full drain has passed and
// those events are gone.
const arenaGenerations = 3

// ThreadArenaSet is a producer's triple-buffered scratch arena set. The
// owning producer always allocates from arenas[g]; only the owning
// producer and the consumer (during Drain) may inspect g, and only the
// consumer may advance it, via Rotate.
type ThreadArenaSet struct {
	arenas     [arenaGenerations]*ScratchArena
	generation int32 // atomic
}

func newThreadArenaSet() *ThreadArenaSet {
	ts := &ThreadArenaSet{}
	for i := range ts.arenas {
		ts.arenas[i] = newScratchArena()
	}
	return ts
}

// Current returns the arena the owning producer should allocate from.
func (ts *ThreadArenaSet) Current() *ScratchArena {
	return ts.arenas[atomic.LoadInt32(&ts.generation)]
}

// Generation returns the generation index currently being written.
func (ts *ThreadArenaSet) Generation() int32 {
	return atomic.LoadInt32(&ts.generation)
}

func (ts *ThreadArenaSet) at(g int32) *ScratchArena {
	if g < 0 || int(g) >= len(ts.arenas) {
		return nil
	}
	return ts.arenas[g]
}

// Rotate advances the generation if the current arena has been written
// to since the last rotation, resetting the arena that sits two
// generations behind it. Consumer-only; safe to call concurrently with
// the owning producer's Current() and allocations against it.
func (ts *ThreadArenaSet) Rotate() {
	g := atomic.LoadInt32(&ts.generation)
	if !ts.arenas[g].Dirty() {
		return
	}
	next := (g + 1) % arenaGenerations
	ts.arenas[next].Reset()
	atomic.StoreInt32(&ts.generation, next)
}

// ArenaRef identifies a byte range's owning arena without an event
// holding a pointer to it: just the producer's id and the generation
// that was current at allocation time. The dispatcher's producer
// registry resolves a ref back to a *ScratchArena on demand. This
// indirection avoids a circular ownership dependency between events
// and arenas during teardown.
type ArenaRef struct {
	Producer   uuid.UUID
	Generation int32
}
