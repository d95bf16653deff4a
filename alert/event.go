package alert

// Priority is either PriorityNormal (droppable first under overload)
// or PriorityReserved (retains a dedicated capacity tier the normal
// tier cannot encroach on). See RingBuffer's admission rule.
type Priority uint8

const (
	PriorityNormal   Priority = 0
	PriorityReserved Priority = 1
)

// Event is the contract concrete alert types satisfy to be posted
// through a Dispatcher. The concrete kinds and their payloads are
// deliberately outside this package's scope (they belong to the host);
// what this package owns is the abstract contract and the machinery
// that pools, queues and delivers values satisfying it.
//
// Hosts should not implement Event by hand; embed BaseEvent instead,
// which supplies the kind identity and arena binding the pool and
// dispatcher require, and keeps the binding methods unexported so only
// this package can set them.
type Event interface {
	// Kind returns the stable kind identifier bound when the event was
	// acquired from the pool.
	Kind() KindID

	// ArenaRef returns the arena backing this event's variable-length
	// fields, resolvable through Dispatcher.Resolve.
	ArenaRef() ArenaRef

	// Reset clears the event so pooled storage is safe to reuse.
	// Types embedding BaseEvent and adding their own fields must call
	// BaseEvent.Reset() as part of their own Reset.
	Reset()

	bindKind(KindID)
	bindArena(ArenaRef)
}

// BaseEvent is embedded by concrete alert types to satisfy Event.
type BaseEvent struct {
	kind  KindID
	arena ArenaRef
}

// Kind returns the kind identifier bound at acquisition time.
func (b *BaseEvent) Kind() KindID { return b.kind }

// ArenaRef returns the arena binding set at acquisition time.
func (b *BaseEvent) ArenaRef() ArenaRef { return b.arena }

func (b *BaseEvent) bindKind(k KindID)    { b.kind = k }
func (b *BaseEvent) bindArena(r ArenaRef) { b.arena = r }

// Reset clears the base bookkeeping fields. Embedding types that carry
// their own fields must call this explicitly from their own Reset.
func (b *BaseEvent) Reset() {
	b.kind = 0
	b.arena = ArenaRef{}
}
