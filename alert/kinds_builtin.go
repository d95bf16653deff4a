package alert

// Category bit values consulted by Dispatcher.ShouldPost and
// DispatcherConfig.CategoryMask. Hosts defining their own kinds are free
// to pick their own bit assignments; these three are only used by the
// illustrative built-in kinds below.
const (
	CategoryStatus uint32 = 1 << iota
	CategoryError
	CategoryPeer
)

// StatusUpdateAlert, ErrorAlert and PeerEventAlert are illustrative
// concrete alert kinds. Kind and payload layout are a host concern (see
// event.go's Event doc comment); these three exist so the dispatcher is
// runnable and testable without a host supplying its own kinds, and are
// exercised by cmd/alertbench and the package's own tests.

// StatusUpdateAlert reports a routine state transition. Priority 0:
// droppable first under overload, like most status chatter.
type StatusUpdateAlert struct {
	BaseEvent
	State string
}

func (a *StatusUpdateAlert) Reset() {
	a.BaseEvent.Reset()
	a.State = ""
}

// StatusUpdateKind is the registered KindID for StatusUpdateAlert.
var StatusUpdateKind = RegisterKind(KindInfo{
	Name:     "status_update",
	Priority: PriorityNormal,
	Category: CategoryStatus,
	New:      func() Event { return &StatusUpdateAlert{} },
})

// ErrorAlert reports a failure condition. Priority 1: reserved capacity
// so error alerts keep flowing even once the normal tier is saturated.
type ErrorAlert struct {
	BaseEvent
	Code    int
	Message string
}

func (a *ErrorAlert) Reset() {
	a.BaseEvent.Reset()
	a.Code = 0
	a.Message = ""
}

// ErrorKind is the registered KindID for ErrorAlert.
var ErrorKind = RegisterKind(KindInfo{
	Name:     "error",
	Priority: PriorityReserved,
	Category: CategoryError,
	New:      func() Event { return &ErrorAlert{} },
})

// PeerEventAlert reports an event tied to a peer connection, with a
// variable-length message stashed in the producer's current arena
// rather than held directly -- demonstrating the arena-backed payload
// pattern ScratchArena exists to support.
type PeerEventAlert struct {
	BaseEvent
	msgOff int
	msgLen int
}

func (a *PeerEventAlert) Reset() {
	a.BaseEvent.Reset()
	a.msgOff = 0
	a.msgLen = 0
}

// SetMessage writes msg into arena and records its offset. Must be
// called from the build callback passed to Producer.Post, with the same
// arena the callback receives.
func (a *PeerEventAlert) SetMessage(arena *ScratchArena, msg []byte) {
	a.msgOff = arena.Write(msg, 1)
	a.msgLen = len(msg)
}

// Message reads the payload back out of arena. arena must be resolved
// via Dispatcher.Resolve(a.ArenaRef()) by the consumer after a Drain.
func (a *PeerEventAlert) Message(arena *ScratchArena) []byte {
	return arena.Bytes(a.msgOff, a.msgLen)
}

// PeerEventKind is the registered KindID for PeerEventAlert.
var PeerEventKind = RegisterKind(KindInfo{
	Name:     "peer_event",
	Priority: PriorityNormal,
	Category: CategoryPeer,
	New:      func() Event { return &PeerEventAlert{} },
})
