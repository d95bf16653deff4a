package alert

import (
	"fmt"
	"sync"
)

// KindID is a stable integer identity for an alert kind, assigned in
// registration order starting at 0.
type KindID int

// MaxKinds bounds how many distinct alert kinds a process may register.
// Sizing the pool's per-kind free lists as a fixed array of this length
// means acquiring or releasing pooled storage never needs a map lookup.
const MaxKinds = 256

// KindInfo is the static, compile-time-known metadata for an alert
// kind: its scheduling priority, its category bits (consulted by
// ShouldPost) and a constructor the event pool calls when a kind's free
// list is empty.
type KindInfo struct {
	Name     string
	Priority Priority
	Category uint32
	New      func() Event
}

var (
	kindMu    sync.Mutex
	kindTable [MaxKinds]KindInfo
	kindCount int
)

// RegisterKind assigns a new KindID to info and returns it. Kinds are
// meant to be registered once, typically from a package-level var
// initializer, before any Dispatcher posts against them; registration
// is not part of the producer fast path and takes a plain mutex.
func RegisterKind(info KindInfo) KindID {
	if info.New == nil {
		panic(fmt.Sprintf("alert: kind %q must supply a New constructor", info.Name))
	}

	kindMu.Lock()
	defer kindMu.Unlock()

	if kindCount >= MaxKinds {
		panic(fmt.Sprintf("alert: cannot register kind %q, MaxKinds (%d) exhausted", info.Name, MaxKinds))
	}

	id := KindID(kindCount)
	kindTable[id] = info
	kindCount++
	return id
}

func kindInfo(id KindID) KindInfo {
	kindMu.Lock()
	defer kindMu.Unlock()
	return kindTable[id]
}
