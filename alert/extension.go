package alert

import (
	"log"

	"github.com/google/uuid"
)

// ExtensionHook receives every event admitted to the queue (a normal
// hook) or every event dropped because admission failed (a reliable
// hook). Hooks run synchronously, inline with Post, so they must be
// fast and must not call back into the Dispatcher that invoked them.
type ExtensionHook func(ev Event)

type extensionEntry struct {
	id   uuid.UUID
	hook ExtensionHook
}

// extensionList holds a dispatcher's registered hooks. Extension lists
// are mutated only under the dispatcher's exclusive latch and read
// (notified) only under its shared latch; those two modes are mutually
// exclusive by construction, so extensionList needs no lock of its own.
type extensionList struct {
	entries []extensionEntry
}

func (l *extensionList) add(hook ExtensionHook) uuid.UUID {
	id := uuid.New()
	l.entries = append(l.entries, extensionEntry{id: id, hook: hook})
	return id
}

func (l *extensionList) remove(id uuid.UUID) bool {
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}

// notify calls every registered hook with ev, recovering and logging
// any panic so a misbehaving hook cannot poison the dispatcher.
func (l *extensionList) notify(ev Event, logger *log.Logger) {
	for _, e := range l.entries {
		invokeHook(e.hook, ev, logger)
	}
}

func invokeHook(hook ExtensionHook, ev Event, logger *log.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("alert: extension hook panicked: %v", r)
		}
	}()
	hook(ev)
}
