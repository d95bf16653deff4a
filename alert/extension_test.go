package alert

import (
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
)

func TestExtensionList_AddNotifyRemove(t *testing.T) {
	var l extensionList
	logger := log.New(io.Discard, "", 0)

	var calls int
	id := l.add(func(ev Event) { calls++ })

	ev := newTestEvent(StatusUpdateKind)
	l.notify(ev, logger)
	l.notify(ev, logger)

	if calls != 2 {
		t.Errorf("hook invoked %d times, want 2", calls)
	}

	if !l.remove(id) {
		t.Fatal("remove should report true for a registered id")
	}

	l.notify(ev, logger)
	if calls != 2 {
		t.Error("hook should not fire after removal")
	}
}

func TestExtensionList_RemoveUnknownID(t *testing.T) {
	var l extensionList
	if l.remove(uuid.Nil) {
		t.Error("remove should report false for an id that was never registered")
	}
}

func TestExtensionList_PanicIsRecovered(t *testing.T) {
	var l extensionList
	logger := log.New(io.Discard, "", 0)

	l.add(func(ev Event) { panic("boom") })

	var secondCalled bool
	l.add(func(ev Event) { secondCalled = true })

	// Must not panic out of notify, and later hooks must still run.
	l.notify(newTestEvent(StatusUpdateKind), logger)

	if !secondCalled {
		t.Error("a panicking hook should not prevent later hooks from running")
	}
}
