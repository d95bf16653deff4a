package alert

import "testing"

func TestEventPool_AcquireConstructsWhenEmpty(t *testing.T) {
	p := newEventPool()
	info := KindInfo{Name: "t", New: func() Event { return &StatusUpdateAlert{} }}

	ev := p.Acquire(StatusUpdateKind, info)
	if ev == nil {
		t.Fatal("Acquire returned nil")
	}
	if _, ok := ev.(*StatusUpdateAlert); !ok {
		t.Errorf("Acquire returned %T, want *StatusUpdateAlert", ev)
	}
}

func TestEventPool_ReleaseRecyclesAndResets(t *testing.T) {
	p := newEventPool()
	info := kindInfo(StatusUpdateKind)

	ev := p.Acquire(StatusUpdateKind, info).(*StatusUpdateAlert)
	ev.State = "running"

	p.Release(StatusUpdateKind, ev)

	if ev.State != "" {
		t.Errorf("Release did not reset event fields: State = %q", ev.State)
	}

	recycled := p.Acquire(StatusUpdateKind, info)
	if recycled != Event(ev) {
		t.Error("Acquire after Release should return the recycled instance, got a new one")
	}
}

func TestEventPool_PerKindIsolation(t *testing.T) {
	p := newEventPool()

	statusInfo := kindInfo(StatusUpdateKind)
	errInfo := kindInfo(ErrorKind)

	status := p.Acquire(StatusUpdateKind, statusInfo)
	p.Release(StatusUpdateKind, status)

	// Acquiring a different kind must never be handed the other kind's
	// free-listed instance.
	errEv := p.Acquire(ErrorKind, errInfo)
	if errEv == status {
		t.Error("Acquire crossed kinds: got the status kind's pooled instance for an error acquire")
	}
	if _, ok := errEv.(*ErrorAlert); !ok {
		t.Errorf("Acquire(ErrorKind) returned %T, want *ErrorAlert", errEv)
	}
}

func TestEventPool_Destroy(t *testing.T) {
	p := newEventPool()
	info := kindInfo(StatusUpdateKind)

	ev := p.Acquire(StatusUpdateKind, info)
	p.Release(StatusUpdateKind, ev)

	p.Destroy()

	if len(p.kinds[StatusUpdateKind].free) != 0 {
		t.Error("Destroy should drain every kind's free list")
	}
}
