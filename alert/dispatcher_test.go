package alert_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fernando-rodriguez/alertqueue/alert"
)

// TestDispatcher_NotifyFiresOnZeroToOne verifies the notify callback
// fires exactly once per empty-to-non-empty transition, not once per
// post.
func TestDispatcher_NotifyFiresOnZeroToOne(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: 4, SpinBound: 20})
	defer d.Close()

	var fired int32
	d.SetNotify(func() { atomic.AddInt32(&fired, 1) })

	d.Drain()

	p := d.NewProducer()
	if !p.Post(alert.StatusUpdateKind, nil) {
		t.Fatal("first post should be admitted")
	}
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("notify fired %d times after first post, want 1", got)
	}

	p.Post(alert.StatusUpdateKind, nil)
	p.Post(alert.StatusUpdateKind, nil)
	if got := atomic.LoadInt32(&fired); got != 1 {
		t.Fatalf("notify fired %d times after further posts without a drain, want 1", got)
	}

	d.Drain()
	p.Post(alert.StatusUpdateKind, nil)
	if got := atomic.LoadInt32(&fired); got != 2 {
		t.Fatalf("notify fired %d times after post-drain-post, want 2", got)
	}
}

// TestDispatcher_ReliableExtensionOnDrop verifies a reliable extension
// is invoked for a post that fails admission once the reserved tier is
// full.
func TestDispatcher_ReliableExtensionOnDrop(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: 2, SpinBound: 20})
	defer d.Close()

	var mu sync.Mutex
	var seen []alert.Event
	d.AddReliableExtension(func(ev alert.Event) {
		mu.Lock()
		seen = append(seen, ev)
		mu.Unlock()
	})

	p := d.NewProducer()
	for i := 0; i < 4; i++ { // fills the 2L=4 reserved tier for priority-1
		if !p.Post(alert.ErrorKind, nil) {
			t.Fatalf("post %d should have been admitted while filling the reserved tier", i)
		}
	}

	if p.Post(alert.ErrorKind, nil) {
		t.Fatal("post beyond 2L should be dropped")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 {
		t.Fatalf("reliable extension invoked %d times, want exactly 1", len(seen))
	}
}

// TestDispatcher_DeferredResize verifies SetQueueSizeLimit only takes
// effect at the next Drain, not immediately.
func TestDispatcher_DeferredResize(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: 2, SpinBound: 20})
	defer d.Close()

	d.SetQueueSizeLimit(8)

	p := d.NewProducer()
	admitted := 0
	for i := 0; i < 4; i++ {
		if p.Post(alert.StatusUpdateKind, nil) {
			admitted++
		}
	}
	if admitted != 2 {
		t.Fatalf("admitted %d of 4 posts before the resize takes effect, want 2", admitted)
	}

	d.Drain()

	admitted = 0
	for i := 0; i < 8; i++ {
		if p.Post(alert.StatusUpdateKind, nil) {
			admitted++
		}
	}
	if admitted != 8 {
		t.Fatalf("admitted %d of 8 posts after the resize took effect, want 8", admitted)
	}
}

// TestDispatcher_ArenaIsolationAcrossDrains verifies an arena-backed
// payload read after a drain stays valid across a further post from the
// same producer. Validity after the second drain is not checked.
func TestDispatcher_ArenaIsolationAcrossDrains(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: 4, SpinBound: 20})
	defer d.Close()

	p := d.NewProducer()

	msg := make([]byte, 1<<20)
	for i := range msg {
		msg[i] = 0xAA
	}

	p.Post(alert.PeerEventKind, func(ev alert.Event, arena *alert.ScratchArena) {
		ev.(*alert.PeerEventAlert).SetMessage(arena, msg)
	})

	batch := d.Drain()
	if len(batch) != 1 {
		t.Fatalf("drained %d events, want 1", len(batch))
	}
	pe := batch[0].(*alert.PeerEventAlert)
	arena := d.Resolve(pe.ArenaRef())
	if arena == nil {
		t.Fatal("Resolve returned nil for a live arena ref")
	}
	readBack := pe.Message(arena)
	if len(readBack) != len(msg) || readBack[0] != 0xAA {
		t.Fatalf("payload readback corrupted: len=%d first=%#x", len(readBack), readBack[0])
	}

	// A further post from the same producer must not corrupt the read
	// taken above -- it only stays valid up to the start of the *next*
	// drain, not indefinitely.
	p.Post(alert.StatusUpdateKind, nil)
	if readBack[0] != 0xAA {
		t.Fatal("a subsequent post from the same producer corrupted an outstanding read before the next drain")
	}

	// The second drain releases batch N's events back to the pool
	// (Release resets them); outstanding reads are no longer guaranteed
	// valid past this point.
	d.Drain()
}

// TestDispatcher_BoundedAdmissionUnderConcurrentPost verifies that with
// N producers posting priority-0 and no consumer draining, admitted
// count never exceeds L.
func TestDispatcher_BoundedAdmissionUnderConcurrentPost(t *testing.T) {
	const limit = 4
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: limit, SpinBound: 20})
	defer d.Close()

	var wg sync.WaitGroup
	var admitted int64
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := d.NewProducer()
			for j := 0; j < 50; j++ {
				if p.Post(alert.StatusUpdateKind, nil) {
					atomic.AddInt64(&admitted, 1)
				}
			}
		}()
	}
	wg.Wait()

	if admitted > limit {
		t.Fatalf("admitted = %d, want <= %d (L)", admitted, limit)
	}
	if got := d.Statistics().QueueDepth; got != admitted {
		t.Errorf("queue depth = %d, want %d", got, admitted)
	}
}

// TestDispatcher_DrainExcludesConcurrentPost verifies that no producer
// observes Post running concurrently with an active Drain in a way that
// corrupts queue depth bookkeeping.
func TestDispatcher_DrainExcludesConcurrentPost(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: 50, SpinBound: 20})
	defer d.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var posted int64

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := d.NewProducer()
			for {
				select {
				case <-stop:
					return
				default:
					if p.Post(alert.StatusUpdateKind, nil) {
						atomic.AddInt64(&posted, 1)
					}
				}
			}
		}()
	}

	var drained int64
	drainDeadline := time.Now().Add(50 * time.Millisecond)
	for time.Now().Before(drainDeadline) {
		drained += int64(len(d.Drain()))
	}
	close(stop)
	wg.Wait()
	drained += int64(len(d.Drain()))

	if drained != posted {
		t.Fatalf("drained %d events total, want %d (every admitted post accounted for exactly once)", drained, posted)
	}
}

// TestDispatcher_ShouldPostSteadyMask verifies ShouldPost gives the same
// answer on repeated calls under a steady category mask, and that the
// configured mask admits and excludes the expected kinds.
func TestDispatcher_ShouldPostSteadyMask(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: 4, CategoryMask: alert.CategoryStatus})
	defer d.Close()

	first := d.ShouldPost(alert.StatusUpdateKind)
	for i := 0; i < 100; i++ {
		if d.ShouldPost(alert.StatusUpdateKind) != first {
			t.Fatal("ShouldPost disagreed with itself under a steady category mask")
		}
	}
	if !first {
		t.Error("StatusUpdateKind should pass the mask that includes CategoryStatus")
	}
	if d.ShouldPost(alert.ErrorKind) {
		t.Error("ErrorKind should not pass a mask that excludes CategoryError")
	}
}

func TestDispatcher_QueueSizeLimitGetter(t *testing.T) {
	d := alert.NewDispatcher(alert.DispatcherConfig{QueueSizeLimit: 3})
	defer d.Close()

	if got := d.QueueSizeLimit(); got != 3 {
		t.Errorf("QueueSizeLimit = %d, want 3", got)
	}
}
