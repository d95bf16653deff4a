package alert

import (
	"log"
	"time"
)

// DispatcherConfig configures a Dispatcher's tunables. Hosts normally
// only need to set QueueSizeLimit; DefaultDispatcherConfig supplies
// sane values for the rest.
type DispatcherConfig struct {
	// QueueSizeLimit is L, the priority-0 admission ceiling. The ring
	// buffer holds up to 2*L slots so priority-1 alerts retain a
	// reserved tier the normal tier can never encroach on.
	QueueSizeLimit int

	// SpinBound is how many times Enqueue spins on a slot's publish CAS
	// before yielding the processor. Default: 20.
	SpinBound int

	// CategoryMask is the initial alert category filter consulted by
	// ShouldPost.
	CategoryMask uint32

	// MetricsInterval is how often a diagnostics consumer (see package
	// alertdiag) should poll Statistics. The dispatcher itself does not
	// read it or run a ticker, and alertdiag takes its own interval from
	// alertdiag.Config.
	MetricsInterval time.Duration

	// Logger receives warnings the dispatcher cannot otherwise surface:
	// recovered extension hook panics and reliable-extension delivery
	// failures. Defaults to log.Default() if nil.
	Logger *log.Logger
}

// DefaultDispatcherConfig returns sane tunables for a Dispatcher.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSizeLimit:  1000,
		SpinBound:       20,
		CategoryMask:    0xFFFFFFFF,
		MetricsInterval: time.Second,
	}
}
