package alert

// Statistics is a point-in-time snapshot of a Dispatcher's counters,
// suitable for periodic polling by a diagnostics consumer (see package
// alertdiag) or for assertions in tests.
type Statistics struct {
	// Admitted is the cumulative count of Post calls that returned true.
	Admitted int64

	// Dropped is the cumulative count of Post calls that returned false
	// because admission failed (the queue was full at that priority).
	Dropped int64

	// Notifications is the cumulative count of 0->1 transitions that
	// fired the notify callback.
	Notifications int64

	// QueueDepth is the number of events currently visible to the
	// consumer.
	QueueDepth int64

	// QueueLimit is L, the priority-0 admission ceiling in effect right
	// now (a deferred SetQueueSizeLimit is not reflected here until it
	// takes effect at the next Drain).
	QueueLimit int64
}
