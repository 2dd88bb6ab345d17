package recovery

import "errors"

var (
	// ErrQueueFull signals that the concurrency gate is at capacity. The
	// fault is not accepted and not dropped; the caller must re-submit.
	ErrQueueFull = errors.New("recovery queue full")

	// ErrUnknownFault is returned when cancelling a fault that is not
	// currently in flight.
	ErrUnknownFault = errors.New("unknown fault")
)
