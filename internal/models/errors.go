package models

import "github.com/pkg/errors"

// Error classes of the alert pipeline. Concrete errors wrap one of these,
// callers classify with errors.Is.
var (
	// ErrValidation: malformed alert, rejected before it reaches the queue.
	ErrValidation = errors.New("validation error")
	// ErrUpstreamFetch: account fetch failed, the chain was not started.
	ErrUpstreamFetch = errors.New("upstream fetch error")
	// ErrStepFailure: a single chain step failed, the chain went on.
	ErrStepFailure = errors.New("step failure")
	// ErrTimeout: the caller stopped waiting, the worker is unaffected.
	ErrTimeout = errors.New("timeout waiting for result")
	// ErrWorkerFault: unexpected panic inside the worker loop.
	ErrWorkerFault = errors.New("worker fault")

	ErrQueueFull   = errors.New("alert queue is full")
	ErrQueueClosed = errors.New("alert queue is closed")
	ErrNotFound    = errors.New("result not found")
	ErrNoFill      = errors.New("no fill data")
)
