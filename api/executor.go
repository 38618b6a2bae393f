// Package api
// Author: momentics
//
// Executor contract for raw task dispatch without join handles.

package api

// Executor abstracts fire-and-forget task execution on a worker pool.
type Executor interface {
	// Submit schedules task for execution.
	Submit(task func()) error

	// NumWorkers returns the number of worker goroutines.
	NumWorkers() int

	// Close stops the executor. Tasks submitted afterwards are rejected.
	Close()
}
