// File: api/runtime.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Capability contract the bridge is written against. A native executor backend
// implements Runtime once; the bridge never depends on a concrete executor.

package api

import "context"

// Runtime spawns units of asynchronous work on a native executor.
type Runtime interface {
	// Spawn submits task for asynchronous execution and returns immediately.
	// The context passed to task is cancelled when the handle is aborted or
	// the executor shuts down.
	Spawn(task func(ctx context.Context)) JoinHandle
}

// JoinHandle observes a single spawned task.
type JoinHandle interface {
	// Join blocks until the task has finished. It returns nil when the task
	// returned normally and a JoinError otherwise.
	Join() error
	// Done is closed once the task has finished.
	Done() <-chan struct{}
	// Abort requests cooperative cancellation of the task.
	Abort()
}

// JoinError is the failure outcome of a task.
type JoinError interface {
	error
	// IsPanic reports whether the task panicked.
	IsPanic() bool
	// IsCancelled reports whether the task was aborted or never ran.
	IsCancelled() bool
}
