// File: interp/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package interp

import "errors"

var (
	// ErrLoopClosed is returned when scheduling onto a closed loop.
	ErrLoopClosed = errors.New("interp: event loop is closed")

	// ErrLoopRunning is returned when starting or closing a loop that is already running.
	ErrLoopRunning = errors.New("interp: event loop is already running")

	// ErrLoopStopped is returned by RunUntilComplete when the loop was stopped
	// before the awaited future settled.
	ErrLoopStopped = errors.New("interp: event loop stopped before future completed")

	// ErrNoRunningLoop is returned when an operation needs the running loop
	// but the State is not executing inside one.
	ErrNoRunningLoop = errors.New("interp: no running event loop")

	// ErrWrongLoop is returned when a future is awaited on a loop other than its own.
	ErrWrongLoop = errors.New("interp: future is attached to a different loop")

	// ErrWrongInterpreter is returned when a State from another interpreter is used.
	ErrWrongInterpreter = errors.New("interp: state belongs to a different interpreter")

	// ErrInvalidState is returned when reading a pending future or settling a settled one.
	ErrInvalidState = errors.New("interp: invalid future state")

	// ErrCancelled is the outcome of a cancelled future or task.
	ErrCancelled = errors.New("interp: cancelled")

	// ErrAwaitSelf is returned when a coroutine awaits its own task.
	ErrAwaitSelf = errors.New("interp: task cannot await itself")

	// ErrCoroutinePanicked wraps a panic raised inside a coroutine.
	ErrCoroutinePanicked = errors.New("interp: coroutine panicked")
)
