// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

import (
	"errors"

	"github.com/momentics/hioload-bridge/internal/concurrency"
)

var (
	// ErrRuntimeShutdown is the cancellation cause for tasks spawned on, or
	// still queued in, a runtime that has been shut down.
	ErrRuntimeShutdown = errors.New("runtime is shut down")

	// ErrTaskExited is the panic value reported for a task that called
	// runtime.Goexit instead of returning.
	ErrTaskExited = errors.New("task exited without returning")

	// ErrInvalidWorkerCount is returned by Build for a negative worker count.
	ErrInvalidWorkerCount = concurrency.ErrInvalidWorkerCount

	// ErrInvalidQueueCapacity is returned by Build for a non-positive queue capacity.
	ErrInvalidQueueCapacity = concurrency.ErrInvalidQueueCapacity

	// ErrAffinityNotSupported is returned by Build when PinWorkers is used on
	// a platform without thread affinity.
	ErrAffinityNotSupported = concurrency.ErrAffinityNotSupported

	// ErrUnknownFlavor is returned by ParseFlavor.
	ErrUnknownFlavor = errors.New("unknown runtime flavor")
)
