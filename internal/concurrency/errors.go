// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-bridge/api"
)

var (
	// ErrExecutorClosed indicates the executor has been shut down
	ErrExecutorClosed = errors.New("executor is closed")

	// ErrInvalidWorkerCount indicates invalid worker count configuration
	ErrInvalidWorkerCount = errors.New("invalid worker count")

	// ErrInvalidQueueCapacity indicates invalid local queue capacity
	ErrInvalidQueueCapacity = errors.New("invalid queue capacity")

	// ErrAffinityNotSupported indicates CPU affinity is not supported on this platform
	ErrAffinityNotSupported = fmt.Errorf("CPU affinity: %w", api.ErrNotSupported)
)
