// File: executor/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

import (
	"context"

	"github.com/momentics/hioload-bridge/api"
)

// Runtime owns an executor. Its Handle may be shared freely; once the runtime
// is shut down, tasks spawned through the handle complete as cancelled.
type Runtime struct {
	handle *Handle
}

var _ api.GracefulShutdown = (*Runtime)(nil)

// Handle returns the shared handle of this runtime.
func (r *Runtime) Handle() *Handle {
	return r.handle
}

// BlockOn drives the runtime on the calling goroutine until done is closed.
// See Handle.BlockOn.
func (r *Runtime) BlockOn(ctx context.Context, done <-chan struct{}) error {
	return r.handle.BlockOn(ctx, done)
}

// Shutdown cancels every task context, stops the executor and completes the
// tasks still queued as cancelled. It must not be called from inside a task.
func (r *Runtime) Shutdown() error {
	r.handle.shutdown()
	return nil
}
