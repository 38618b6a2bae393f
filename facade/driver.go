// File: facade/driver.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-bridge/executor"
	"github.com/momentics/hioload-bridge/internal/concurrency"
)

type driverState struct {
	started   atomic.Int32
	active    atomic.Int32
	restarted atomic.Int32
}

func (d *driverState) running() int { return int(d.active.Load()) }

// startDriver parks a goroutine on its own OS thread driving h until a task
// that never completes does, which is never. The goroutine is not joined; it
// only returns if the runtime is shut down. A driver killed by a task calling
// runtime.Goexit is replaced.
func (r *registry) startDriver(h *executor.Handle) {
	r.drivers.started.Add(1)
	ready := make(chan struct{})
	go r.drive(h, ready)
	<-ready
}

func (r *registry) drive(h *executor.Handle, ready chan struct{}) {
	runtime.LockOSThread()
	if cpu, ok := h.DriverCPU(); ok {
		if err := concurrency.PinCurrentThread(cpu); err != nil {
			r.logger().Warn().Err(err).Int("cpu", cpu).Msg("driver pinning failed")
		}
	}
	r.drivers.active.Add(1)
	returned := false
	defer func() {
		r.drivers.active.Add(-1)
		if !returned && !h.IsShutdown() {
			r.drivers.restarted.Add(1)
			r.logger().Warn().Str("name", h.Name()).Msg("keep-alive driver exited by a task; restarting")
			go r.drive(h, nil)
		}
	}()
	if ready != nil {
		close(ready)
	}
	r.logger().Debug().Str("name", h.Name()).Msg("keep-alive driver started")
	err := h.BlockOn(context.Background(), concurrency.Pending())
	returned = true
	r.logger().Info().Err(err).Str("name", h.Name()).Msg("keep-alive driver exited")
}
