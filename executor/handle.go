// File: executor/handle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/internal/concurrency"
)

type scheduler interface {
	api.Executor
	Stats() map[string]int64
}

// Handle references a live executor. All copies of the pointer share one
// executor; a Handle is never released explicitly.
type Handle struct {
	flavor  Flavor
	name    string
	pinCPUs []int
	sched   scheduler
	local   *concurrency.LocalExecutor // current-thread flavor only

	ctx      context.Context // parent of every task context
	cancel   context.CancelFunc
	shutOnce atomic.Bool

	spawned   atomic.Int64
	succeeded atomic.Int64
	panicked  atomic.Int64
	cancelled atomic.Int64
}

var _ api.Runtime = (*Handle)(nil)

// Spawn submits task and returns immediately. task runs on an executor
// goroutine and must not rely on state owned by the spawning goroutine.
func (h *Handle) Spawn(task func(ctx context.Context)) api.JoinHandle {
	return h.spawn(task)
}

// SpawnHandle is Spawn returning the concrete join handle.
func (h *Handle) SpawnHandle(task func(ctx context.Context)) *JoinHandle {
	return h.spawn(task)
}

func (h *Handle) spawn(task func(ctx context.Context)) *JoinHandle {
	ctx, cancel := context.WithCancel(h.ctx)
	jh := &JoinHandle{ctx: ctx, cancel: cancel, done: make(chan struct{})}
	h.spawned.Add(1)
	if err := h.sched.Submit(func() { h.run(jh, task) }); err != nil {
		h.finish(jh, &JoinError{kind: kindCancelled, cause: ErrRuntimeShutdown})
	}
	return jh
}

func (h *Handle) run(jh *JoinHandle, task func(ctx context.Context)) {
	if jh.ctx.Err() != nil {
		h.finish(jh, &JoinError{kind: kindCancelled, cause: h.cancelCause(jh)})
		return
	}
	var outcome error
	returned := false
	defer func() {
		switch {
		case !returned:
			// runtime.Goexit unwound the task; it is reported as a fault.
			outcome = &JoinError{kind: kindPanicked, value: ErrTaskExited, stack: debug.Stack(), cause: ErrTaskExited}
		case outcome == nil && jh.aborted.Load():
			outcome = &JoinError{kind: kindCancelled, cause: context.Canceled}
		}
		h.finish(jh, outcome)
	}()
	func() {
		defer func() {
			if r := recover(); r != nil {
				outcome = &JoinError{kind: kindPanicked, value: r, stack: debug.Stack()}
			}
		}()
		task(jh.ctx)
	}()
	returned = true
}

func (h *Handle) cancelCause(jh *JoinHandle) error {
	if jh.aborted.Load() {
		return context.Canceled
	}
	return ErrRuntimeShutdown
}

func (h *Handle) finish(jh *JoinHandle, outcome error) {
	jh.err = outcome
	switch e := outcome.(type) {
	case nil:
		h.succeeded.Add(1)
	case *JoinError:
		if e.IsPanic() {
			h.panicked.Add(1)
		} else {
			h.cancelled.Add(1)
		}
	}
	jh.cancel()
	close(jh.done)
}

// BlockOn waits until done is closed or ctx is cancelled.
//
// On a current-thread runtime the calling goroutine drives the executor while
// it waits, running queued tasks; if another goroutine is already driving,
// BlockOn waits for done instead. On a multi-thread runtime BlockOn only
// waits. It returns ErrRuntimeShutdown if the runtime shuts down first.
//
// Calling BlockOn from inside a task of a current-thread runtime deadlocks.
func (h *Handle) BlockOn(ctx context.Context, done <-chan struct{}) error {
	if h.local == nil {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-h.ctx.Done():
			return ErrRuntimeShutdown
		}
	}

	stop := done
	if ctx.Done() != nil {
		merged := make(chan struct{})
		quit := make(chan struct{})
		defer close(quit)
		go func() {
			select {
			case <-done:
			case <-ctx.Done():
			case <-quit:
				return
			}
			close(merged)
		}()
		stop = merged
	}
	if err := h.local.BlockOn(stop); err != nil {
		return fmt.Errorf("%w: %v", ErrRuntimeShutdown, err)
	}
	select {
	case <-done:
		return nil
	default:
		return ctx.Err()
	}
}

// Flavor returns the runtime flavor.
func (h *Handle) Flavor() Flavor { return h.flavor }

// Name returns the configured thread name.
func (h *Handle) Name() string { return h.name }

// NumWorkers returns the number of executor workers (1 for current-thread).
func (h *Handle) NumWorkers() int { return h.sched.NumWorkers() }

// DriverCPU returns the CPU a dedicated driver thread should be pinned to.
func (h *Handle) DriverCPU() (int, bool) {
	if len(h.pinCPUs) == 0 {
		return -1, false
	}
	return h.pinCPUs[0], true
}

// IsShutdown reports whether the owning Runtime has been shut down.
func (h *Handle) IsShutdown() bool {
	return h.ctx.Err() != nil
}

// Stats merges executor counters with task outcome counters.
func (h *Handle) Stats() map[string]int64 {
	out := h.sched.Stats()
	out["spawned"] = h.spawned.Load()
	out["succeeded"] = h.succeeded.Load()
	out["panicked"] = h.panicked.Load()
	out["cancelled"] = h.cancelled.Load()
	return out
}

func (h *Handle) shutdown() {
	if !h.shutOnce.CompareAndSwap(false, true) {
		return
	}
	h.cancel()
	h.sched.Close()
}
