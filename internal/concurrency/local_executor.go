// File: internal/concurrency/local_executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// LocalExecutor runs every task serially on whichever goroutine is currently
// driving it through BlockOn. Tasks may be submitted from any goroutine, but
// nothing runs while no goroutine is driving: an idle LocalExecutor with no
// driver simply accumulates work. Keep-alive drivers call BlockOn(Pending()).

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-bridge/internal/logging"
)

// LocalExecutor is a single-threaded executor.
type LocalExecutor struct {
	mu      sync.Mutex
	queue   *queue.Queue // of TaskFunc, guarded by mu
	closed  bool         // guarded by mu
	notify  chan struct{}
	driver  chan struct{} // capacity 1: holder is the only goroutine running tasks
	closeCh chan struct{}

	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	panickedTasks  atomic.Int64
	exitedTasks    atomic.Int64
	driving        atomic.Bool
}

// NewLocalExecutor creates an empty, undriven LocalExecutor.
func NewLocalExecutor() *LocalExecutor {
	return &LocalExecutor{
		queue:   queue.New(),
		notify:  make(chan struct{}, 1),
		driver:  make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
}

// Submit enqueues a task. Returns ErrExecutorClosed if closed.
func (e *LocalExecutor) Submit(task TaskFunc) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrExecutorClosed
	}
	e.queue.Add(task)
	e.mu.Unlock()
	e.totalTasks.Add(1)
	select {
	case e.notify <- struct{}{}:
	default:
	}
	return nil
}

// NumWorkers is always 1.
func (e *LocalExecutor) NumWorkers() int { return 1 }

// BlockOn drives the executor on the calling goroutine until done is closed.
//
// Only one goroutine drives at a time. A second caller waits until either it
// can take over driving or its done channel fires, whichever comes first.
// Passing Pending() drives forever. BlockOn returns ErrExecutorClosed if the
// executor is closed before done fires.
func (e *LocalExecutor) BlockOn(done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case e.driver <- struct{}{}:
	case <-e.closeCh:
		return ErrExecutorClosed
	}
	e.driving.Store(true)
	defer func() {
		e.driving.Store(false)
		<-e.driver
	}()
	for {
		select {
		case <-done:
			return nil
		default:
		}
		if task, ok := e.pop(); ok {
			e.execute(task)
			continue
		}
		select {
		case <-done:
			return nil
		case <-e.notify:
		case <-e.closeCh:
			return ErrExecutorClosed
		}
	}
}

// Driven reports whether a goroutine is currently inside BlockOn driving tasks.
func (e *LocalExecutor) Driven() bool {
	return e.driving.Load()
}

// Close rejects new tasks, waits for the current driver to leave and runs the
// remaining queued tasks on the calling goroutine.
func (e *LocalExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.closeCh)
	e.mu.Unlock()

	e.driver <- struct{}{}
	defer func() { <-e.driver }()
	for task, ok := e.pop(); ok; task, ok = e.pop() {
		shielded(e.execute, task)
	}
}

// Pending returns the number of queued tasks.
func (e *LocalExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Length()
}

// Stats returns basic executor metrics.
func (e *LocalExecutor) Stats() map[string]int64 {
	return map[string]int64{
		"total_tasks":     e.totalTasks.Load(),
		"completed_tasks": e.completedTasks.Load(),
		"panicked_tasks":  e.panickedTasks.Load(),
		"exited_tasks":    e.exitedTasks.Load(),
		"queued_tasks":    int64(e.Pending()),
		"num_workers":     1,
	}
}

func (e *LocalExecutor) pop() (TaskFunc, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.queue.Length() == 0 {
		return nil, false
	}
	return e.queue.Remove().(TaskFunc), true
}

// execute runs task on the driving goroutine. A task calling runtime.Goexit
// ends the driver; BlockOn still releases the driver slot on the way out.
func (e *LocalExecutor) execute(task TaskFunc) {
	returned := false
	defer func() {
		if r := recover(); r != nil {
			e.panickedTasks.Add(1)
			log := logging.For("executor")
			log.Error().Str("flavor", "current_thread").Interface("panic", r).Msg("task panicked")
		} else if !returned {
			e.exitedTasks.Add(1)
			log := logging.For("executor")
			log.Warn().Str("flavor", "current_thread").Msg("task exited the driver goroutine")
		}
		e.completedTasks.Add(1)
	}()
	task()
	returned = true
}
