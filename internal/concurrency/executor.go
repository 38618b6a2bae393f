// File: internal/concurrency/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches tasks across worker goroutines. Each worker owns an MPMC
// local queue; idle workers steal from their siblings before falling back to
// the global overflow channel. Close stops the workers and then runs whatever
// is still queued on the closing goroutine, so every submitted task is
// executed exactly once.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-bridge/internal/logging"
)

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// ExecutorOptions configures NewExecutor.
type ExecutorOptions struct {
	Workers       int    // number of worker goroutines; <= 0 means NumCPUs()
	QueueCapacity int    // per-worker local queue capacity; <= 0 means 1024
	Name          string // logged with worker lifecycle events
	PinCPUs       []int  // when set, worker i is pinned to PinCPUs[i%len(PinCPUs)]
}

// Executor manages a pool of worker goroutines.
type Executor struct {
	name        string
	globalQueue chan TaskFunc
	localQueues []*LockFreeQueue[TaskFunc]
	workers     []*worker
	wake        chan struct{}
	closeCh     chan struct{}

	// submitMu orders Submit against Close: Close takes the write lock, so no
	// task can be enqueued after the final drain.
	submitMu sync.RWMutex
	closed   atomic.Bool
	next     atomic.Uint64
	wg       sync.WaitGroup

	totalTasks     atomic.Int64
	completedTasks atomic.Int64
	stolenTasks    atomic.Int64
	panickedTasks  atomic.Int64
	exitedTasks    atomic.Int64
	respawned      atomic.Int64
}

// NewExecutor creates an Executor and starts its workers.
func NewExecutor(opts ExecutorOptions) *Executor {
	n := opts.Workers
	if n <= 0 {
		n = NumCPUs()
	}
	capacity := opts.QueueCapacity
	if capacity <= 0 {
		capacity = 1024
	}
	e := &Executor{
		name:        opts.Name,
		globalQueue: make(chan TaskFunc, n*4),
		localQueues: make([]*LockFreeQueue[TaskFunc], n),
		workers:     make([]*worker, n),
		wake:        make(chan struct{}, n),
		closeCh:     make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		e.localQueues[i] = NewLockFreeQueue[TaskFunc](capacity)
	}
	for i := 0; i < n; i++ {
		cpu := -1
		if len(opts.PinCPUs) > 0 {
			cpu = opts.PinCPUs[i%len(opts.PinCPUs)]
		}
		w := &worker{id: i, cpu: cpu, executor: e, localQueue: e.localQueues[i]}
		e.workers[i] = w
		e.wg.Add(1)
		go w.run()
	}
	return e
}

// Submit enqueues a task. Returns ErrExecutorClosed if closed.
func (e *Executor) Submit(task TaskFunc) error {
	e.submitMu.RLock()
	defer e.submitMu.RUnlock()
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	e.totalTasks.Add(1)
	idx := int(e.next.Add(1) % uint64(len(e.localQueues)))
	if !e.localQueues[idx].Enqueue(task) {
		// Local queues are bounded; the global channel applies backpressure.
		e.globalQueue <- task
	}
	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// NumWorkers returns the number of worker goroutines.
func (e *Executor) NumWorkers() int {
	return len(e.workers)
}

// Close stops the workers and runs tasks that were still queued.
func (e *Executor) Close() {
	e.submitMu.Lock()
	if !e.closed.CompareAndSwap(false, true) {
		e.submitMu.Unlock()
		return
	}
	close(e.closeCh)
	e.submitMu.Unlock()

	e.wg.Wait()
	for _, q := range e.localQueues {
		for task, ok := q.Dequeue(); ok; task, ok = q.Dequeue() {
			shielded(e.execute, task)
		}
	}
	for {
		select {
		case task := <-e.globalQueue:
			shielded(e.execute, task)
		default:
			return
		}
	}
}

// Closed reports whether Close has been called.
func (e *Executor) Closed() bool {
	return e.closed.Load()
}

// Stats returns basic executor metrics.
func (e *Executor) Stats() map[string]int64 {
	queued := int64(len(e.globalQueue))
	for _, q := range e.localQueues {
		queued += int64(q.Len())
	}
	return map[string]int64{
		"total_tasks":     e.totalTasks.Load(),
		"completed_tasks": e.completedTasks.Load(),
		"stolen_tasks":    e.stolenTasks.Load(),
		"panicked_tasks":  e.panickedTasks.Load(),
		"exited_tasks":    e.exitedTasks.Load(),
		"respawned":       e.respawned.Load(),
		"queued_tasks":    queued,
		"num_workers":     int64(e.NumWorkers()),
	}
}

// execute runs the task and updates statistics, recovering from panics.
// Tasks spawned through a runtime Handle recover their own panics; this only
// protects workers from raw submissions.
func (e *Executor) execute(task TaskFunc) {
	returned := false
	defer func() {
		if r := recover(); r != nil {
			e.panickedTasks.Add(1)
			log := logging.For("executor")
			log.Error().Str("name", e.name).Interface("panic", r).Msg("worker task panicked")
		} else if !returned {
			e.exitedTasks.Add(1)
		}
		e.completedTasks.Add(1)
	}()
	task()
	returned = true
}

// worker represents a single executor goroutine.
type worker struct {
	id         int
	cpu        int
	executor   *Executor
	localQueue *LockFreeQueue[TaskFunc]
}

// run is the worker goroutine. When a task calls runtime.Goexit the goroutine
// unwinds through the deferred call, which starts a replacement before
// releasing the wait group slot.
func (w *worker) run() {
	e := w.executor
	stopped := false
	defer func() {
		if !stopped {
			e.respawned.Add(1)
			log := logging.For("executor")
			log.Warn().Str("name", e.name).Int("worker", w.id).Msg("worker goroutine exited; respawning")
			e.wg.Add(1)
			go w.run()
		}
		e.wg.Done()
	}()
	w.loop()
	stopped = true
}

func (w *worker) loop() {
	e := w.executor
	if w.cpu >= 0 {
		if err := PinCurrentThread(w.cpu); err != nil {
			log := logging.For("executor")
			log.Warn().Err(err).Str("name", e.name).Int("worker", w.id).Msg("worker pinning failed")
		}
	}
	for {
		select {
		case <-e.closeCh:
			return
		default:
		}
		if task, ok := w.nextTask(); ok {
			e.execute(task)
			continue
		}
		select {
		case <-e.closeCh:
			return
		case task := <-e.globalQueue:
			e.execute(task)
		case <-e.wake:
		}
	}
}

// nextTask looks at the worker's own queue, then steals from siblings, then
// polls the global queue without blocking.
func (w *worker) nextTask() (TaskFunc, bool) {
	if task, ok := w.localQueue.Dequeue(); ok {
		return task, true
	}
	queues := w.executor.localQueues
	for i := 1; i < len(queues); i++ {
		victim := queues[(w.id+i)%len(queues)]
		if task, ok := victim.Dequeue(); ok {
			w.executor.stolenTasks.Add(1)
			return task, true
		}
	}
	select {
	case task := <-w.executor.globalQueue:
		return task, true
	default:
		return nil, false
	}
}

// shielded runs task through run on a fresh goroutine and waits for it, so a
// runtime.Goexit inside task cannot unwind the caller.
func shielded(run func(TaskFunc), task TaskFunc) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		run(task)
	}()
	<-done
}
