// File: interp/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Loop is the interpreter's cooperative scheduler. Ready callbacks sit in an
// unbounded FIFO and run one at a time on the goroutine inside RunForever,
// which holds the GIL except while it waits for work.

package interp

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-bridge/internal/logging"
)

// Callback runs on the loop with the GIL held.
type Callback func(st *State)

// Loop is a single-threaded event loop bound to one interpreter.
type Loop struct {
	ip  *Interpreter
	log zerolog.Logger

	mu       sync.Mutex
	ready    *queue.Queue // of Callback, guarded by mu
	stopping bool         // guarded by mu
	closing  bool         // guarded by mu
	closed   bool         // guarded by mu
	tasks    map[*Task]struct{}

	wake    chan struct{}
	running atomic.Bool

	executed atomic.Int64
	panicked atomic.Int64
}

func newLoop(ip *Interpreter) *Loop {
	return &Loop{
		ip:    ip,
		log:   logging.For("interp.loop"),
		ready: queue.New(),
		tasks: make(map[*Task]struct{}),
		wake:  make(chan struct{}, 1),
	}
}

// Interpreter returns the interpreter that owns the loop.
func (l *Loop) Interpreter() *Interpreter { return l.ip }

// CallSoon queues cb to run on a later iteration. It is meant for code already
// running on the loop.
func (l *Loop) CallSoon(cb Callback) error {
	return l.enqueue(cb)
}

// CallSoonThreadsafe queues cb from any goroutine and wakes the loop if it is
// idle. It returns ErrLoopClosed once the loop is closed.
func (l *Loop) CallSoonThreadsafe(cb Callback) error {
	return l.enqueue(cb)
}

// CallLater runs cb on the loop after d. The returned timer can be stopped to
// drop the call. A call that fires after Close is discarded.
func (l *Loop) CallLater(d time.Duration, cb Callback) *time.Timer {
	return time.AfterFunc(d, func() {
		if err := l.CallSoonThreadsafe(cb); err != nil {
			l.log.Debug().Err(err).Dur("delay", d).Msg("timer fired after close")
		}
	})
}

// CreateFuture returns a pending future attached to this loop.
func (l *Loop) CreateFuture() *Future {
	return newFuture(l)
}

// CreateTask schedules fn as a coroutine on this loop. On a closed or closing
// loop the task is returned already rejected with ErrLoopClosed.
func (l *Loop) CreateTask(fn func(co *Coroutine) (any, error)) *Task {
	t := newTask(l, fn)
	l.mu.Lock()
	if l.closed || l.closing {
		l.mu.Unlock()
		t.Future.settle(stateRejected, nil, ErrLoopClosed)
		return t
	}
	l.tasks[t] = struct{}{}
	l.ready.Add(Callback(t.step))
	l.mu.Unlock()
	l.notify()
	return t
}

// Sleep returns a future resolved with nil after d.
func (l *Loop) Sleep(d time.Duration) *Future {
	f := l.CreateFuture()
	timer := l.CallLater(d, func(*State) { _ = f.SetResult(nil) })
	f.onDone(func(*State) { timer.Stop() })
	return f
}

// RunForever runs callbacks until Stop is called. st must belong to the
// loop's interpreter.
func (l *Loop) RunForever(st *State) error {
	lst, err := l.start(st)
	if err != nil {
		return err
	}
	defer l.running.Store(false)
	l.run(lst)
	return nil
}

// RunUntilComplete runs the loop until aw settles and returns its outcome.
// If the loop is stopped first it returns ErrLoopStopped. A call that fails
// to start the loop leaves no trace on aw.
func (l *Loop) RunUntilComplete(st *State, aw Awaitable) (any, error) {
	f := aw.awaitable()
	if f.loop != l {
		return nil, ErrWrongLoop
	}
	lst, err := l.start(st)
	if err != nil {
		return nil, err
	}
	defer l.running.Store(false)

	// Only this run may be stopped by f settling.
	var armed atomic.Bool
	armed.Store(true)
	defer armed.Store(false)
	f.onDone(func(*State) {
		if armed.Load() {
			l.Stop()
		}
	})
	l.run(lst)
	if !f.Done() {
		return nil, ErrLoopStopped
	}
	return f.Result()
}

// start validates st and marks the loop running.
func (l *Loop) start(st *State) (*State, error) {
	if st == nil || st.ip != l.ip {
		return nil, ErrWrongInterpreter
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || l.closing {
		return nil, ErrLoopClosed
	}
	if !l.running.CompareAndSwap(false, true) {
		return nil, ErrLoopRunning
	}
	return &State{ip: l.ip, loop: l}, nil
}

func (l *Loop) run(lst *State) {
	for {
		l.runReady(lst)
		l.mu.Lock()
		if l.stopping {
			l.stopping = false
			l.mu.Unlock()
			return
		}
		idle := l.ready.Length() == 0
		l.mu.Unlock()
		if idle {
			lst.AllowThreads(func() { <-l.wake })
		}
	}
}

// Stop asks the running loop to return after the current batch of callbacks.
// Called on an idle loop, the next RunForever runs one batch and returns.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopping = true
	l.mu.Unlock()
	l.notify()
}

// Close cancels every live task, runs the loop until they have finished and
// then discards whatever is still queued. Later scheduling fails with
// ErrLoopClosed. Closing a running loop returns ErrLoopRunning.
func (l *Loop) Close(st *State) error {
	if st == nil || st.ip != l.ip {
		return ErrWrongInterpreter
	}
	if l.running.Load() {
		return ErrLoopRunning
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closing = true
	l.mu.Unlock()

	lst := &State{ip: l.ip, loop: l}
	l.cancelTasks()
	retried := false
	for {
		if cb, ok := l.pop(); ok {
			l.safeRun(cb, lst)
			continue
		}
		live := l.NumTasks()
		if live == 0 {
			break
		}
		if retried {
			l.log.Warn().Int("tasks", live).Msg("tasks still live after close")
			break
		}
		retried = true
		l.cancelTasks()
	}

	l.mu.Lock()
	l.closed = true
	dropped := l.ready.Length()
	l.ready = queue.New()
	l.mu.Unlock()
	l.log.Debug().Int("dropped", dropped).Int64("executed", l.executed.Load()).Msg("loop closed")
	return nil
}

// IsRunning reports whether a goroutine is inside RunForever.
func (l *Loop) IsRunning() bool { return l.running.Load() }

// IsClosed reports whether Close has completed.
func (l *Loop) IsClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// NumTasks returns the number of tasks that have not finished.
func (l *Loop) NumTasks() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Stats returns loop counters.
func (l *Loop) Stats() map[string]int64 {
	l.mu.Lock()
	queued := int64(l.ready.Length())
	tasks := int64(len(l.tasks))
	l.mu.Unlock()
	return map[string]int64{
		"executed_callbacks": l.executed.Load(),
		"panicked_callbacks": l.panicked.Load(),
		"queued_callbacks":   queued,
		"live_tasks":         tasks,
	}
}

func (l *Loop) enqueue(cb Callback) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrLoopClosed
	}
	l.ready.Add(cb)
	l.mu.Unlock()
	l.notify()
	return nil
}

// schedule is used for done callbacks. It drops cb on a closed loop.
func (l *Loop) schedule(cb Callback) {
	if err := l.enqueue(cb); err != nil {
		l.log.Debug().Msg("done callback dropped on closed loop")
	}
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) pop() (Callback, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ready.Length() == 0 {
		return nil, false
	}
	return l.ready.Remove().(Callback), true
}

// runReady runs the callbacks queued at the start of the iteration. Callbacks
// they schedule wait for the next iteration.
func (l *Loop) runReady(st *State) {
	l.mu.Lock()
	n := l.ready.Length()
	l.mu.Unlock()
	for i := 0; i < n; i++ {
		cb, ok := l.pop()
		if !ok {
			return
		}
		l.safeRun(cb, st)
	}
}

func (l *Loop) safeRun(cb Callback, st *State) {
	defer func() {
		if r := recover(); r != nil {
			l.panicked.Add(1)
			l.log.Error().Interface("panic", r).Msg("loop callback panicked")
		}
		l.executed.Add(1)
	}()
	cb(st)
}

func (l *Loop) cancelTasks() {
	l.mu.Lock()
	live := make([]*Task, 0, len(l.tasks))
	for t := range l.tasks {
		live = append(live, t)
	}
	l.mu.Unlock()
	for _, t := range live {
		t.Cancel()
	}
}

func (l *Loop) isClosing() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closing || l.closed
}

func (l *Loop) forget(t *Task) {
	l.mu.Lock()
	delete(l.tasks, t)
	l.mu.Unlock()
}
