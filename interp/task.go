// File: interp/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task runs a coroutine on its own goroutine, but only while the loop hands it
// the turn: the loop goroutine resumes the coroutine and blocks until it either
// suspends on an awaitable or returns. At most one of the two is ever running,
// so the coroutine executes under the loop's GIL.

package interp

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"
)

// yield is what a coroutine hands back to the loop on each step.
type yield struct {
	await Awaitable // non-nil when suspended
	value any
	err   error
}

// Task is a Future driven by a coroutine.
type Task struct {
	*Future

	fn func(co *Coroutine) (any, error)
	co *Coroutine

	// Loop side only.
	started    bool
	waiting    Awaitable
	mustCancel bool
}

func newTask(l *Loop, fn func(co *Coroutine) (any, error)) *Task {
	t := &Task{Future: newFuture(l), fn: fn}
	t.co = &Coroutine{
		task:   t,
		st:     &State{ip: l.ip, loop: l},
		resume: make(chan struct{}),
		yield:  make(chan yield),
	}
	return t
}

func (t *Task) awaitable() *Future { return t.Future }

// SetResult is not allowed on a task; its coroutine decides the outcome.
func (t *Task) SetResult(any) error {
	return fmt.Errorf("%w: task result is set by its coroutine", ErrInvalidState)
}

// SetException is not allowed on a task; its coroutine decides the outcome.
func (t *Task) SetException(error) error {
	return fmt.Errorf("%w: task exception is set by its coroutine", ErrInvalidState)
}

// Cancel requests cancellation. A task that has not started finishes as
// cancelled without running. A suspended task has its awaited future
// cancelled, so the pending Await returns ErrCancelled; otherwise the next
// Await does. Cancel returns false if the task already finished.
func (t *Task) Cancel() bool {
	if t.Future.Done() {
		return false
	}
	if !t.started {
		t.finish(nil, ErrCancelled)
		return true
	}
	if t.waiting != nil {
		if c, ok := t.waiting.(interface{ Cancel() bool }); ok && c.Cancel() {
			return true
		}
	}
	t.mustCancel = true
	return true
}

// step gives the coroutine one turn.
func (t *Task) step(*State) {
	if t.Future.Done() {
		return
	}
	if !t.started {
		t.started = true
		go t.run()
	}
	t.co.resume <- struct{}{}
	y := <-t.co.yield
	if y.await == nil {
		t.finish(y.value, y.err)
		return
	}
	t.waiting = y.await
	y.await.awaitable().onDone(t.wakeup)
}

func (t *Task) wakeup(st *State) {
	t.waiting = nil
	t.step(st)
}

func (t *Task) run() {
	co := t.co
	<-co.resume
	var (
		v   any
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &CoroutinePanic{Value: r, Stack: debug.Stack()}
		}
		co.yield <- yield{value: v, err: err}
	}()
	v, err = t.fn(co)
}

func (t *Task) finish(v any, err error) {
	switch {
	case err == nil:
		t.Future.settle(stateResolved, v, nil)
	case errors.Is(err, ErrCancelled):
		t.Future.settle(stateCancelled, nil, ErrCancelled)
	default:
		t.Future.settle(stateRejected, nil, err)
	}
	t.loop.forget(t)
}

// CoroutinePanic is the exception of a task whose coroutine panicked.
type CoroutinePanic struct {
	Value any
	Stack []byte
}

func (p *CoroutinePanic) Error() string {
	return fmt.Sprintf("%s: %v", ErrCoroutinePanicked.Error(), p.Value)
}

func (p *CoroutinePanic) Unwrap() error { return ErrCoroutinePanicked }

// Coroutine is the handle a task body uses to cooperate with the loop.
type Coroutine struct {
	task   *Task
	st     *State
	resume chan struct{}
	yield  chan yield
}

// State returns the GIL token valid while the coroutine has the turn.
func (co *Coroutine) State() *State { return co.st }

// Loop returns the loop running the coroutine.
func (co *Coroutine) Loop() *Loop { return co.task.loop }

// Task returns the task wrapping the coroutine.
func (co *Coroutine) Task() *Task { return co.task }

// Await suspends the coroutine until aw settles and returns its outcome.
// A settled awaitable returns at once. While the loop is closing Await does
// not suspend and returns ErrLoopClosed.
func (co *Coroutine) Await(aw Awaitable) (any, error) {
	t := co.task
	f := aw.awaitable()
	if f == t.Future {
		return nil, ErrAwaitSelf
	}
	if f.loop != t.loop {
		return nil, ErrWrongLoop
	}
	if t.mustCancel {
		t.mustCancel = false
		return nil, ErrCancelled
	}
	if f.Done() {
		return f.Result()
	}
	if t.loop.isClosing() {
		return nil, ErrLoopClosed
	}
	co.yield <- yield{await: aw}
	<-co.resume
	if t.mustCancel {
		t.mustCancel = false
		return nil, ErrCancelled
	}
	return f.Result()
}

// Sleep suspends the coroutine for d.
func (co *Coroutine) Sleep(d time.Duration) error {
	_, err := co.Await(co.task.loop.Sleep(d))
	return err
}
