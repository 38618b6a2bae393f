// File: interp/future.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Future is a placeholder settled exactly once: resolved with a value,
// rejected with an error, or cancelled. Settling methods and callbacks belong
// to the loop; Wait is the only method meant for other goroutines.

package interp

import (
	"context"
	"fmt"
	"sync"
)

type futureState int

const (
	statePending futureState = iota
	stateResolved
	stateRejected
	stateCancelled
)

func (s futureState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateResolved:
		return "resolved"
	case stateRejected:
		return "rejected"
	case stateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Awaitable is anything a coroutine can await.
type Awaitable interface {
	awaitable() *Future
}

// FutureOf returns the future that settles when aw does.
func FutureOf(aw Awaitable) *Future {
	return aw.awaitable()
}

// Future is an awaitable placeholder bound to one loop.
type Future struct {
	loop *Loop

	mu        sync.Mutex
	state     futureState
	value     any
	err       error
	callbacks []Callback
	done      chan struct{}
}

func newFuture(l *Loop) *Future {
	return &Future{loop: l, done: make(chan struct{})}
}

func (f *Future) awaitable() *Future { return f }

// Loop returns the loop this future is attached to.
func (f *Future) Loop() *Loop { return f.loop }

// SetResult resolves the future. It returns ErrInvalidState if the future
// was already settled.
func (f *Future) SetResult(v any) error {
	if !f.settle(stateResolved, v, nil) {
		return fmt.Errorf("%w: future is %s", ErrInvalidState, f.stateName())
	}
	return nil
}

// SetException rejects the future with err. It returns ErrInvalidState if
// the future was already settled.
func (f *Future) SetException(err error) error {
	if err == nil {
		err = fmt.Errorf("interp: nil exception")
	}
	if !f.settle(stateRejected, nil, err) {
		return fmt.Errorf("%w: future is %s", ErrInvalidState, f.stateName())
	}
	return nil
}

// Cancel cancels a pending future and reports whether it did.
func (f *Future) Cancel() bool {
	return f.settle(stateCancelled, nil, ErrCancelled)
}

// Done reports whether the future is settled.
func (f *Future) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state != statePending
}

// Cancelled reports whether the future was cancelled.
func (f *Future) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == stateCancelled
}

// Result returns the settled outcome. A pending future yields ErrInvalidState
// and a cancelled one ErrCancelled.
func (f *Future) Result() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case statePending:
		return nil, fmt.Errorf("%w: result is not set", ErrInvalidState)
	case stateResolved:
		return f.value, nil
	default:
		return nil, f.err
	}
}

// AddDoneCallback arranges for fn to run on the loop once the future is
// settled. If it already is, fn is scheduled immediately.
func (f *Future) AddDoneCallback(fn func(f *Future)) {
	f.onDone(func(*State) { fn(f) })
}

// Wait blocks the calling goroutine until the future settles or ctx is done.
// It must not be called from the loop that owns the future.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DoneChan is closed once the future is settled.
func (f *Future) DoneChan() <-chan struct{} {
	return f.done
}

func (f *Future) onDone(cb Callback) {
	f.mu.Lock()
	if f.state == statePending {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	f.loop.schedule(cb)
}

func (f *Future) settle(state futureState, v any, err error) bool {
	f.mu.Lock()
	if f.state != statePending {
		f.mu.Unlock()
		return false
	}
	f.state = state
	f.value = v
	f.err = err
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()
	for _, cb := range cbs {
		f.loop.schedule(cb)
	}
	return true
}

func (f *Future) stateName() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.String()
}
