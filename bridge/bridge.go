// File: bridge/bridge.go
// Package bridge moves work between a native runtime and an interpreter loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Two directions are covered. BlockOn lets a GIL holder wait for a native
// computation, releasing the GIL while it waits. IntoCoroutine hands the
// interpreter a Future it can await while the computation runs natively; the
// result crosses back as one message posted to the loop. Everything here is
// written against api.Runtime, so any executor backend will do.

package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/interp"
)

// Future is a native computation producing a T.
type Future[T any] func(ctx context.Context) (T, error)

// Spawn submits task and returns at once.
func Spawn(rt api.Runtime, task func(ctx context.Context)) api.JoinHandle {
	return rt.Spawn(task)
}

// BlockOn runs fut on rt and waits for it. The GIL held through st is
// released while waiting and held again when BlockOn returns.
//
// The result is the value, a *PanicError, a *CancelledError, or the error fut
// returned, unchanged. The caller must not be running inside the loop or on
// the current-thread executor that fut needs in order to make progress:
// either deadlocks.
func BlockOn[T any](st *interp.State, rt api.Runtime, fut Future[T]) (T, error) {
	var (
		v   T
		err error
	)
	st.AllowThreads(func() {
		res := &result[T]{}
		jh := rt.Spawn(res.capture(fut))
		v, err = res.outcome(jh.Join())
	})
	return v, err
}

// IntoFuture wraps a foreign awaitable as a native computation. The returned
// Future waits for aw to settle; it fails with ctx.Err() if ctx ends first.
func IntoFuture(st *interp.State, aw interp.Awaitable) Future[any] {
	f := interp.FutureOf(aw)
	if f.Loop().Interpreter() != st.Interpreter() {
		return func(context.Context) (any, error) {
			return nil, interp.ErrWrongInterpreter
		}
	}
	return func(ctx context.Context) (any, error) {
		return f.Wait(ctx)
	}
}

// result carries what fut returned from the task goroutine to the joiner.
// It is written before the task finishes and read only after Done.
type result[T any] struct {
	v   T
	err error
}

func (r *result[T]) capture(fut Future[T]) func(ctx context.Context) {
	return func(ctx context.Context) {
		r.v, r.err = fut(ctx)
	}
}

func (r *result[T]) outcome(joinErr error) (T, error) {
	var zero T
	if joinErr == nil {
		if r.err != nil {
			return zero, r.err
		}
		return r.v, nil
	}
	return zero, translate(joinErr)
}

// translate maps a join failure onto the bridge's outcome errors.
func translate(joinErr error) error {
	var je api.JoinError
	if !errors.As(joinErr, &je) {
		return fmt.Errorf("bridge: join failed: %w", joinErr)
	}
	if je.IsPanic() {
		pe := &PanicError{Value: joinErr.Error()}
		if p, ok := je.(interface {
			PanicValue() any
			Stack() []byte
		}); ok {
			pe.Value = p.PanicValue()
			pe.Stack = p.Stack()
		}
		return pe
	}
	return &CancelledError{Cause: errors.Unwrap(je)}
}
