// File: bridge/coroutine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bridge

import (
	"errors"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/internal/logging"
	"github.com/momentics/hioload-bridge/interp"
)

// IntoCoroutine starts fut on rt and returns a pending Future on the loop
// running st. It never blocks. st must be running inside a loop, otherwise
// interp.ErrNoRunningLoop is returned.
//
// The Future is settled exactly once, on the loop with the GIL held. If the
// interpreter cancels it first, the native result is dropped; the native task
// itself always runs to completion. If the loop is closed before the result
// arrives, the result is discarded.
func IntoCoroutine[T any](st *interp.State, rt api.Runtime, fut Future[T]) (*interp.Future, error) {
	loop, err := st.RunningLoop()
	if err != nil {
		return nil, err
	}
	return expose(loop, rt, fut), nil
}

// RunUntilComplete exposes fut on loop and runs the loop on the calling
// goroutine until the result has been delivered.
func RunUntilComplete[T any](st *interp.State, rt api.Runtime, loop *interp.Loop, fut Future[T]) (T, error) {
	var zero T
	bf := expose(loop, rt, fut)
	v, err := loop.RunUntilComplete(st, bf)
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}

func expose[T any](loop *interp.Loop, rt api.Runtime, fut Future[T]) *interp.Future {
	bf := loop.CreateFuture()
	res := &result[T]{}
	jh := rt.Spawn(res.capture(fut))
	go deliver(loop, bf, jh, res)
	return bf
}

// deliver waits for the native task off the loop and posts one settle
// message. The GIL is held only while the message runs.
func deliver[T any](loop *interp.Loop, bf *interp.Future, jh api.JoinHandle, res *result[T]) {
	<-jh.Done()
	v, err := res.outcome(jh.Join())
	post := loop.CallSoonThreadsafe(func(*interp.State) {
		if bf.Done() {
			return
		}
		if err != nil {
			_ = bf.SetException(err)
			return
		}
		_ = bf.SetResult(v)
	})
	if post != nil {
		log := logging.For("bridge")
		ev := log.Debug().Err(post)
		if err != nil {
			ev = ev.AnErr("outcome", err).Bool("panicked", errors.Is(err, ErrTaskPanicked))
		}
		ev.Msg("loop closed before result delivery; result discarded")
	}
}
