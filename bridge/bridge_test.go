package bridge_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/bridge"
	"github.com/momentics/hioload-bridge/executor"
	"github.com/momentics/hioload-bridge/interp"
)

func newPool(t *testing.T, workers int) *executor.Runtime {
	t.Helper()
	rt, err := executor.NewMultiThread().WorkerThreads(workers).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Shutdown() })
	return rt
}

func answerAfter(d time.Duration) bridge.Future[int] {
	return func(ctx context.Context) (int, error) {
		select {
		case <-time.After(d):
			return 42, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func TestBlockOnReleasesGIL(t *testing.T) {
	rt := newPool(t, 2)
	ip := interp.New()

	var heldDuringTask atomic.Bool
	var v int
	err := ip.WithGIL(func(st *interp.State) error {
		var err error
		v, err = bridge.BlockOn(st, rt.Handle(), func(ctx context.Context) (int, error) {
			heldDuringTask.Store(ip.GIL().Held())
			return answerAfter(10 * time.Millisecond)(ctx)
		})
		assert.True(t, ip.GIL().Held())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.False(t, heldDuringTask.Load())
	assert.False(t, ip.GIL().Held())
}

func TestBlockOnOutcomes(t *testing.T) {
	rt := newPool(t, 2)
	ip := interp.New()
	appErr := errors.New("boom")

	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		_, err := bridge.BlockOn(st, rt.Handle(), func(context.Context) (int, error) {
			return 0, appErr
		})
		assert.Same(t, appErr, err)
		assert.False(t, errors.Is(err, bridge.ErrTaskPanicked))

		_, err = bridge.BlockOn(st, rt.Handle(), func(context.Context) (int, error) {
			panic("boom")
		})
		require.ErrorIs(t, err, bridge.ErrTaskPanicked)
		var pe *bridge.PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "boom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
		assert.NotErrorIs(t, err, appErr)
		return nil
	}))
}

func TestBlockOnGoexitReportsFault(t *testing.T) {
	rt := newPool(t, 1)
	ip := interp.New()

	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		_, err := bridge.BlockOn(st, rt.Handle(), func(context.Context) (int, error) {
			runtime.Goexit()
			return 0, nil
		})
		require.ErrorIs(t, err, bridge.ErrTaskPanicked)
		var pe *bridge.PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, executor.ErrTaskExited, pe.Value)

		v, err := bridge.BlockOn(st, rt.Handle(), answerAfter(0))
		assert.Equal(t, 42, v)
		return err
	}))
}

func TestBlockOnCancelledAfterShutdown(t *testing.T) {
	rt, err := executor.NewMultiThread().WorkerThreads(1).Build()
	require.NoError(t, err)
	require.NoError(t, rt.Shutdown())

	ip := interp.New()
	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		_, err := bridge.BlockOn(st, rt.Handle(), answerAfter(0))
		assert.ErrorIs(t, err, bridge.ErrTaskCancelled)
		assert.ErrorIs(t, err, executor.ErrRuntimeShutdown)
		var ce *bridge.CancelledError
		assert.ErrorAs(t, err, &ce)
		return nil
	}))
}

func TestBlockOnCurrentThreadWithDriver(t *testing.T) {
	rt, err := executor.NewCurrentThread().Build()
	require.NoError(t, err)
	stop := make(chan struct{})
	driven := make(chan struct{})
	go func() {
		defer close(driven)
		_ = rt.BlockOn(context.Background(), stop)
	}()
	defer func() {
		close(stop)
		<-driven
		_ = rt.Shutdown()
	}()

	ip := interp.New()
	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		v, err := bridge.BlockOn(st, rt.Handle(), answerAfter(time.Millisecond))
		assert.Equal(t, 42, v)
		return err
	}))
}

func TestIntoCoroutineNeedsRunningLoop(t *testing.T) {
	rt := newPool(t, 1)
	ip := interp.New()
	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		_, err := bridge.IntoCoroutine(st, rt.Handle(), answerAfter(0))
		assert.ErrorIs(t, err, interp.ErrNoRunningLoop)
		return nil
	}))
}

func TestIntoCoroutineAwaitedByTask(t *testing.T) {
	rt := newPool(t, 2)
	ip := interp.New()
	loop := ip.NewLoop()

	task := loop.CreateTask(func(co *interp.Coroutine) (any, error) {
		bf, err := bridge.IntoCoroutine(co.State(), rt.Handle(), answerAfter(10*time.Millisecond))
		if err != nil {
			return nil, err
		}
		assert.False(t, bf.Done())
		return co.Await(bf)
	})

	var v any
	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		var err error
		v, err = loop.RunUntilComplete(st, task)
		return err
	}))
	assert.Equal(t, 42, v)
	require.NoError(t, ip.WithGIL(loop.Close))
}

func TestIntoCoroutinePanicSettlesAsException(t *testing.T) {
	rt := newPool(t, 1)
	ip := interp.New()
	loop := ip.NewLoop()

	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		_, err := bridge.RunUntilComplete(st, rt.Handle(), loop, func(context.Context) (string, error) {
			panic("native failure")
		})
		var pe *bridge.PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "native failure", pe.Value)
		return loop.Close(st)
	}))
}

func TestRunUntilComplete(t *testing.T) {
	rt := newPool(t, 2)
	ip := interp.New()
	loop := ip.NewLoop()

	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		v, err := bridge.RunUntilComplete(st, rt.Handle(), loop, answerAfter(5*time.Millisecond))
		require.NoError(t, err)
		assert.Equal(t, 42, v)

		got, err := bridge.RunUntilComplete(st, rt.Handle(), loop, func(context.Context) (any, error) {
			return nil, nil
		})
		require.NoError(t, err)
		assert.Nil(t, got)
		return loop.Close(st)
	}))
}

func TestForeignCancelDetachesResult(t *testing.T) {
	rt := newPool(t, 1)
	ip := interp.New()
	loop := ip.NewLoop()

	release := make(chan struct{})
	var nativeDone atomic.Bool
	task := loop.CreateTask(func(co *interp.Coroutine) (any, error) {
		bf, err := bridge.IntoCoroutine(co.State(), rt.Handle(), func(context.Context) (int, error) {
			<-release
			nativeDone.Store(true)
			return 7, nil
		})
		if err != nil {
			return nil, err
		}
		assert.True(t, bf.Cancel())
		close(release)
		// Give the native result time to arrive; the settle message must be a no-op.
		if err := co.Sleep(20 * time.Millisecond); err != nil {
			return nil, err
		}
		assert.True(t, bf.Cancelled())
		return "detached", nil
	})

	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		v, err := loop.RunUntilComplete(st, task)
		assert.NoError(t, err)
		assert.Equal(t, "detached", v)
		return loop.Close(st)
	}))
	require.Eventually(t, nativeDone.Load, time.Second, time.Millisecond)
}

func TestLoopClosedBeforeDelivery(t *testing.T) {
	rt := newPool(t, 1)
	ip := interp.New()
	loop := ip.NewLoop()

	release := make(chan struct{})
	finished := make(chan struct{})
	var bf *interp.Future
	setup := loop.CreateTask(func(co *interp.Coroutine) (any, error) {
		var err error
		bf, err = bridge.IntoCoroutine(co.State(), rt.Handle(), func(context.Context) (int, error) {
			<-release
			defer close(finished)
			return 1, nil
		})
		return nil, err
	})
	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		if _, err := loop.RunUntilComplete(st, setup); err != nil {
			return err
		}
		return loop.Close(st)
	}))
	close(release)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("native task did not run to completion")
	}
	assert.False(t, bf.Done())
}

func TestIntoFutureWaitsForForeignResult(t *testing.T) {
	rt := newPool(t, 1)
	ip := interp.New()
	loop := ip.NewLoop()
	foreign := loop.CreateFuture()
	loop.CallLater(5*time.Millisecond, func(*interp.State) { _ = foreign.SetResult("from loop") })

	require.NoError(t, ip.WithGIL(func(st *interp.State) error {
		native := bridge.IntoFuture(st, foreign)
		jh := bridge.Spawn(rt.Handle(), func(ctx context.Context) {
			v, err := native(ctx)
			assert.NoError(t, err)
			assert.Equal(t, "from loop", v)
		})
		if _, err := loop.RunUntilComplete(st, foreign); err != nil {
			return err
		}
		require.NoError(t, jh.Join())
		return loop.Close(st)
	}))
}

func TestIntoFutureRejectsForeignInterpreter(t *testing.T) {
	a, b := interp.New(), interp.New()
	f := a.NewLoop().CreateFuture()
	require.NoError(t, b.WithGIL(func(st *interp.State) error {
		_, err := bridge.IntoFuture(st, f)(context.Background())
		assert.ErrorIs(t, err, interp.ErrWrongInterpreter)
		return nil
	}))
}
