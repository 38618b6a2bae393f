package executor

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/internal/concurrency"
)

func TestParseFlavor(t *testing.T) {
	f, err := ParseFlavor("current-thread")
	require.NoError(t, err)
	assert.Equal(t, CurrentThread, f)
	f, err = ParseFlavor("MULTI_THREAD")
	require.NoError(t, err)
	assert.Equal(t, MultiThread, f)
	assert.Equal(t, "multi_thread", f.String())
	_, err = ParseFlavor("green")
	assert.ErrorIs(t, err, ErrUnknownFlavor)
}

func TestBuildValidation(t *testing.T) {
	_, err := NewMultiThread().WorkerThreads(-1).Build()
	assert.ErrorIs(t, err, ErrInvalidWorkerCount)
	_, err = NewMultiThread().QueueCapacity(0).Build()
	assert.ErrorIs(t, err, ErrInvalidQueueCapacity)
	_, err = NewMultiThread().PinWorkers(concurrency.NumCPUs() + 8).Build()
	assert.Error(t, err)
}

func TestMultiThreadSpawnJoin(t *testing.T) {
	rt, err := NewMultiThread().WorkerThreads(2).ThreadName("test-pool").Build()
	require.NoError(t, err)
	defer rt.Shutdown()

	h := rt.Handle()
	assert.Equal(t, MultiThread, h.Flavor())
	assert.Equal(t, 2, h.NumWorkers())
	assert.Equal(t, "test-pool", h.Name())

	var got atomic.Int64
	jh := h.Spawn(func(ctx context.Context) { got.Store(42) })
	require.NoError(t, jh.Join())
	assert.Equal(t, int64(42), got.Load())
	assert.Equal(t, int64(1), h.Stats()["succeeded"])
}

func TestSpawnPanicIsTagged(t *testing.T) {
	rt, err := NewMultiThread().WorkerThreads(1).Build()
	require.NoError(t, err)
	defer rt.Shutdown()

	err = rt.Handle().Spawn(func(ctx context.Context) { panic("kaboom") }).Join()
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.True(t, je.IsPanic())
	assert.False(t, je.IsCancelled())
	assert.Equal(t, "kaboom", je.PanicValue())
	assert.NotEmpty(t, je.Stack())

	var capability api.JoinError
	require.True(t, errors.As(err, &capability))
	assert.True(t, capability.IsPanic())
}

func TestGoexitTaskIsReportedAsFault(t *testing.T) {
	rt, err := NewMultiThread().WorkerThreads(1).Build()
	require.NoError(t, err)
	defer rt.Shutdown()
	h := rt.Handle()

	jh := h.Spawn(func(ctx context.Context) { runtime.Goexit() })
	select {
	case <-jh.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("join handle never finished")
	}
	err = jh.Join()
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.True(t, je.IsPanic())
	assert.ErrorIs(t, err, ErrTaskExited)
	assert.Equal(t, ErrTaskExited, je.PanicValue())
	assert.Equal(t, int64(1), h.Stats()["panicked"])

	// The pool still has a worker to run the next task.
	require.NoError(t, h.Spawn(func(context.Context) {}).Join())
	assert.Equal(t, 1, h.NumWorkers())
}

func TestAbortRunningTask(t *testing.T) {
	rt, err := NewMultiThread().WorkerThreads(1).Build()
	require.NoError(t, err)
	defer rt.Shutdown()

	started := make(chan struct{})
	var finished atomic.Bool
	jh := rt.Handle().Spawn(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		finished.Store(true)
	})
	<-started
	jh.Abort()
	err = jh.Join()
	var je *JoinError
	require.ErrorAs(t, err, &je)
	assert.True(t, je.IsCancelled())
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, finished.Load(), "task body must run to its own return")
}

func TestAbortBeforeStartSkipsTask(t *testing.T) {
	rt, err := NewCurrentThread().Build()
	require.NoError(t, err)
	defer rt.Shutdown()

	var ran atomic.Bool
	jh := rt.Handle().Spawn(func(ctx context.Context) { ran.Store(true) })
	jh.Abort()
	require.NoError(t, rt.BlockOn(context.Background(), jh.Done()))

	var je *JoinError
	require.ErrorAs(t, jh.Join(), &je)
	assert.True(t, je.IsCancelled())
	assert.False(t, ran.Load())
}

func TestCurrentThreadNeedsDriver(t *testing.T) {
	rt, err := NewCurrentThread().Build()
	require.NoError(t, err)
	defer rt.Shutdown()

	jh := rt.Handle().SpawnHandle(func(ctx context.Context) {})
	time.Sleep(20 * time.Millisecond)
	assert.False(t, jh.IsFinished())

	require.NoError(t, rt.BlockOn(context.Background(), jh.Done()))
	assert.NoError(t, jh.Join())
}

func TestBlockOnContextCancel(t *testing.T) {
	rt, err := NewCurrentThread().Build()
	require.NoError(t, err)
	defer rt.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = rt.BlockOn(ctx, concurrency.Pending())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	mt, err := NewMultiThread().WorkerThreads(1).Build()
	require.NoError(t, err)
	defer mt.Shutdown()
	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	assert.ErrorIs(t, mt.BlockOn(ctx2, concurrency.Pending()), context.Canceled)
}

func TestShutdownCancelsQueuedAndLaterTasks(t *testing.T) {
	rt, err := NewCurrentThread().Build()
	require.NoError(t, err)
	h := rt.Handle()

	queued := h.Spawn(func(ctx context.Context) {})
	require.NoError(t, rt.Shutdown())
	assert.True(t, h.IsShutdown())

	var je *JoinError
	require.ErrorAs(t, queued.Join(), &je)
	assert.True(t, je.IsCancelled())
	assert.ErrorIs(t, queued.Join(), ErrRuntimeShutdown)

	late := h.Spawn(func(ctx context.Context) {})
	require.ErrorAs(t, late.Join(), &je)
	assert.ErrorIs(t, late.Join(), ErrRuntimeShutdown)
	assert.ErrorIs(t, rt.BlockOn(context.Background(), concurrency.Pending()), ErrRuntimeShutdown)
	assert.NoError(t, rt.Shutdown())
}
