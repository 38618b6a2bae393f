// Package benchmarks
// Author: momentics <momentics@gmail.com>
//
// Performance benchmarks for hioload-bridge components.

package benchmarks

import (
	"context"
	"testing"

	"github.com/momentics/hioload-bridge/bridge"
	"github.com/momentics/hioload-bridge/executor"
	"github.com/momentics/hioload-bridge/internal/concurrency"
	"github.com/momentics/hioload-bridge/interp"
)

func identity(ctx context.Context) (int, error) { return 1, nil }

// BenchmarkLockFreeQueueThroughput tests MPMC queue performance under contention.
func BenchmarkLockFreeQueueThroughput(b *testing.B) {
	q := concurrency.NewLockFreeQueue[int](1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if !q.Enqueue(i) {
				q.Dequeue()
				q.Enqueue(i)
			}
			i++
		}
	})
}

// BenchmarkSpawnJoin measures one spawn plus join on the worker pool.
func BenchmarkSpawnJoin(b *testing.B) {
	rt, err := executor.NewMultiThread().Build()
	if err != nil {
		b.Fatal(err)
	}
	defer rt.Shutdown()
	h := rt.Handle()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := h.Spawn(func(context.Context) {}).Join(); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// BenchmarkBlockOn measures a GIL release, spawn, join and reacquire.
func BenchmarkBlockOn(b *testing.B) {
	rt, err := executor.NewMultiThread().Build()
	if err != nil {
		b.Fatal(err)
	}
	defer rt.Shutdown()
	ip := interp.New()

	b.ResetTimer()
	err = ip.WithGIL(func(st *interp.State) error {
		for i := 0; i < b.N; i++ {
			if _, err := bridge.BlockOn(st, rt.Handle(), identity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
}

// BenchmarkIntoCoroutine measures the full round trip of an exposed task
// through the loop's thread-safe settle path.
func BenchmarkIntoCoroutine(b *testing.B) {
	rt, err := executor.NewMultiThread().Build()
	if err != nil {
		b.Fatal(err)
	}
	defer rt.Shutdown()
	ip := interp.New()
	loop := ip.NewLoop()

	b.ResetTimer()
	err = ip.WithGIL(func(st *interp.State) error {
		task := loop.CreateTask(func(co *interp.Coroutine) (any, error) {
			for i := 0; i < b.N; i++ {
				bf, err := bridge.IntoCoroutine(co.State(), rt.Handle(), identity)
				if err != nil {
					return nil, err
				}
				if _, err := co.Await(bf); err != nil {
					return nil, err
				}
			}
			return nil, nil
		})
		if _, err := loop.RunUntilComplete(st, task); err != nil {
			return err
		}
		return loop.Close(st)
	})
	if err != nil {
		b.Fatal(err)
	}
}
