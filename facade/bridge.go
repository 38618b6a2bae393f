// File: facade/bridge.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bridge operations bound to the installed runtime. Each panics with
// ErrNotInitialized before the first install.

package facade

import (
	"context"
	"errors"

	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/bridge"
	"github.com/momentics/hioload-bridge/interp"
)

// Metric keys maintained in Control.
const (
	MetricSpawned   = "bridge.spawned"
	MetricCompleted = "bridge.completed"
	MetricBlockOn   = "bridge.block_on"
	MetricExposed   = "bridge.into_coroutine"
	MetricPanicked  = "bridge.panicked"
	MetricCancelled = "bridge.cancelled"
	MetricFailed    = "bridge.failed"
)

// Spawn submits task to the installed runtime without waiting.
func Spawn(task func(ctx context.Context)) api.JoinHandle {
	return bridge.Spawn(global.runtime(), task)
}

// BlockOn runs fut on the installed runtime and waits for it, releasing the
// GIL held through st meanwhile. See bridge.BlockOn for the deadlock rules.
func BlockOn[T any](st *interp.State, fut bridge.Future[T]) (T, error) {
	rt := global.runtime()
	global.control.AddMetric(MetricBlockOn, 1)
	v, err := bridge.BlockOn(st, rt, fut)
	global.countOutcome(err)
	return v, err
}

// IntoCoroutine exposes fut as a Future on the loop running st.
func IntoCoroutine[T any](st *interp.State, fut bridge.Future[T]) (*interp.Future, error) {
	rt := global.runtime()
	bf, err := bridge.IntoCoroutine(st, rt, fut)
	if err != nil {
		return nil, err
	}
	global.control.AddMetric(MetricExposed, 1)
	global.watchOutcome(bf)
	return bf, nil
}

// RunUntilComplete exposes fut on loop and runs loop until it settles.
func RunUntilComplete[T any](st *interp.State, loop *interp.Loop, fut bridge.Future[T]) (T, error) {
	rt := global.runtime()
	global.control.AddMetric(MetricExposed, 1)
	v, err := bridge.RunUntilComplete(st, rt, loop, fut)
	global.countOutcome(err)
	return v, err
}

// meteredRuntime counts spawns and completions of the installed handle.
type meteredRuntime struct {
	rt api.Runtime
	r  *registry
}

func (m meteredRuntime) Spawn(task func(ctx context.Context)) api.JoinHandle {
	m.r.control.AddMetric(MetricSpawned, 1)
	return m.rt.Spawn(func(ctx context.Context) {
		defer m.r.control.AddMetric(MetricCompleted, 1)
		task(ctx)
	})
}

func (r *registry) runtime() api.Runtime {
	return meteredRuntime{rt: r.handle(), r: r}
}

// watchOutcome counts the outcome delivered to bf once it settles. A future
// cancelled by the interpreter carries no native outcome.
func (r *registry) watchOutcome(bf *interp.Future) {
	bf.AddDoneCallback(func(f *interp.Future) {
		if f.Cancelled() {
			return
		}
		_, err := f.Result()
		r.countOutcome(err)
	})
}

func (r *registry) countOutcome(err error) {
	switch {
	case err == nil:
	case errors.Is(err, bridge.ErrTaskPanicked):
		r.control.AddMetric(MetricPanicked, 1)
	case errors.Is(err, bridge.ErrTaskCancelled):
		r.control.AddMetric(MetricCancelled, 1)
	default:
		r.control.AddMetric(MetricFailed, 1)
	}
}
