// File: facade/registry.go
// Package facade owns the process-wide runtime handle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A process has at most one installed runtime. The handle is published once
// through a write-once cell and read lock-free afterwards; nothing ever
// replaces it. Installing a current-thread runtime also starts the keep-alive
// driver that polls it for the rest of the process.

package facade

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-bridge/adapters"
	"github.com/momentics/hioload-bridge/executor"
	"github.com/momentics/hioload-bridge/internal/concurrency"
	"github.com/momentics/hioload-bridge/internal/logging"
)

type registry struct {
	cell    concurrency.OnceCell[*executor.Handle]
	control *adapters.ControlAdapter
	exit    func(code int)
	drivers driverState
}

func newRegistry() *registry {
	return &registry{
		control: adapters.NewControlAdapter(),
		exit:    os.Exit,
	}
}

var global = newRegistry()

func (r *registry) logger() *zerolog.Logger {
	l := logging.For("facade")
	return &l
}

// install stores h. It panics with ErrAlreadyInitialized if a handle is
// already installed.
func (r *registry) install(h *executor.Handle) {
	if !r.cell.Set(h) {
		panic(ErrAlreadyInitialized)
	}
	r.installed(h)
}

// installIfAbsent builds through factory only when the cell is empty and
// reports whether this call installed. Concurrent callers wait for the first
// factory to finish; factory runs at most once.
func (r *registry) installIfAbsent(factory func() *executor.Handle) bool {
	h, did := r.cell.GetOrInit(factory)
	if did {
		r.installed(h)
	}
	return did
}

func (r *registry) handle() *executor.Handle {
	h, ok := r.cell.Get()
	if !ok {
		panic(ErrNotInitialized)
	}
	return h
}

func (r *registry) tryHandle() (*executor.Handle, bool) {
	return r.cell.Get()
}

// installed runs once, for the handle that won the install.
func (r *registry) installed(h *executor.Handle) {
	_ = r.control.SetConfig(map[string]any{
		"runtime.flavor":         h.Flavor().String(),
		"runtime.thread_name":    h.Name(),
		"runtime.worker_threads": h.NumWorkers(),
	})
	r.control.RegisterDebugProbe("runtime.stats", func() any { return h.Stats() })
	r.control.RegisterDebugProbe("runtime.drivers", func() any { return r.drivers.running() })
	r.logger().Info().
		Str("flavor", h.Flavor().String()).
		Str("name", h.Name()).
		Int("workers", h.NumWorkers()).
		Msg("runtime installed")
	if h.Flavor() == executor.CurrentThread {
		r.startDriver(h)
	}
}

// mustBuild builds b or terminates the process with status 1.
func (r *registry) mustBuild(b *executor.Builder) *executor.Runtime {
	rt, err := b.Build()
	if err != nil {
		r.logger().WithLevel(zerolog.FatalLevel).Err(err).Str("flavor", b.Flavor().String()).Msg("runtime construction failed")
		r.exit(1)
		panic(err)
	}
	return rt
}
