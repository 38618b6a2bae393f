// File: facade/init.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process configuration surface. The strict forms panic when a runtime is
// already installed; the Once forms are no-ops then and report whether they
// installed. A runtime that cannot be constructed terminates the process.

package facade

import (
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-bridge/adapters"
	"github.com/momentics/hioload-bridge/config"
	"github.com/momentics/hioload-bridge/executor"
)

// Init installs h. It panics with ErrAlreadyInitialized if a runtime is
// already installed; the installed handle is never replaced.
func Init(h *executor.Handle) {
	global.install(h)
}

// InitCurrentThread installs a new current-thread runtime and starts its
// keep-alive driver. It panics with ErrAlreadyInitialized if a runtime is
// already installed.
func InitCurrentThread() {
	global.initStrict(executor.NewCurrentThread())
}

// InitMultiThread installs a new worker-pool runtime with one worker per CPU.
// It panics with ErrAlreadyInitialized if a runtime is already installed.
func InitMultiThread() {
	global.initStrict(executor.NewMultiThread())
}

// InitCurrentThreadOnce installs a current-thread runtime unless one is
// installed and reports whether it did.
func InitCurrentThreadOnce() bool {
	return global.initOnce(executor.NewCurrentThread())
}

// InitMultiThreadOnce installs a worker-pool runtime unless one is installed
// and reports whether it did.
func InitMultiThreadOnce() bool {
	return global.initOnce(executor.NewMultiThread())
}

// InitFromConfig installs the runtime described by cfg unless one is
// installed and reports whether it did. cfg is published to Control.
func InitFromConfig(cfg config.Runtime) bool {
	return global.initFromConfig(cfg)
}

// GetHandle returns the installed handle. It panics with ErrNotInitialized
// before the first install.
func GetHandle() *executor.Handle {
	return global.handle()
}

// TryGetHandle returns the installed handle, if any.
func TryGetHandle() (*executor.Handle, bool) {
	return global.tryHandle()
}

// Control returns the process control surface: effective configuration,
// bridge counters and debug probes.
func Control() *adapters.ControlAdapter {
	return global.control
}

func (r *registry) initStrict(b *executor.Builder) {
	if _, ok := r.tryHandle(); ok {
		panic(ErrAlreadyInitialized)
	}
	rt := r.mustBuild(b)
	if !r.cell.Set(rt.Handle()) {
		_ = rt.Shutdown()
		panic(ErrAlreadyInitialized)
	}
	r.installed(rt.Handle())
}

func (r *registry) initOnce(b *executor.Builder) bool {
	return r.installIfAbsent(func() *executor.Handle {
		return r.mustBuild(b).Handle()
	})
}

func (r *registry) initFromConfig(cfg config.Runtime) bool {
	b, err := cfg.Builder()
	if err != nil {
		r.logger().WithLevel(zerolog.FatalLevel).Err(err).Msg("invalid runtime config")
		r.exit(1)
		panic(err)
	}
	did := r.initOnce(b)
	if did {
		_ = r.control.SetConfig(cfg.Map())
	}
	return did
}
