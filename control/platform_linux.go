//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific debug probes.

package control

import (
	"runtime"

	"github.com/momentics/hioload-bridge/internal/concurrency"
)

// RegisterPlatformProbes sets Linux-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.affinity", func() any {
		cpus, err := concurrency.CurrentCPUSet()
		if err != nil {
			return err.Error()
		}
		return cpus
	})
}
