//go:build linux

// File: internal/concurrency/pin_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux thread pinning through sched_setaffinity.

package concurrency

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// AffinitySupported reports whether PinCurrentThread can succeed on this platform.
func AffinitySupported() bool { return true }

// PinCurrentThread locks the calling goroutine to its OS thread and binds that
// thread to cpuID. The goroutine stays locked even if pinning fails.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 || cpuID >= NumCPUs() {
		return fmt.Errorf("pin: cpu %d out of range [0,%d)", cpuID, NumCPUs())
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("pin: sched_setaffinity cpu %d: %w", cpuID, err)
	}
	return nil
}

// CurrentCPUSet returns the CPUs the calling thread may run on.
func CurrentCPUSet() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}
	cpus := make([]int, 0, set.Count())
	for i := 0; i < NumCPUs(); i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}
