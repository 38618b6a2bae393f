//go:build !linux

// File: internal/concurrency/pin_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "runtime"

// AffinitySupported reports whether PinCurrentThread can succeed on this platform.
func AffinitySupported() bool { return false }

// PinCurrentThread locks the goroutine to its OS thread; binding to a CPU is
// not available here.
func PinCurrentThread(cpuID int) error {
	runtime.LockOSThread()
	return ErrAffinityNotSupported
}

// CurrentCPUSet is not available on this platform.
func CurrentCPUSet() ([]int, error) {
	return nil, ErrAffinityNotSupported
}
