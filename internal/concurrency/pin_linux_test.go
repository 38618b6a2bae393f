//go:build linux

package concurrency

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPinCurrentThread(t *testing.T) {
	done := make(chan struct{})
	go func() {
		// Stays locked on exit so the pinned thread is discarded.
		defer close(done)
		allowed, err := CurrentCPUSet()
		if !assert.NoError(t, err) || !assert.NotEmpty(t, allowed) {
			return
		}
		if !assert.NoError(t, PinCurrentThread(allowed[0])) {
			return
		}
		cpus, err := CurrentCPUSet()
		assert.NoError(t, err)
		assert.Equal(t, []int{allowed[0]}, cpus)
	}()
	<-done
}

func TestPinCurrentThreadOutOfRange(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer runtime.UnlockOSThread()
		assert.Error(t, PinCurrentThread(NumCPUs()+1))
	}()
	<-done
}
