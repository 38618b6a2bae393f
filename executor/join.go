// File: executor/join.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package executor

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-bridge/api"
)

type joinErrorKind int

const (
	kindCancelled joinErrorKind = iota
	kindPanicked
)

// JoinError is the failure outcome of a spawned task.
type JoinError struct {
	kind  joinErrorKind
	value any
	stack []byte
	cause error
}

var _ api.JoinError = (*JoinError)(nil)

func (e *JoinError) Error() string {
	if e.kind == kindPanicked {
		return fmt.Sprintf("task panicked: %v", e.value)
	}
	if e.cause != nil {
		return fmt.Sprintf("task was cancelled: %v", e.cause)
	}
	return "task was cancelled"
}

// IsPanic reports whether the task panicked.
func (e *JoinError) IsPanic() bool { return e.kind == kindPanicked }

// IsCancelled reports whether the task was aborted or never ran.
func (e *JoinError) IsCancelled() bool { return e.kind == kindCancelled }

// PanicValue returns the value passed to panic, or nil for cancellations.
func (e *JoinError) PanicValue() any { return e.value }

// Stack returns the goroutine stack captured at the panic site.
func (e *JoinError) Stack() []byte { return e.stack }

// Unwrap returns the cancellation cause, if any.
func (e *JoinError) Unwrap() error { return e.cause }

// JoinHandle observes one task spawned through Handle.Spawn.
type JoinHandle struct {
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	aborted atomic.Bool
	err     error // written once before done is closed
}

var _ api.JoinHandle = (*JoinHandle)(nil)

// Join blocks until the task has finished and returns its outcome.
func (j *JoinHandle) Join() error {
	<-j.done
	return j.err
}

// Done is closed when the task has finished.
func (j *JoinHandle) Done() <-chan struct{} {
	return j.done
}

// Abort requests cancellation. A task that has not started never runs; a
// running task sees its context cancelled and its outcome is reported as
// cancelled unless it panics. Abort after completion has no effect.
func (j *JoinHandle) Abort() {
	select {
	case <-j.done:
		return
	default:
	}
	j.aborted.Store(true)
	j.cancel()
}

// IsFinished reports whether the task has finished.
func (j *JoinHandle) IsFinished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}
