// File: bridge/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskPanicked is matched by every PanicError.
	ErrTaskPanicked = errors.New("bridge: native task panicked")

	// ErrTaskCancelled is matched by every CancelledError.
	ErrTaskCancelled = errors.New("bridge: native task was cancelled")
)

// PanicError reports a native task that panicked. It is distinct from any
// error the task returned, even one with the same message.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("native task panicked: %v", e.Value)
}

func (e *PanicError) Is(target error) bool { return target == ErrTaskPanicked }

// CancelledError reports a native task that was aborted or never ran.
type CancelledError struct {
	Cause error
}

func (e *CancelledError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("native task was cancelled: %v", e.Cause)
	}
	return "native task was cancelled"
}

func (e *CancelledError) Is(target error) bool { return target == ErrTaskCancelled }

func (e *CancelledError) Unwrap() error { return e.Cause }
