// File: internal/concurrency/pending.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

// Pending returns a completion signal that never fires.
//
// It is a nil channel: receiving from it blocks forever and a select case on
// it is never chosen. Driving an executor until Pending() completes keeps that
// executor polling its queue for the lifetime of the process. This is
// intentional and is how single-threaded executors are kept alive.
func Pending() <-chan struct{} {
	return nil
}
