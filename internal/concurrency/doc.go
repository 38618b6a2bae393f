// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Native execution primitives for hioload-bridge: a work-stealing worker pool,
// a single-threaded executor that only makes progress while driven, a lock-free
// MPMC queue, a write-once cell for process-wide handles, the suspend-forever
// primitive used by keep-alive drivers, and OS thread pinning.
package concurrency
