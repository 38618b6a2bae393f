// Package executor builds native runtimes and exposes them through Handle.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Two flavors are available. A current-thread runtime runs all tasks serially
// on whichever goroutine drives it with BlockOn; with no driver it makes no
// progress. A multi-thread runtime owns a pool of work-stealing workers that
// run tasks as soon as they are spawned.
//
// Handle implements api.Runtime: Spawn returns a JoinHandle whose Join
// reports success, a panic (with the recovered value and stack) or a
// cancellation.
package executor
