// Package interp models the foreign execution environment the bridge talks to.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// An Interpreter owns a global execution lock (the GIL). A *State is the proof
// that the caller holds it: every operation that touches interpreter state
// takes one. Loop is the interpreter's cooperative, single-threaded scheduler:
// callbacks and coroutines run one at a time, always with the GIL held, and
// the loop releases the GIL while it is idle.
//
// Future is the settle-once awaitable shared with native code. Native
// goroutines never touch a Future directly; they post a callback with
// Loop.CallSoonThreadsafe and the loop applies it under the GIL.
//
// Values crossing into the interpreter are opaque (any).
package interp
