// File: interp/gil.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package interp

import (
	"sync"
	"sync/atomic"
)

// GIL is the interpreter-wide execution lock. At most one goroutine holds it.
// It is not reentrant: acquiring it again while holding it deadlocks.
type GIL struct {
	mu           sync.Mutex
	held         atomic.Bool
	acquisitions atomic.Uint64
}

func (g *GIL) lock() {
	g.mu.Lock()
	g.held.Store(true)
	g.acquisitions.Add(1)
}

func (g *GIL) unlock() {
	g.held.Store(false)
	g.mu.Unlock()
}

// Held reports whether some goroutine currently holds the lock.
func (g *GIL) Held() bool { return g.held.Load() }

// Acquisitions returns how many times the lock has been acquired.
func (g *GIL) Acquisitions() uint64 { return g.acquisitions.Load() }

// Interpreter is one foreign execution environment.
type Interpreter struct {
	gil GIL
}

// New creates an interpreter. Its GIL starts released.
func New() *Interpreter {
	return &Interpreter{}
}

// GIL exposes the execution lock for diagnostics.
func (ip *Interpreter) GIL() *GIL {
	return &ip.gil
}

// WithGIL acquires the execution lock, runs fn and releases the lock.
func (ip *Interpreter) WithGIL(fn func(st *State) error) error {
	ip.gil.lock()
	defer ip.gil.unlock()
	return fn(&State{ip: ip})
}

// NewLoop creates an event loop bound to this interpreter.
func (ip *Interpreter) NewLoop() *Loop {
	return newLoop(ip)
}

// State proves that the GIL is held. It is only valid inside the WithGIL
// call, loop callback or coroutine step that produced it.
type State struct {
	ip   *Interpreter
	loop *Loop
}

// Interpreter returns the interpreter this state belongs to.
func (s *State) Interpreter() *Interpreter {
	return s.ip
}

// AllowThreads releases the GIL for the duration of fn and reacquires it
// before returning, even if fn panics. fn must not use s.
func (s *State) AllowThreads(fn func()) {
	s.ip.gil.unlock()
	defer s.ip.gil.lock()
	fn()
}

// RunningLoop returns the loop executing the current callback or coroutine.
func (s *State) RunningLoop() (*Loop, error) {
	if s.loop == nil {
		return nil, ErrNoRunningLoop
	}
	return s.loop, nil
}
