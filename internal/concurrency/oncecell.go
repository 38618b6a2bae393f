// File: internal/concurrency/oncecell.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// OnceCell is a write-once slot. The first successful write publishes the value
// with a single atomic store; every read afterwards is a lock-free load.

package concurrency

import (
	"sync"
	"sync/atomic"
)

// OnceCell holds at most one value for its whole lifetime.
// The zero value is an empty cell ready for use.
type OnceCell[T any] struct {
	value atomic.Pointer[T]
	mu    sync.Mutex // serializes writers only
}

// Get returns the stored value, or ok == false if nothing has been stored yet.
func (c *OnceCell[T]) Get() (v T, ok bool) {
	if p := c.value.Load(); p != nil {
		return *p, true
	}
	return v, false
}

// Set stores v if the cell is empty. It reports false, leaving the cell
// unchanged, when a value was already stored.
func (c *OnceCell[T]) Set(v T) bool {
	if c.value.Load() != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value.Load() != nil {
		return false
	}
	c.value.Store(&v)
	return true
}

// GetOrInit returns the stored value, calling init to produce it when the cell
// is empty. init runs at most once across all callers; concurrent callers wait
// for it. initialized reports whether this call ran init. If init panics the
// cell stays empty and the panic propagates.
func (c *OnceCell[T]) GetOrInit(init func() T) (v T, initialized bool) {
	if p := c.value.Load(); p != nil {
		return *p, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.value.Load(); p != nil {
		return *p, false
	}
	v = init()
	c.value.Store(&v)
	return v, true
}
