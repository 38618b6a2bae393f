// File: adapters/executor_adapter.go
// Package adapters provides glue between internal concurrency and the api contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ExecutorAdapter presents either internal executor as an api.Executor. Runtime
// handles schedule every task through it.

package adapters

import (
	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/internal/concurrency"
)

type taskExecutor interface {
	Submit(task concurrency.TaskFunc) error
	NumWorkers() int
	Close()
	Stats() map[string]int64
}

// ExecutorAdapter wraps an internal executor to satisfy the api.Executor contract.
type ExecutorAdapter struct {
	exec taskExecutor
}

var _ api.Executor = (*ExecutorAdapter)(nil)

// NewExecutorAdapter starts a work-stealing pool configured by opts.
func NewExecutorAdapter(opts concurrency.ExecutorOptions) *ExecutorAdapter {
	return &ExecutorAdapter{exec: concurrency.NewExecutor(opts)}
}

// NewLocalExecutorAdapter wraps a single-threaded executor. Tasks run only
// while some goroutine drives le.
func NewLocalExecutorAdapter(le *concurrency.LocalExecutor) *ExecutorAdapter {
	return &ExecutorAdapter{exec: le}
}

// Submit dispatches a task function to be executed asynchronously.
// Returns an error if the executor has been closed.
func (ea *ExecutorAdapter) Submit(task func()) error {
	return ea.exec.Submit(task)
}

// NumWorkers returns the number of worker goroutines.
func (ea *ExecutorAdapter) NumWorkers() int {
	return ea.exec.NumWorkers()
}

// Stats reports executor counters.
func (ea *ExecutorAdapter) Stats() map[string]int64 {
	return ea.exec.Stats()
}

// Close stops the executor after running every task already submitted.
func (ea *ExecutorAdapter) Close() {
	ea.exec.Close()
}
