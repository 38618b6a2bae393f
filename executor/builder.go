// File: executor/builder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runtime factory. A Builder only allocates executor resources; it never
// touches any process-wide registry.

package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/momentics/hioload-bridge/adapters"
	"github.com/momentics/hioload-bridge/api"
	"github.com/momentics/hioload-bridge/internal/concurrency"
)

// Flavor selects the executor configuration.
type Flavor int

const (
	CurrentThread Flavor = iota
	MultiThread
)

func (f Flavor) String() string {
	switch f {
	case CurrentThread:
		return "current_thread"
	case MultiThread:
		return "multi_thread"
	default:
		return "unknown"
	}
}

// ParseFlavor accepts "current_thread" and "multi_thread" (dashes allowed).
func ParseFlavor(s string) (Flavor, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_") {
	case "current_thread":
		return CurrentThread, nil
	case "multi_thread":
		return MultiThread, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFlavor, s)
	}
}

const (
	DefaultThreadName    = "hioload-bridge-worker"
	DefaultQueueCapacity = 1024
)

// Builder configures a Runtime.
type Builder struct {
	flavor        Flavor
	workers       int
	queueCapacity int
	threadName    string
	pinCPUs       []int
}

// NewCurrentThread returns a builder for a single-threaded runtime.
func NewCurrentThread() *Builder {
	return &Builder{flavor: CurrentThread, threadName: DefaultThreadName, queueCapacity: DefaultQueueCapacity}
}

// NewMultiThread returns a builder for a worker-pool runtime with one worker per CPU.
func NewMultiThread() *Builder {
	return &Builder{flavor: MultiThread, threadName: DefaultThreadName, queueCapacity: DefaultQueueCapacity}
}

// WorkerThreads sets the pool size. Zero means one worker per CPU.
// Ignored by current-thread runtimes.
func (b *Builder) WorkerThreads(n int) *Builder {
	b.workers = n
	return b
}

// QueueCapacity sets the per-worker local queue capacity.
func (b *Builder) QueueCapacity(n int) *Builder {
	b.queueCapacity = n
	return b
}

// ThreadName sets the name reported in logs and stats.
func (b *Builder) ThreadName(name string) *Builder {
	b.threadName = name
	return b
}

// PinWorkers pins worker i to cpus[i % len(cpus)]. For a current-thread
// runtime the keep-alive driver is pinned to cpus[0].
func (b *Builder) PinWorkers(cpus ...int) *Builder {
	b.pinCPUs = append([]int(nil), cpus...)
	return b
}

// Flavor returns the configured flavor.
func (b *Builder) Flavor() Flavor {
	return b.flavor
}

// Build validates the configuration and starts the executor.
func (b *Builder) Build() (*Runtime, error) {
	if b.workers < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWorkerCount, b.workers)
	}
	if b.queueCapacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQueueCapacity, b.queueCapacity)
	}
	if len(b.pinCPUs) > 0 {
		if !concurrency.AffinitySupported() {
			return nil, ErrAffinityNotSupported
		}
		for _, cpu := range b.pinCPUs {
			if cpu < 0 || cpu >= concurrency.NumCPUs() {
				return nil, fmt.Errorf("%w: cpu %d out of range [0,%d)", api.ErrInvalidArgument, cpu, concurrency.NumCPUs())
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		flavor:  b.flavor,
		name:    b.threadName,
		pinCPUs: append([]int(nil), b.pinCPUs...),
		ctx:     ctx,
		cancel:  cancel,
	}
	switch b.flavor {
	case CurrentThread:
		h.local = concurrency.NewLocalExecutor()
		h.sched = adapters.NewLocalExecutorAdapter(h.local)
	case MultiThread:
		h.sched = adapters.NewExecutorAdapter(concurrency.ExecutorOptions{
			Workers:       b.workers,
			QueueCapacity: b.queueCapacity,
			Name:          b.threadName,
			PinCPUs:       b.pinCPUs,
		})
	default:
		cancel()
		return nil, fmt.Errorf("%w: %d", ErrUnknownFlavor, int(b.flavor))
	}
	return &Runtime{handle: h}, nil
}
