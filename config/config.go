// File: config/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TOML configuration for the bridge runtime. Keys missing from the file keep
// their defaults; the result is validated before use.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/momentics/hioload-bridge/executor"
	"github.com/momentics/hioload-bridge/internal/concurrency"
	"github.com/momentics/hioload-bridge/internal/logging"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// File is the top-level configuration document.
type File struct {
	Runtime Runtime `toml:"runtime"`
	Logging Logging `toml:"logging"`
}

// Runtime selects and sizes the native executor.
type Runtime struct {
	Flavor        string `toml:"flavor"`
	WorkerThreads int    `toml:"worker_threads"`
	QueueCapacity int    `toml:"queue_capacity"`
	ThreadName    string `toml:"thread_name"`
	PinWorkers    []int  `toml:"pin_workers,omitempty"`
}

// Logging overrides the logger profile. Empty values keep the profile's.
type Logging struct {
	Level     string `toml:"level,omitempty"`
	JSON      *bool  `toml:"json,omitempty"`
	NoColor   *bool  `toml:"no_color,omitempty"`
	Timestamp *bool  `toml:"timestamp,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Runtime: Runtime{
			Flavor:        executor.MultiThread.String(),
			WorkerThreads: concurrency.NumCPUs(),
			QueueCapacity: executor.DefaultQueueCapacity,
			ThreadName:    executor.DefaultThreadName,
		},
	}
}

// Load reads, decodes and validates the file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (File, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return File{}, fmt.Errorf("config parse failed: %w", err)
	}
	cfg.Runtime.Flavor = strings.TrimSpace(cfg.Runtime.Flavor)
	cfg.Runtime.ThreadName = strings.TrimSpace(cfg.Runtime.ThreadName)
	if err := cfg.Validate(); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg File) ([]byte, error) {
	return toml.Marshal(cfg)
}

// Validate checks every section.
func (f File) Validate() error {
	if err := f.Runtime.Validate(); err != nil {
		return fmt.Errorf("runtime: %w", err)
	}
	if err := f.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Validate checks the runtime section.
func (r Runtime) Validate() error {
	if _, err := executor.ParseFlavor(r.Flavor); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if r.WorkerThreads <= 0 {
		return fmt.Errorf("%w: worker_threads must be positive, got %d", ErrInvalidConfig, r.WorkerThreads)
	}
	if r.QueueCapacity <= 0 {
		return fmt.Errorf("%w: queue_capacity must be positive, got %d", ErrInvalidConfig, r.QueueCapacity)
	}
	if r.ThreadName == "" {
		return fmt.Errorf("%w: thread_name is required", ErrInvalidConfig)
	}
	for i, cpu := range r.PinWorkers {
		if cpu < 0 {
			return fmt.Errorf("%w: pin_workers[%d] is negative", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Builder returns an executor builder for this section.
func (r Runtime) Builder() (*executor.Builder, error) {
	flavor, err := executor.ParseFlavor(r.Flavor)
	if err != nil {
		return nil, err
	}
	var b *executor.Builder
	if flavor == executor.CurrentThread {
		b = executor.NewCurrentThread()
	} else {
		b = executor.NewMultiThread().WorkerThreads(r.WorkerThreads)
	}
	b.QueueCapacity(r.QueueCapacity).ThreadName(r.ThreadName)
	if len(r.PinWorkers) > 0 {
		b.PinWorkers(r.PinWorkers...)
	}
	return b, nil
}

// Map flattens the section for control.ConfigStore.
func (r Runtime) Map() map[string]any {
	m := map[string]any{
		"runtime.flavor":         r.Flavor,
		"runtime.worker_threads": r.WorkerThreads,
		"runtime.queue_capacity": r.QueueCapacity,
		"runtime.thread_name":    r.ThreadName,
	}
	if len(r.PinWorkers) > 0 {
		m["runtime.pin_workers"] = append([]int(nil), r.PinWorkers...)
	}
	return m
}

// Validate checks the logging section.
func (l Logging) Validate() error {
	if l.Level == "" {
		return nil
	}
	if _, ok := logging.ParseLevel(l.Level); !ok {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidConfig, l.Level)
	}
	return nil
}

// Overlay applies the section to cfg.
func (l Logging) Overlay(cfg *logging.Config) {
	if lvl, ok := logging.ParseLevel(l.Level); ok {
		cfg.Level = lvl
	}
	if l.JSON != nil {
		cfg.JSON = *l.JSON
	}
	if l.NoColor != nil {
		cfg.NoColor = *l.NoColor
	}
	if l.Timestamp != nil {
		cfg.Timestamp = *l.Timestamp
	}
}
