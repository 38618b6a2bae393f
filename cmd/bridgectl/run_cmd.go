// File: cmd/bridgectl/run_cmd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-bridge/bridge"
	"github.com/momentics/hioload-bridge/config"
	"github.com/momentics/hioload-bridge/facade"
	"github.com/momentics/hioload-bridge/internal/logging"
	"github.com/momentics/hioload-bridge/interp"
)

type runOptions struct {
	flavor  string
	workers int
	tasks   int
	delay   time.Duration
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Install the runtime and drive native work from the interpreter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("flavor") {
				cfg.Runtime.Flavor = opts.flavor
			}
			if cmd.Flags().Changed("workers") {
				cfg.Runtime.WorkerThreads = opts.workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if opts.tasks <= 0 {
				return fmt.Errorf("--tasks must be positive, got %d", opts.tasks)
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.flavor, "flavor", "", "runtime flavor: current_thread or multi_thread")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "worker threads for multi_thread")
	cmd.Flags().IntVar(&opts.tasks, "tasks", 4, "native tasks exposed as coroutines")
	cmd.Flags().DurationVar(&opts.delay, "delay", 10*time.Millisecond, "simulated latency of each native task")
	return cmd
}

func runDemo(ctx context.Context, out io.Writer, cfg config.File, opts *runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.For("bridgectl")
	if !facade.InitFromConfig(cfg.Runtime) {
		log.Info().Msg("runtime already installed, reusing it")
	}

	work := func(n int) bridge.Future[int] {
		return func(taskCtx context.Context) (int, error) {
			select {
			case <-time.After(opts.delay):
				return n * n, nil
			case <-taskCtx.Done():
				return 0, taskCtx.Err()
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}
	}

	ip := interp.New()
	loop := ip.NewLoop()
	return ip.WithGIL(func(st *interp.State) error {
		v, err := facade.BlockOn(st, work(7))
		if err != nil {
			return fmt.Errorf("block_on: %w", err)
		}
		fmt.Fprintf(out, "block_on: %d\n", v)

		gather := loop.CreateTask(func(co *interp.Coroutine) (any, error) {
			futures := make([]*interp.Future, 0, opts.tasks)
			for i := 1; i <= opts.tasks; i++ {
				bf, err := facade.IntoCoroutine(co.State(), work(i))
				if err != nil {
					return nil, err
				}
				futures = append(futures, bf)
			}
			sum := 0
			for _, bf := range futures {
				v, err := co.Await(bf)
				if err != nil {
					return nil, err
				}
				sum += v.(int)
			}
			return sum, nil
		})
		sum, err := loop.RunUntilComplete(st, gather)
		if err != nil {
			return fmt.Errorf("into_coroutine: %w", err)
		}
		fmt.Fprintf(out, "into_coroutine: %d tasks, sum of squares %d\n", opts.tasks, sum)
		if err := loop.Close(st); err != nil {
			return err
		}
		printStats(out, facade.Control().Stats())
		return nil
	})
}

func printStats(out io.Writer, stats map[string]any) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s = %v\n", k, stats[k])
	}
}
