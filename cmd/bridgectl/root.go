// File: cmd/bridgectl/root.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-bridge/config"
	"github.com/momentics/hioload-bridge/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logJSON    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "bridgectl",
		Short:        "Run and inspect the hioload native/interpreter bridge",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "TOML config file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the log level (trace, debug, info, warn, error, off)")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "emit JSON log lines")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

// load reads the config file, if any, and applies the logging overrides of
// file, environment and flags in that order.
func (o *rootOptions) load(cmd *cobra.Command) (config.File, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.File{}, err
		}
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Logging.JSON = &o.logJSON
	}
	if err := cfg.Logging.Validate(); err != nil {
		return config.File{}, err
	}

	lc := logging.Defaults(logging.ProfileRuntime)
	cfg.Logging.Overlay(&lc)
	logging.ApplyEnv(&lc)
	lc.Output = cmd.ErrOrStderr()
	logging.Apply(lc)
	return cfg, nil
}
