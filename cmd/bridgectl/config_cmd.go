// File: cmd/bridgectl/config_cmd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/momentics/hioload-bridge/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var validateOnly bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if validateOnly {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "config ok")
				return err
			}
			data, err := config.Encode(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&validateOnly, "validate", false, "only validate, print nothing but the verdict")
	return cmd
}
