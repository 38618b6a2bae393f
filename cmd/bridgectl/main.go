// File: cmd/bridgectl/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// bridgectl installs the process runtime from a TOML file and exercises both
// bridge directions against a modelled interpreter.

package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
