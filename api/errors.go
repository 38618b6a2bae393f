// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types shared across hioload-bridge packages.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrNotSupported    = fmt.Errorf("operation not supported")
)
