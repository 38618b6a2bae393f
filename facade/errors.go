// File: facade/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package facade

import "errors"

var (
	// ErrAlreadyInitialized is the panic value of a strict install when a
	// runtime is already installed.
	ErrAlreadyInitialized = errors.New("runtime is already initialized")

	// ErrNotInitialized is the panic value of any use before install.
	ErrNotInitialized = errors.New("runtime must be initialized")
)
