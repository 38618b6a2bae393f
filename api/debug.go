// Package api
// Author: momentics
//
// Introspection contract for a running bridge process.

package api

// Debug exposes named probes over runtime and bridge state.
type Debug interface {
	// DumpState evaluates every probe and returns the results by name.
	DumpState() map[string]any

	// RegisterProbe adds or replaces a named probe.
	RegisterProbe(name string, fn func() any)
}
