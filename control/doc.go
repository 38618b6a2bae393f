// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime introspection for hioload-bridge: the effective configuration of
// the installed runtime, monotonic counters fed by the bridge, and named debug
// probes evaluated on demand.
//
// All types here are safe for concurrent use.
package control
