// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "runtime"

// NumCPUs returns the number of logical CPUs.
func NumCPUs() int {
	return runtime.NumCPU()
}
