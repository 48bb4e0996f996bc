//go:build linux

package collapse

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// AvailableParallelism returns the number of CPUs this process may be
// scheduled on, falling back to runtime.NumCPU when the affinity mask cannot
// be read.
func AvailableParallelism() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	if n := set.Count(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}
