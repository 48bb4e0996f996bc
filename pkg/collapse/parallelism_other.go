//go:build !linux

package collapse

import "runtime"

// AvailableParallelism returns runtime.NumCPU.
func AvailableParallelism() int {
	return runtime.NumCPU()
}
