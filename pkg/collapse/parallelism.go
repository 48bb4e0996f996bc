package collapse

// Parallelism reports how many threads the host can run in parallel.
type Parallelism func() int

// Threads resolves a thread count from p, never returning less than 1.
func (p Parallelism) Threads() int {
	if p == nil {
		return 1
	}
	return max(1, p())
}
