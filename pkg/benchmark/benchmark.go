// Package benchmark times collapse runs across job sizes, the knob that
// decides how much input each parser goroutine gets at a time.
package benchmark

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/danpilch/stackfold/pkg/collapse"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int
	Warmup     int
	JobSizes   []int // stacks per job
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations: 20,
		Warmup:     3,
		JobSizes:   []int{1, 10, collapse.DefaultNStacksPerJob, 1000},
	}
}

// Result holds benchmark results for a single job size.
type Result struct {
	JobSize    int
	Threads    int
	Latencies  []time.Duration
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	StdDev     time.Duration
	Throughput float64 // input bytes per second at P50
}

// Overhead holds the tool's own resource usage.
type Overhead struct {
	AllocBytes uint64
	AllocCount uint64
	GCPauses   uint32
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Run folds input once per iteration for every job size, with a fresh
// folder from newFolder each time, and checks that every run produces the
// same total sample count.
func Run(newFolder func() collapse.Folder, input []byte, opts Options) ([]Result, error) {
	var (
		results []Result
		total   uint64
		first   = true
	)

	fold := func(jobSize int) (time.Duration, int, error) {
		f := newFolder()
		f.SetNStacksPerJob(jobSize)
		start := time.Now()
		occ, err := collapse.Fold(f, bytes.NewReader(input))
		elapsed := time.Since(start)
		if err != nil {
			return 0, 0, err
		}
		if first {
			total, first = occ.Total(), false
		} else if occ.Total() != total {
			return 0, 0, fmt.Errorf("job size %d: folded %d samples, want %d", jobSize, occ.Total(), total)
		}
		return elapsed, f.NThreads(), nil
	}

	for _, size := range opts.JobSizes {
		// Warmup
		for i := 0; i < opts.Warmup; i++ {
			if _, _, err := fold(size); err != nil {
				return nil, err
			}
		}

		latencies := make([]time.Duration, opts.Iterations)
		threads := 0
		for i := range latencies {
			elapsed, n, err := fold(size)
			if err != nil {
				return nil, err
			}
			latencies[i], threads = elapsed, n
		}
		slices.Sort(latencies)

		result := Result{
			JobSize:   size,
			Threads:   threads,
			Latencies: latencies,
			P50:       percentile(latencies, 0.50),
			P95:       percentile(latencies, 0.95),
			P99:       percentile(latencies, 0.99),
			StdDev:    stddev(latencies),
		}
		if result.P50 > 0 {
			result.Throughput = float64(len(input)) / result.P50.Seconds()
		}
		results = append(results, result)
	}

	return results, nil
}

// Best returns the job size with the lowest P50, or 0 without results.
func Best(results []Result) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.P50 < results[best].P50 {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return results[best].JobSize
}

// MeasureOverhead returns the tool's CPU and memory overhead.
func MeasureOverhead() Overhead {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Overhead{
		AllocBytes: m.TotalAlloc,
		AllocCount: m.Mallocs,
		GCPauses:   m.NumGC,
	}
}

// RenderResults outputs styled benchmark results.
func RenderResults(w io.Writer, results []Result, overhead Overhead) {
	fmt.Fprintln(w, bmTitle.Render("Collapse Benchmark Results"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 84)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s %s\n",
		bmHeader.Render("JOB SIZE"),
		bmHeader.Render("THREADS"),
		bmHeader.Render("P50        "),
		bmHeader.Render("P95        "),
		bmHeader.Render("P99        "),
		bmHeader.Render("THROUGHPUT  "))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 84)))

	for _, r := range results {
		fmt.Fprintf(w, "  %-10d %-9d %-13v %-13v %-13v %s/s\n",
			r.JobSize, r.Threads, r.P50, r.P95, r.P99, humanize.Bytes(uint64(r.Throughput)))
	}
	if best := Best(results); best > 0 {
		fmt.Fprintf(w, "\n  Fastest job size: %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", best)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Tool Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", lipgloss.NewStyle().Bold(true).Render(humanize.Bytes(overhead.AllocBytes)))
	fmt.Fprintf(w, "  Allocations:      %s\n", lipgloss.NewStyle().Bold(true).Render(humanize.Comma(int64(overhead.AllocCount))))
	fmt.Fprintf(w, "  GC pauses:        %s\n", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%d", overhead.GCPauses)))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}

func stddev(values []time.Duration) time.Duration {
	if len(values) < 2 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range values {
		f := float64(v)
		sum += f
		sumSq += f * f
	}
	n := float64(len(values))
	mean := sum / n
	return time.Duration(math.Sqrt(max(0, sumSq/n-mean*mean)))
}
