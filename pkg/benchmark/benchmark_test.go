package benchmark

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/collapse/perf"
)

func newPerfFolder() collapse.Folder {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return perf.NewFolder(perf.Options{NThreads: 2, Logger: logger})
}

func TestRun(t *testing.T) {
	t.Parallel()

	input, err := os.ReadFile(filepath.Join("..", "collapse", "perf", "testdata", "cycles-instructions.txt"))
	require.NoError(t, err)
	input = bytes.Repeat(input, 50)

	results, err := Run(newPerfFolder, input, Options{Iterations: 3, Warmup: 1, JobSizes: []int{1, 100}})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, size := range []int{1, 100} {
		r := results[i]
		require.Equal(t, size, r.JobSize)
		require.Equal(t, 2, r.Threads)
		require.Len(t, r.Latencies, 3)
		require.LessOrEqual(t, r.P50, r.P95)
		require.LessOrEqual(t, r.P95, r.P99)
	}
	require.Contains(t, []int{1, 100}, Best(results))

	var out bytes.Buffer
	RenderResults(&out, results, MeasureOverhead())
	require.Contains(t, out.String(), "Collapse Benchmark Results")
	require.Contains(t, out.String(), "Fastest job size")
	require.Contains(t, out.String(), "Tool Overhead")
}

func TestRunEmptyInput(t *testing.T) {
	t.Parallel()

	results, err := Run(newPerfFolder, nil, Options{Iterations: 1, JobSizes: []int{5}})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestPercentile(t *testing.T) {
	t.Parallel()

	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	require.Equal(t, time.Duration(5), percentile(sorted, 0.50))
	require.Equal(t, time.Duration(10), percentile(sorted, 0.95))
	require.Equal(t, time.Duration(1), percentile(sorted, 0))
	require.Zero(t, percentile(nil, 0.5))
}

func TestStdDev(t *testing.T) {
	t.Parallel()

	require.Zero(t, stddev([]time.Duration{time.Second}))
	require.Equal(t, time.Second, stddev([]time.Duration{time.Second, 3 * time.Second}))
}

func TestBest(t *testing.T) {
	t.Parallel()

	require.Zero(t, Best(nil))
	require.Equal(t, 10, Best([]Result{{JobSize: 1, P50: 3}, {JobSize: 10, P50: 2}, {JobSize: 100, P50: 2}}))
}
