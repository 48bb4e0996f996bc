//go:build linux || darwin

package capture

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/collapse/perf"
)

func quietPerf(nthreads int) perf.Options {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return perf.Options{NThreads: nthreads, Logger: logger}
}

func TestFoldCommand(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	fixture := filepath.Join("..", "collapse", "perf", "testdata", "java-inline.txt")
	input, err := os.ReadFile(fixture)
	require.NoError(t, err)

	var want bytes.Buffer
	require.NoError(t, collapse.Collapse(perf.NewFolder(quietPerf(1)), bytes.NewReader(input), &want))

	occ, err := foldCommand(exec.Command("cat", fixture), perf.NewFolder(quietPerf(3)))
	require.NoError(t, err)

	var got bytes.Buffer
	_, err = occ.WriteTo(&got)
	require.NoError(t, err)
	require.Equal(t, want.String(), got.String())
}

func TestFoldCommandFailure(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	cmd := exec.Command("sh", "-c", "echo 'no samples' >&2; exit 3")
	_, err := foldCommand(cmd, perf.NewFolder(quietPerf(1)))
	require.Error(t, err)
	require.True(t, strings.HasPrefix(err.Error(), "sh -c failed"), err.Error())
	require.Contains(t, err.Error(), "no samples")
}

func TestFoldCommandNotFound(t *testing.T) {
	t.Parallel()

	_, err := foldCommand(exec.Command("stackfold-no-such-binary"), perf.NewFolder(quietPerf(1)))
	require.Error(t, err)
}

func TestOptionsSeconds(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, Options{}.seconds())
	require.Equal(t, 1, Options{Duration: 300 * time.Millisecond}.seconds())
	require.Equal(t, 30, Options{Duration: 30 * time.Second}.seconds())

	opts := DefaultOptions()
	require.Equal(t, 10*time.Second, opts.Duration)
	require.Equal(t, 99, opts.Frequency)
	require.GreaterOrEqual(t, opts.Perf.NThreads, 1)
}
