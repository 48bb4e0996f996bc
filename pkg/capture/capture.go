// Package capture records stack samples with the platform profiler and folds
// them.
package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackfold/pkg/collapse"
	"github.com/danpilch/stackfold/pkg/collapse/dtrace"
	"github.com/danpilch/stackfold/pkg/collapse/perf"
)

// Options configures a capture session.
type Options struct {
	Duration  time.Duration
	Frequency int // sampling frequency in Hz
	PID       int // 0 = system-wide

	Perf   perf.Options
	Dtrace dtrace.Options
	Logger logrus.FieldLogger
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Duration:  10 * time.Second,
		Frequency: 99,
		Perf:      perf.DefaultOptions(),
		Dtrace:    dtrace.DefaultOptions(),
	}
}

// Result holds the folded stacks of a capture.
type Result struct {
	Occurrences *collapse.Occurrences
	Tool        string
	Duration    time.Duration
}

// Capture runs a profiling capture and returns the folded stacks.
// Platform-specific implementation in capture_linux.go and capture_darwin.go.
func Capture(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		opts.Logger = logger
	}
	if opts.Frequency < 1 {
		opts.Frequency = DefaultOptions().Frequency
	}
	return platformCapture(ctx, opts)
}

func (o Options) seconds() int {
	return max(1, int(o.Duration.Seconds()))
}

// foldCommand starts cmd and folds its standard output with f while it is
// being produced.
func foldCommand(cmd *exec.Cmd, f collapse.Folder) (*collapse.Occurrences, error) {
	name := cmd.Args[0]
	if len(cmd.Args) > 1 {
		name += " " + cmd.Args[1]
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}

	occ, foldErr := collapse.Fold(f, stdout)
	// Wait closes the pipe, so it must be drained first.
	_, _ = io.Copy(io.Discard, stdout)
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("%s failed: %w (%s)", name, err, strings.TrimSpace(stderr.String()))
	}
	if foldErr != nil {
		return nil, foldErr
	}
	return occ, nil
}
