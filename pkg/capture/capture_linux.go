//go:build linux

package capture

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/stackfold/pkg/collapse/perf"
)

func platformCapture(ctx context.Context, opts Options) (*Result, error) {
	if _, err := exec.LookPath("perf"); err != nil {
		return nil, fmt.Errorf("perf not found: install linux-tools-common or equivalent")
	}

	dir, err := os.MkdirTemp("", "stackfold-")
	if err != nil {
		return nil, fmt.Errorf("create capture dir: %w", err)
	}
	defer os.RemoveAll(dir)
	data := filepath.Join(dir, "perf.data")

	opts.Logger.WithFields(logrus.Fields{
		"pid":       opts.PID,
		"frequency": opts.Frequency,
		"seconds":   opts.seconds(),
	}).Info("running perf record")

	cmd := exec.CommandContext(ctx, "perf", recordArgs(opts, data)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("perf record failed: %w (%s)", err, stderr.String())
	}

	if opts.Perf.Logger == nil {
		opts.Perf.Logger = opts.Logger
	}
	script := exec.CommandContext(ctx, "perf", "script", "-i", data)
	occ, err := foldCommand(script, perf.NewFolder(opts.Perf))
	if err != nil {
		return nil, err
	}

	return &Result{
		Occurrences: occ,
		Tool:        "perf",
		Duration:    time.Duration(opts.seconds()) * time.Second,
	}, nil
}

func recordArgs(opts Options, output string) []string {
	args := []string{"record", "-F", strconv.Itoa(opts.Frequency), "-g", "-o", output}
	if opts.PID > 0 {
		args = append(args, "-p", strconv.Itoa(opts.PID))
	} else {
		args = append(args, "-a")
	}
	return append(args, "--", "sleep", strconv.Itoa(opts.seconds()))
}
